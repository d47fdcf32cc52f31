package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"movne-gateway/internal/chat"
	"movne-gateway/internal/types"
)

type sentMsg struct{ err error }

type checkedMsg struct{ status types.SystemStatus }

// Model renders one chat session. The title is the only thing that differs
// between deployments.
type Model struct {
	session *chat.Session
	title   string
	timeout time.Duration

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   styles

	busy   bool
	notice string
	// seen is the turn count at the last render; new turns scroll to the end.
	seen   int
	width  int
	height int
}

func New(session *chat.Session, title string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about structured products..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		session:  session,
		title:    title,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		styles:   defaultStyles(),
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(session *chat.Session, title string, timeout time.Duration) error {
	_, err := tea.NewProgram(New(session, title, timeout), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-8, 3)
		m.input.Width = max(msg.Width-6, 10)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlT:
			if !m.busy {
				m.busy = true
				m.notice = ""
				cmds = append(cmds, m.spinner.Tick, m.check())
			}
		case tea.KeyEnter:
			text := m.input.Value()
			if !m.busy && strings.TrimSpace(text) != "" {
				m.input.Reset()
				m.busy = true
				m.notice = ""
				cmds = append(cmds, m.spinner.Tick, m.send(text))
			}
		}

	case sentMsg:
		m.busy = false
		var fe *chat.FieldError
		switch {
		case msg.err == nil:
		case errors.As(msg.err, &fe):
			m.notice = fe.Error()
		default:
			m.notice = ""
		}

	case checkedMsg:
		m.busy = false

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport.SetContent(m.renderTurns())
	if n := len(m.session.Turns()); n != m.seen {
		m.seen = n
		m.viewport.GotoBottom()
	}
	// Keys belong to the input line; the viewport scrolls with the mouse.
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.styles.input.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("enter: send • ctrl+t: system check • esc: quit"))
	return b.String()
}

func (m Model) send(text string) tea.Cmd {
	session, timeout := m.session, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sentMsg{err: session.Send(ctx, text)}
	}
}

func (m Model) check() tea.Cmd {
	session, timeout := m.session, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return checkedMsg{status: session.CheckSystem(ctx)}
	}
}

func (m Model) renderTurns() string {
	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}
	body := m.styles.text.Width(width)

	var b strings.Builder
	for _, t := range m.session.Turns() {
		if t.IsBot {
			b.WriteString(m.styles.bot.Render("assistant"))
		} else {
			b.WriteString(m.styles.user.Render("you"))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(t.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) statusLine() string {
	var parts []string
	if m.busy {
		parts = append(parts, m.spinner.View())
	}
	if m.notice != "" {
		parts = append(parts, m.styles.statusErr.Render(m.notice))
	} else if st, ok := m.session.Status(); ok {
		if st.OK {
			parts = append(parts, m.styles.statusOK.Render(st.Message))
		} else {
			parts = append(parts, m.styles.statusErr.Render(st.Message))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, " "))
}
