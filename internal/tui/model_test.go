package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movne-gateway/internal/chat"
	"movne-gateway/internal/types"
)

type fakeGateway struct {
	reply  string
	err    error
	status types.SystemStatus
}

func (f *fakeGateway) Ask(context.Context, string, string, string) (string, error) {
	return f.reply, f.err
}

func (f *fakeGateway) CheckSystem(context.Context) (types.SystemStatus, error) {
	return f.status, nil
}

func newModel(gw chat.Gateway) Model {
	m := New(chat.NewSession(gw, chat.Options{UserID: "u1"}), "Movne", time.Second)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestModel_SendRendersBothTurns(t *testing.T) {
	m := newModel(&fakeGateway{reply: "A structured product is..."})
	m = typeText(m, "what is it?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	next, _ = m.Update(m.send("what is it?")())
	m = next.(Model)
	assert.False(t, m.busy)

	view := m.View()
	assert.Contains(t, view, "Movne")
	assert.Contains(t, view, "what is it?")
	assert.Contains(t, view, "A structured product is...")
}

func TestModel_BlankEnterDoesNothing(t *testing.T) {
	m := newModel(&fakeGateway{})
	m = typeText(m, "   ")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.False(t, m.busy)
	assert.Empty(t, m.session.Turns())
}

func TestModel_FieldErrorBecomesNotice(t *testing.T) {
	details, _ := json.Marshal(map[string]string{"user_id": "missing", "query": "ok"})
	m := newModel(&fakeGateway{err: &chat.APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       "ValidationError",
		Message:    "missing required fields",
		Details:    details,
	}})

	next, _ := m.Update(m.send("hi")())
	m = next.(Model)
	assert.Contains(t, m.statusLine(), "user_id")
}

func TestModel_SystemCheckFillsStatusLine(t *testing.T) {
	m := newModel(&fakeGateway{status: types.SystemStatus{OK: true, Message: "all systems go"}})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	next, _ = m.Update(m.check()())
	m = next.(Model)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "all systems go")
	assert.Empty(t, m.session.Turns())
}

func TestModel_EscQuits(t *testing.T) {
	m := newModel(&fakeGateway{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
