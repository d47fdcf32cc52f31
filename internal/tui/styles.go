package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	header    lipgloss.Style
	user      lipgloss.Style
	bot       lipgloss.Style
	text      lipgloss.Style
	statusOK  lipgloss.Style
	statusErr lipgloss.Style
	help      lipgloss.Style
	input     lipgloss.Style
}

func defaultStyles() styles {
	gold := lipgloss.Color("#d4af37")
	blue := lipgloss.Color("#7aa2f7")
	mint := lipgloss.Color("#9ece6a")
	red := lipgloss.Color("#f7768e")
	muted := lipgloss.Color("#565f89")

	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(gold).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		user:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		bot:       lipgloss.NewStyle().Foreground(gold).Bold(true),
		text:      lipgloss.NewStyle().PaddingLeft(2),
		statusOK:  lipgloss.NewStyle().Foreground(mint),
		statusErr: lipgloss.NewStyle().Foreground(red).Bold(true),
		help:      lipgloss.NewStyle().Foreground(muted),
		input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
	}
}
