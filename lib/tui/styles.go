package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/go-i2p/ircloop/lib/session"
)

type theme struct {
	header   lipgloss.Style
	panel    lipgloss.Style
	title    lipgloss.Style
	column   lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	failure  lipgloss.Style
	footer   lipgloss.Style
	phase    map[session.Phase]lipgloss.Style
}

func newTheme() theme {
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	pink := lipgloss.Color("#ff71ce")
	amber := lipgloss.Color("#ffb86c")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		header: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		title:    lipgloss.NewStyle().Foreground(mint).Bold(true),
		column:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		selected: lipgloss.NewStyle().Reverse(true),
		muted:    lipgloss.NewStyle().Foreground(muted),
		failure:  lipgloss.NewStyle().Foreground(pink),
		footer:   lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		phase: map[session.Phase]lipgloss.Style{
			session.Disconnected:      lipgloss.NewStyle().Foreground(pink),
			session.Connecting:        lipgloss.NewStyle().Foreground(amber),
			session.AwaitingHandshake: lipgloss.NewStyle().Foreground(amber),
			session.Identifying:       lipgloss.NewStyle().Foreground(blue),
			session.Registered:        lipgloss.NewStyle().Foreground(mint).Bold(true),
		},
	}
}

func (t theme) phaseStyle(p session.Phase) lipgloss.Style {
	if s, ok := t.phase[p]; ok {
		return s
	}
	return t.muted
}
