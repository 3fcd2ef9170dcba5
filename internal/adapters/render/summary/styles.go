package summary

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	account  lipgloss.Style
	detail   lipgloss.Style
	key      lipgloss.Style
	paired   lipgloss.Style
	unpaired lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		account:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		key:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		paired:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		unpaired: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
	}
}
