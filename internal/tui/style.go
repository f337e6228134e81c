package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the dashboard.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(12)

	styleValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleDeath = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// renderLogLine styles one log line by its kind.
func renderLogLine(l logLine) string {
	switch l.kind {
	case "death", "pain_point":
		return styleDeath.Render(l.text)
	case "kill", "pickup", "mission", "milestone":
		return styleReward.Render(l.text)
	default:
		return styleSystem.Render(l.text)
	}
}
