package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tsm-sh/tsm/internal/event"
)

var (
	// Colors chosen for readable contrast on dark terminals.
	primaryColor = lipgloss.Color("#38BDF8") // Sky
	successColor = lipgloss.Color("#34D399") // Green
	warningColor = lipgloss.Color("#FBBF24") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#94A3B8") // Slate
	textColor    = lipgloss.Color("#F1F5F9") // Light text
	borderColor  = lipgloss.Color("#475569") // Slate border

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerInfoStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	feedStyle = lipgloss.NewStyle().
			Foreground(textColor)

	feedTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
)

// phaseColor maps a loop phase to its badge color.
func phaseColor(phase event.Phase) lipgloss.Color {
	switch phase {
	case event.PhaseIdle:
		return mutedColor
	case event.PhaseAborted:
		return errorColor
	case event.PhaseReconciling:
		return warningColor
	default:
		return successColor
	}
}
