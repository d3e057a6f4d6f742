package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary = lipgloss.Color("39")  // Blue
	ColorSuccess = lipgloss.Color("34")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

// Render applies style to s when styled is true and returns s unchanged otherwise.
func Render(style lipgloss.Style, s string, styled bool) string {
	if !styled {
		return s
	}
	return style.Render(s)
}
