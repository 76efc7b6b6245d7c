package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	accentColor  = lipgloss.Color("#06B6D4") // Cyan
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	textColor    = lipgloss.Color("#F9FAFB") // Light gray

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	chatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	botLabelStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(textColor)

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(errorColor)

	metaStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	warningNoteStyle = lipgloss.NewStyle().
				Foreground(warningColor).
				Bold(true).
				Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Padding(0, 1)

	disabledInputStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)
)
