package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Disabled features use warn, failures use danger.
const (
	colorAccent = lipgloss.Color("39")
	colorOK     = lipgloss.Color("78")
	colorDanger = lipgloss.Color("196")
	colorWarn   = lipgloss.Color("214")
	colorMuted  = lipgloss.Color("241")
	colorText   = lipgloss.Color("252")
	colorBar    = lipgloss.Color("236")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	successStyle = lipgloss.NewStyle().Foreground(colorOK)
	errorStyle   = lipgloss.NewStyle().Foreground(colorDanger)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	dimStyle     = lipgloss.NewStyle().Foreground(colorMuted)

	userMsgStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	assistantMsgStyle = lipgloss.NewStyle().Foreground(colorText)
	sourceStyle       = lipgloss.NewStyle().Italic(true).Foreground(colorMuted)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorBar).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted)
)
