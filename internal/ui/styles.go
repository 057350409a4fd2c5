package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary = lipgloss.Color("63")  // Purple/blue
	Success = lipgloss.Color("78")  // Green
	Warning = lipgloss.Color("214") // Orange
	Error   = lipgloss.Color("196") // Red
	Subtle  = lipgloss.Color("241") // Gray
	TextDim = lipgloss.Color("245") // Dimmer text

	// Section banner around each device phase
	RuleStyle   = lipgloss.NewStyle().Foreground(Subtle)
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Report title
	TitleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			MarginTop(1)

	// General
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(TextDim)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
)
