package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RuleWidth is the width of the rules drawn above and below a banner.
const RuleWidth = 37

// Banner renders title between two horizontal rules.
func Banner(title string) string {
	rule := RuleStyle.Render(strings.Repeat("=", RuleWidth))
	return rule + "\n" + BannerStyle.Render(title) + "\n" + rule
}

// Title renders a styled section title.
func Title(text string) string {
	return TitleStyle.Render(text)
}

// Badge renders a small colored badge.
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(color).
		Padding(0, 1).
		Render(text)
}

// SuccessBadge renders a green badge.
func SuccessBadge(text string) string {
	return Badge(text, Success)
}

// ErrorBadge renders a red badge.
func ErrorBadge(text string) string {
	return Badge(text, Error)
}

// StatusBadge renders OK or FAIL.
func StatusBadge(ok bool) string {
	if ok {
		return SuccessBadge("OK")
	}
	return ErrorBadge("FAIL")
}
