// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/oakmont-ai/scorecard/internal/model"
)

var (
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent output.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	riskStyles = map[model.RiskCategory]lipgloss.Style{
		model.RiskLow:        lipgloss.NewStyle().Bold(true).Foreground(SuccessColor),
		model.RiskBorderline: lipgloss.NewStyle().Bold(true).Foreground(WarningColor),
		model.RiskHigh:       lipgloss.NewStyle().Bold(true).Foreground(ErrorColor),
	}
)

// RenderRisk formats a risk category with its signal color.
func RenderRisk(category model.RiskCategory) string {
	if style, ok := riskStyles[category]; ok {
		return style.Render(string(category))
	}
	return string(category)
}
