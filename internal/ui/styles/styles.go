// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// Color definitions for the activity theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("42")  // Green
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Metric colors
	StepsColor    = lipgloss.Color("42")  // Green
	DistanceColor = lipgloss.Color("39")  // Blue
	EnergyColor   = lipgloss.Color("208") // Orange
	ExerciseColor = lipgloss.Color("220") // Yellow

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark  = lipgloss.Color("235")
	BgLight = lipgloss.Color("237")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// HelpStyle is the base style for hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// BigNumberStyle renders the headline step count.
var BigNumberStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// ProgressLabelStyle styles progress bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(20)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// TableCellStyle styles table cells.
var TableCellStyle = lipgloss.NewStyle().
	Padding(0, 1)

// ButtonStyle is the base button style.
var ButtonStyle = lipgloss.NewStyle().
	Padding(0, 2).
	MarginRight(1)

// ButtonActiveStyle styles the selected segment of a toggle.
var ButtonActiveStyle = ButtonStyle.
	Background(Primary).
	Foreground(lipgloss.Color("229")).
	Bold(true)

var ButtonInactiveStyle = ButtonStyle.
	Background(BgLight).
	Foreground(TextSecondary)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// MutedTextStyle for secondary information such as timestamps.
var MutedTextStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// GoalReachedStyle highlights progress at or past the goal.
var GoalReachedStyle = lipgloss.NewStyle().
	Foreground(Success).
	Bold(true)

// ProgressHighStyle for progress of at least 66%.
var ProgressHighStyle = lipgloss.NewStyle().
	Foreground(Success)

// ProgressMediumStyle for progress between 33% and 66%.
var ProgressMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// ProgressLowStyle for progress below 33%.
var ProgressLowStyle = lipgloss.NewStyle().
	Foreground(Error)

// GetProgressStyle returns the style for a goal progress in [0, 1].
func GetProgressStyle(progress float64) lipgloss.Style {
	switch {
	case progress >= 1:
		return GoalReachedStyle
	case progress >= 0.66:
		return ProgressHighStyle
	case progress >= 0.33:
		return ProgressMediumStyle
	default:
		return ProgressLowStyle
	}
}

// MetricColor returns the accent color of a metric.
func MetricColor(m health.MetricKind) lipgloss.Color {
	switch m {
	case health.Distance:
		return DistanceColor
	case health.ActiveEnergy:
		return EnergyColor
	case health.ExerciseDuration:
		return ExerciseColor
	default:
		return StepsColor
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}
