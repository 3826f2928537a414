package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication, as ANSI codes for broad terminal support.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
)

// Text colors for content hierarchy
const (
	ColorPrimary lipgloss.Color = "7" // White/default
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
)

// CPU thresholds for the dashboard. Below WarnPercent is green, below
// CriticalPercent is yellow, anything else is red.
const (
	WarnPercent     = 60.0
	CriticalPercent = 80.0
)

// ThresholdColor picks the color for a utilization percentage.
func ThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalPercent:
		return ColorError
	case percent >= WarnPercent:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// DisableColors switches every style to plain text. Used for --no-color.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func successStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }
func errorStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorError) }
func mutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorMuted) }
