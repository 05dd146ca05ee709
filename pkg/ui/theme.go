package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors shared by the footer and the overlays.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	Base lipgloss.Style
}

// DefaultTheme matches the canvas palette: blue accents on a dark navy field.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"},
		Secondary: lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"},
		Muted:     lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#64748B"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#374151", Dark: "#CBD5E1"},
		Border:    lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#1E293B"},
		Error:     lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
	}
	t.Base = r.NewStyle().Foreground(t.Subtext)
	return t
}
