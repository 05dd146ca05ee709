package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpContent = `Mouse
  hover     highlight node and neighbors
  click     focus executive (ego view)
  click bg  back to the network

Filters
  r         cycle region
  c         cycle company type
  t         cycle title type
  e         cycle relation type
  p         next recipe
  P         recipe picker
  x         reset filters

Graph
  /         find executive by name
  esc       leave ego view
  enter     focus hovered executive
  d         toggle detail card
  y         copy hovered name
  s         save PNG snapshot
  R         reload data

  ?         this help
  q         quit`

// RenderHelp renders the key reference modal.
func RenderHelp(theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 46
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 20 {
		modalWidth = 20
	}

	titleStyle := r.NewStyle().Bold(true).Foreground(theme.Primary)
	contentStyle := r.NewStyle().Foreground(theme.Subtext)
	footerStyle := r.NewStyle().Foreground(theme.Muted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(contentStyle.Render(helpContent))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("? or esc to close"))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())
}
