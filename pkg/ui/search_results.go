package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// SearchLimit caps the matches listed for one query.
const SearchLimit = 20

// SearchResultsModel lists the executives matching a search so one can be
// focused.
type SearchResultsModel struct {
	query         string
	results       []model.Executive
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewSearchResultsModel lists results for query with the first one highlighted.
func NewSearchResultsModel(query string, results []model.Executive, theme Theme) SearchResultsModel {
	if len(results) > SearchLimit {
		results = results[:SearchLimit]
	}
	return SearchResultsModel{query: query, results: results, theme: theme}
}

// SetSize updates the list dimensions
func (m *SearchResultsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *SearchResultsModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *SearchResultsModel) MoveDown() {
	if m.selectedIndex < len(m.results)-1 {
		m.selectedIndex++
	}
}

// Selected returns the highlighted executive.
func (m *SearchResultsModel) Selected() (model.Executive, bool) {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.results) {
		return m.results[m.selectedIndex], true
	}
	return model.Executive{}, false
}

// ResultLine formats one match as name plus "title · company".
func ResultLine(e model.Executive) string {
	var sub []string
	if e.Title != "" {
		sub = append(sub, e.Title)
	}
	if e.Company != "" {
		sub = append(sub, e.Company)
	}
	if len(sub) == 0 {
		return e.Name
	}
	return e.Name + "  " + strings.Join(sub, " · ")
}

// View renders the result list overlay
func (m *SearchResultsModel) View() string {
	if m.width == 0 {
		m.width = 80
	}
	if m.height == 0 {
		m.height = 24
	}
	t := m.theme

	boxWidth := min(64, max(28, m.width-10))
	textWidth := boxWidth - 6

	title := fmt.Sprintf("%d matches for %q", len(m.results), m.query)
	lines := []string{
		t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(runewidth.Truncate(title, textWidth, "…")),
		"",
	}
	for i, e := range m.results {
		style := t.Renderer.NewStyle().Foreground(t.Subtext)
		prefix := "  "
		if i == m.selectedIndex {
			style = style.Foreground(t.Primary).Bold(true)
			prefix = "> "
		}
		lines = append(lines, style.Render(runewidth.Truncate(prefix+ResultLine(e), textWidth, "…")))
	}
	lines = append(lines, "", t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true).
		Render("j/k: navigate | enter: focus | esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
