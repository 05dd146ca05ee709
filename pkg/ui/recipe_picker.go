package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/execgraph/pkg/recipe"
)

// RecipePickerModel is a modal for choosing a filter recipe.
type RecipePickerModel struct {
	recipes       []recipe.Recipe
	current       string
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewRecipePickerModel lists the loader's recipes with current highlighted.
func NewRecipePickerModel(l *recipe.Loader, current string, theme Theme) RecipePickerModel {
	var recipes []recipe.Recipe
	idx := 0
	for i, name := range l.Names() {
		r, _ := l.Get(name)
		recipes = append(recipes, r)
		if name == current {
			idx = i
		}
	}
	return RecipePickerModel{
		recipes:       recipes,
		current:       current,
		selectedIndex: idx,
		theme:         theme,
	}
}

// SetSize updates the picker dimensions
func (m *RecipePickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *RecipePickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *RecipePickerModel) MoveDown() {
	if m.selectedIndex < len(m.recipes)-1 {
		m.selectedIndex++
	}
}

// Selected returns the highlighted recipe.
func (m *RecipePickerModel) Selected() (recipe.Recipe, bool) {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.recipes) {
		return m.recipes[m.selectedIndex], true
	}
	return recipe.Recipe{}, false
}

// View renders the picker overlay
func (m *RecipePickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}
	t := m.theme

	boxWidth := 48
	if m.width < 58 {
		boxWidth = m.width - 10
	}
	if boxWidth < 28 {
		boxWidth = 28
	}

	var lines []string
	lines = append(lines, t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render("Recipes"), "")

	descStyle := t.Renderer.NewStyle().Foreground(t.Muted)
	for i, r := range m.recipes {
		selected := i == m.selectedIndex
		style := t.Renderer.NewStyle().Foreground(t.Subtext)
		prefix := "  "
		if selected {
			style = style.Foreground(t.Primary).Bold(true)
			prefix = "> "
		}
		suffix := ""
		if r.Name == m.current {
			suffix = " " + t.Renderer.NewStyle().Foreground(t.Secondary).Render("✓")
		}
		lines = append(lines, style.Render(prefix+r.Name)+suffix)
		if r.Description != "" {
			lines = append(lines, descStyle.Render("    "+r.Description))
		}
	}

	lines = append(lines, "", t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true).
		Render("j/k: navigate | enter: apply | esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
