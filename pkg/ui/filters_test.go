package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
	"github.com/vanderheijden86/execgraph/pkg/recipe"
)

func TestCycleFilter(t *testing.T) {
	tests := []struct {
		name string
		in   model.Filters
		key  string
		want model.Filters
	}{
		{"RegionFromAll", model.NoFilters(), "r", model.Filters{Region: model.RegionCN}},
		{"RegionWraps", model.Filters{Region: model.RegionSG}, "r", model.Filters{}},
		{"Company", model.Filters{CompanyType: model.CompanyLife}, "c", model.Filters{CompanyType: model.CompanyProperty}},
		{"Title", model.Filters{TitleType: model.TitleManagement}, "t", model.Filters{TitleType: model.TitleActuary}},
		{"Relation", model.NoFilters(), "e", model.Filters{RelationType: model.RelColleague}},
		{"UnknownKey", model.Filters{Region: model.RegionHK}, "z", model.Filters{Region: model.RegionHK}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CycleFilter(tt.in, tt.key)
			if want := tt.want.Normalize(); got != want {
				t.Errorf("CycleFilter(%v, %q) = %v, want %v", tt.in, tt.key, got, want)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("cycled filters invalid: %v", err)
			}
		})
	}
}

func TestCycleFilter_VisitsEveryRegion(t *testing.T) {
	f := model.NoFilters()
	seen := map[model.Region]bool{}
	for i := 0; i < len(regionCycle); i++ {
		f = CycleFilter(f, "r")
		seen[f.Region] = true
	}
	if len(seen) != len(regionCycle) || f.Region != model.All {
		t.Errorf("seen %v, ended at %q", seen, f.Region)
	}
}

func TestNewFilterForm(t *testing.T) {
	f := model.Filters{Region: model.RegionHK}
	if NewFilterForm(&f) == nil {
		t.Fatal("nil form")
	}
	if f.CompanyType != model.CompanyAll || f.Region != model.RegionHK {
		t.Errorf("form should normalize in place, got %v", f)
	}
}

func TestDetailMarkdown(t *testing.T) {
	data := testData()
	nodes := make([]*layout.SimNode, 0, len(data.Nodes))
	for _, e := range data.Nodes {
		nodes = append(nodes, &layout.SimNode{Exec: e})
	}
	sim := layout.NewSim(nodes, data.Edges, nil)

	md := DetailMarkdown(sim, 2)
	for _, want := range []string{
		"# Chan Tai Man",
		"**CEO** · AIA",
		"Region: `HK`",
		"## Relationships (2)",
		"| Li Ming | 同事 colleague |",
		"| Tan Wei | 校友 alumni | HKU |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	if DetailMarkdown(sim, 99) != "" {
		t.Error("unknown id should give empty markdown")
	}

	lone := layout.NewSim([]*layout.SimNode{{Exec: model.Executive{ID: 5, Name: "Solo"}}}, nil, nil)
	if md := DetailMarkdown(lone, 5); !strings.Contains(md, "No relationships") {
		t.Errorf("isolated node markdown = %q", md)
	}
}

func TestDetailRenderer(t *testing.T) {
	d := &detailRenderer{}
	out := d.render("# Title\n\nparagraph", 30)
	if !strings.Contains(out, "paragraph") {
		t.Errorf("render = %q", out)
	}
	first := d.r
	d.render("again", 30)
	if d.r != first {
		t.Error("renderer should be reused for the same width")
	}
}

func TestRecipePicker(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	l := recipe.NewLoader()
	picker := NewRecipePickerModel(l, "hk", theme)

	r, ok := picker.Selected()
	if !ok || r.Name != "hk" {
		t.Fatalf("selected = %v", r.Name)
	}
	picker.MoveDown()
	picker.MoveDown()
	r, _ = picker.Selected()
	if r.Name != "sg" {
		t.Errorf("MoveDown past the end should stay on last, got %s", r.Name)
	}
	for i := 0; i < 10; i++ {
		picker.MoveUp()
	}
	r, _ = picker.Selected()
	if r.Name != "default" {
		t.Errorf("MoveUp past the start should stay on first, got %s", r.Name)
	}

	picker.SetSize(80, 30)
	view := picker.View()
	for _, want := range []string{"Recipes", "boards", "Hong Kong market", "✓"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderHelp(t *testing.T) {
	out := RenderHelp(DefaultTheme(lipgloss.DefaultRenderer()), 80)
	for _, want := range []string{"Quick Reference", "cycle region", "find executive"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
