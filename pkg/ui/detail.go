package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

var relationLabels = map[model.RelationType]string{
	model.RelColleague: "同事 colleague",
	model.RelFormer:    "前同事 former",
	model.RelAlumni:    "校友 alumni",
}

// DetailMarkdown describes an executive and their direct relationships in
// the active simulation. It returns "" when id is not loaded.
func DetailMarkdown(sim *layout.Sim, id int64) string {
	n, ok := sim.Node(id)
	if !ok {
		return ""
	}
	e := n.Exec

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Name)
	if e.Title != "" || e.Company != "" {
		parts := make([]string, 0, 2)
		if e.Title != "" {
			parts = append(parts, "**"+e.Title+"**")
		}
		if e.Company != "" {
			parts = append(parts, e.Company)
		}
		b.WriteString(strings.Join(parts, " · "))
		b.WriteString("\n\n")
	}
	if e.Region != "" {
		fmt.Fprintf(&b, "Region: `%s`\n\n", e.Region)
	}

	type row struct {
		name, rel, label string
	}
	var rows []row
	for _, r := range sim.Edges {
		var other int64
		switch id {
		case r.SourceID:
			other = r.TargetID
		case r.TargetID:
			other = r.SourceID
		default:
			continue
		}
		peer, ok := sim.Node(other)
		if !ok {
			continue
		}
		rel := relationLabels[r.Type]
		if rel == "" {
			rel = string(r.Type)
		}
		rows = append(rows, row{name: peer.Exec.Name, rel: rel, label: r.Label})
	}
	if len(rows) == 0 {
		b.WriteString("_No relationships loaded._\n")
		return b.String()
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].rel != rows[j].rel {
			return rows[i].rel < rows[j].rel
		}
		return rows[i].name < rows[j].name
	})

	fmt.Fprintf(&b, "## Relationships (%d)\n\n", len(rows))
	b.WriteString("| Executive | Relation | Note |\n|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(r.name), r.rel, escapeCell(r.label))
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// detailRenderer caches a glamour renderer per wrap width.
type detailRenderer struct {
	width int
	r     *glamour.TermRenderer
}

func (d *detailRenderer) render(md string, width int) string {
	if width < 10 {
		width = 10
	}
	if d.r == nil || d.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		d.r, d.width = r, width
	}
	out, err := d.r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
