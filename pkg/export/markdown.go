// Package export writes a loaded relationship graph out as a Markdown report.
package export

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// MaxMermaidEdges caps the relationship diagram; larger graphs are listed
// but not drawn.
const MaxMermaidEdges = 150

// Report is the input of GenerateMarkdown.
type Report struct {
	Title   string
	Filters model.Filters
	// Center is the ego center, 0 for a preview.
	Center    int64
	Data      model.GraphData
	Generated time.Time
}

// GenerateMarkdown renders a summary, the most connected executives, a
// Mermaid diagram and one section per executive.
func GenerateMarkdown(r Report) string {
	var sb strings.Builder
	nodes := append([]model.Executive(nil), r.Data.Nodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	names := make(map[int64]string, len(nodes))
	for _, e := range nodes {
		names[e.ID] = e.Name
	}

	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	if !r.Generated.IsZero() {
		fmt.Fprintf(&sb, "Generated: %s\n\n", r.Generated.Format(time.RFC1123))
	}

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Executives**: %d\n", len(nodes))
	fmt.Fprintf(&sb, "- **Relationships**: %d\n", len(r.Data.Edges))
	if r.Center != 0 {
		fmt.Fprintf(&sb, "- **Center**: %s\n", names[r.Center])
	}
	if r.Filters.HasActive() {
		fmt.Fprintf(&sb, "- **Filters**: `%s`\n", r.Filters.Key())
	}
	regions := map[model.Region]int{}
	for _, e := range nodes {
		regions[e.Region]++
	}
	for _, reg := range []model.Region{model.RegionCN, model.RegionHK, model.RegionSG} {
		if regions[reg] > 0 {
			fmt.Fprintf(&sb, "- **%s**: %d\n", reg, regions[reg])
		}
	}
	counts := r.Data.RelationCounts()
	for _, t := range []model.RelationType{model.RelColleague, model.RelFormer, model.RelAlumni} {
		if counts[t] > 0 {
			fmt.Fprintf(&sb, "- **%s**: %d\n", t, counts[t])
		}
	}
	sb.WriteString("\n")

	if top := mostConnected(nodes, r.Data.Edges, 10); len(top) > 0 {
		sb.WriteString("## Most Connected\n\n")
		sb.WriteString("| Rank | Executive | Relationships |\n|---|---|---|\n")
		for i, d := range top {
			fmt.Fprintf(&sb, "| %d | %s | %d |\n", i+1, escapeCell(names[d.id]), d.n)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Relationship Graph\n\n")
	if len(r.Data.Edges) > MaxMermaidEdges {
		fmt.Fprintf(&sb, "_%d relationships; diagram omitted above %d._\n\n", len(r.Data.Edges), MaxMermaidEdges)
	} else {
		sb.WriteString("```mermaid\ngraph LR\n")
		for _, e := range nodes {
			fmt.Fprintf(&sb, "    e%d[\"%s\"]\n", e.ID, mermaidLabel(e.Name))
		}
		for _, rel := range r.Data.Edges {
			link := "---"
			if rel.Type == model.RelFormer {
				link = "-.-"
			} else if rel.Type == model.RelAlumni {
				link = "==="
			}
			fmt.Fprintf(&sb, "    e%d %s e%d\n", rel.SourceID, link, rel.TargetID)
		}
		if len(nodes) == 0 {
			sb.WriteString("    Empty[No executives]\n")
		}
		sb.WriteString("```\n\n")
	}

	sb.WriteString("---\n\n")
	for _, e := range nodes {
		fmt.Fprintf(&sb, "## %s\n\n", e.Name)
		sb.WriteString("| Title | Company | Region |\n|---|---|---|\n")
		fmt.Fprintf(&sb, "| %s | %s | %s |\n\n", escapeCell(e.Title), escapeCell(e.Company), e.Region)

		var lines []string
		for _, rel := range r.Data.Edges {
			if !rel.Touches(e.ID) {
				continue
			}
			line := fmt.Sprintf("- **%s**: %s", rel.Type, names[rel.Other(e.ID)])
			if rel.Label != "" {
				line += " (" + rel.Label + ")"
			}
			lines = append(lines, line)
		}
		sort.Strings(lines)
		if len(lines) > 0 {
			sb.WriteString("### Relationships\n\n")
			sb.WriteString(strings.Join(lines, "\n"))
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

type degree struct {
	id int64
	n  int
}

// mostConnected returns up to limit executives with at least one loaded
// relationship, by descending count then id. nodes must be sorted by id.
func mostConnected(nodes []model.Executive, edges []model.Relationship, limit int) []degree {
	counts := make(map[int64]int, len(nodes))
	for _, r := range edges {
		counts[r.SourceID]++
		counts[r.TargetID]++
	}
	var out []degree
	for _, e := range nodes {
		if counts[e.ID] > 0 {
			out = append(out, degree{id: e.ID, n: counts[e.ID]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].n > out[j].n })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SaveMarkdownToFile writes the report to filename.
func SaveMarkdownToFile(r Report, filename string) error {
	return os.WriteFile(filename, []byte(GenerateMarkdown(r)), 0o644)
}

func mermaidLabel(s string) string {
	s = strings.NewReplacer(`"`, "'", "[", "", "]", "", "(", "", ")", "").Replace(s)
	if rs := []rune(s); len(rs) > 30 {
		s = string(rs[:27]) + "..."
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
