// Package render draws the simulation state onto a raster or vector canvas
// with mode dependent styling.
package render

import (
	"fmt"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

// Renderer draws one frame per call. It only reads the simulation.
type Renderer struct {
	// Legend draws relation-type counts and totals in ego mode.
	Legend bool
}

// NewRenderer returns a renderer with the ego legend enabled.
func NewRenderer() *Renderer {
	return &Renderer{Legend: true}
}

// Draw replaces the canvas contents with the current frame and returns the
// mode it resolved.
func (r *Renderer) Draw(c Canvas, sim *layout.Sim, f model.Filters) layout.Mode {
	mode := layout.ResolveMode(sim.CenterPtr(), f)
	c.Clear()

	for _, e := range sim.Edges {
		a, b, ok := sim.Endpoints(e)
		if !ok {
			continue
		}
		hovered := sim.IsHovered(e.SourceID) || sim.IsHovered(e.TargetID)
		c.Line(a.X, a.Y, b.X, b.Y, EdgeStyleFor(e, a, b, mode, f, hovered))
	}

	var center *layout.SimNode
	for _, n := range sim.Nodes() {
		if mode.Kind == layout.ModeEgo && n.ID() == mode.Center {
			center = n
			continue
		}
		drawNode(c, n, NodeStyleFor(n, mode, f, sim.IsHovered(n.ID())))
	}
	// The ego center goes on top of its neighbors.
	if center != nil {
		c.Ring(center.X, center.Y, CenterRing(center))
		drawNode(c, center, NodeStyleFor(center, mode, f, sim.IsHovered(center.ID())))
	}

	if hasVignette(mode) {
		c.Vignette()
	}
	if mode.Kind == layout.ModeEgo && r.Legend {
		drawLegend(c, sim)
	}
	return mode
}

func drawNode(c Canvas, n *layout.SimNode, s NodeStyle) {
	c.Node(n.X, n.Y, s)
	if s.Label && n.Exec.Name != "" {
		c.Label(n.X, n.Y-s.Radius, n.Exec.Name, s.Bold)
	}
}

var relationNames = map[model.RelationType]string{
	model.RelColleague: "colleague",
	model.RelAlumni:    "alumni",
	model.RelFormer:    "former",
}

// drawLegend renders the relation-type key with counts (bottom-left) and the
// node/edge totals (top-right).
func drawLegend(c Canvas, sim *layout.Sim) {
	w, h := c.Size()
	counts := sim.Data().RelationCounts()

	const (
		pad    = 16.0
		rowH   = 16.0
		panelW = 150.0
	)
	panelH := rowH*float64(len(model.RelationTypes)+1) + 12
	x, y := pad, h-pad-panelH
	c.Panel(x, y, panelW, panelH, legendPanel)
	c.Text(x+10, y+14, "relations", legendTitle)
	for i, t := range model.RelationTypes {
		ry := y + 14 + rowH*float64(i+1)
		c.Line(x+10, ry, x+26, ry, EdgeStyle{Color: EgoEdgeColor(t), Width: 2})
		c.Text(x+32, ry, fmt.Sprintf("%s (%d)", relationNames[t], counts[t]), legendText)
	}

	total := fmt.Sprintf("%d people · %d relations", sim.Len(), len(sim.Edges))
	c.Panel(w-pad-170, pad, 170, 26, legendPanel)
	c.Text(w-pad-160, pad+13, total, legendText)
}
