package render

import (
	"image/color"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

// NodeStyle is the resolved look of one node for one frame.
type NodeStyle struct {
	Radius    float64
	Alpha     float64
	Color     color.NRGBA // Fill color at the rim of the gradient
	Glow      float64     // Blur radius in px; 0 means no glow
	GlowColor color.NRGBA
	Label     bool
	Bold      bool
}

// EdgeStyle is the resolved look of one edge for one frame.
type EdgeStyle struct {
	Color     color.NRGBA
	Width     float64
	Glow      float64
	GlowColor color.NRGBA
}

// RingStyle describes the halo drawn around the ego center.
type RingStyle struct {
	Radius float64
	Width  float64
	Alpha  float64
	Color  color.NRGBA
	Glow   float64
}

// Emphasis presets shared by the modes.
const (
	hoverRadius = 11
	hoverGlow   = 16
)

func hoverNode(c color.NRGBA) NodeStyle {
	return NodeStyle{Radius: hoverRadius, Alpha: 1, Color: c, Glow: hoverGlow, GlowColor: c, Label: true, Bold: true}
}

// NodeStyleFor resolves the style of n under mode and filters.
func NodeStyleFor(n *layout.SimNode, mode layout.Mode, f model.Filters, hovered bool) NodeStyle {
	c := RegionColor(n.Exec.Region)
	switch mode.Kind {
	case layout.ModeEgo:
		if n.ID() == mode.Center {
			return NodeStyle{Radius: 14, Alpha: 1, Color: c, Glow: 28, GlowColor: white, Label: true, Bold: true}
		}
		if hovered {
			return hoverNode(c)
		}
		return NodeStyle{Radius: 8, Alpha: 0.85, Color: c, Glow: 6, GlowColor: c, Label: true}
	case layout.ModeFiltered:
		if hovered {
			return hoverNode(c)
		}
		if f.Matches(n.Exec) {
			return NodeStyle{Radius: 7, Alpha: 0.95, Color: c, Glow: 10, GlowColor: c, Label: true}
		}
		return NodeStyle{Radius: 4, Alpha: 0.1, Color: c}
	case layout.ModePreview:
		if hovered {
			return hoverNode(c)
		}
		return NodeStyle{Radius: 7, Alpha: 0.65, Color: c}
	}
	panic("render: unknown mode " + string(mode.Kind))
}

// EdgeStyleFor resolves the style of e (between a and b) under mode and
// filters. hovered is true when either endpoint is hovered.
func EdgeStyleFor(e model.Relationship, a, b *layout.SimNode, mode layout.Mode, f model.Filters, hovered bool) EdgeStyle {
	switch mode.Kind {
	case layout.ModeEgo:
		c := EgoEdgeColor(e.Type)
		if hovered {
			return EdgeStyle{Color: c, Width: 2, Glow: 8, GlowColor: c}
		}
		return EdgeStyle{Color: c, Width: 1.2}
	case layout.ModeFiltered:
		if hovered {
			return hoverEdge()
		}
		if f.Matches(a.Exec) && f.Matches(b.Exec) && f.MatchesRelation(e) {
			return EdgeStyle{Color: EdgeColor(e.Type, color.NRGBA{99, 102, 241, alpha(0.4)}), Width: 1.4}
		}
		return EdgeStyle{Color: edgeDim, Width: 0.5}
	case layout.ModePreview:
		if hovered {
			return hoverEdge()
		}
		return EdgeStyle{Color: EdgeColor(e.Type, color.NRGBA{99, 102, 241, alpha(0.2)}), Width: 1}
	}
	panic("render: unknown mode " + string(mode.Kind))
}

func hoverEdge() EdgeStyle {
	return EdgeStyle{Color: edgeHover, Width: 1.5, Glow: 6, GlowColor: edgeHoverGlow}
}

// CenterRing returns the halo around the ego center node.
func CenterRing(n *layout.SimNode) RingStyle {
	return RingStyle{Radius: 22, Width: 1.5, Alpha: 0.4, Color: RegionColor(n.Exec.Region), Glow: 16}
}

// hasVignette reports whether the mode composites the edge vignette.
func hasVignette(mode layout.Mode) bool {
	switch mode.Kind {
	case layout.ModePreview, layout.ModeFiltered:
		return true
	default:
		return false
	}
}
