package render

import (
	"fmt"
	"image/color"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// Region node colors
var (
	regionCN = color.NRGBA{0x3b, 0x82, 0xf6, 0xff} // Blue
	regionHK = color.NRGBA{0x8b, 0x5c, 0xf6, 0xff} // Violet
	regionSG = color.NRGBA{0x10, 0xb9, 0x81, 0xff} // Emerald
)

// Edge colors per relationship type. Preview edges are translucent; ego edges
// are near-opaque.
var (
	edgeColleague = color.NRGBA{99, 102, 241, alpha(0.25)}
	edgeAlumni    = color.NRGBA{245, 158, 11, alpha(0.20)}
	edgeFormer    = color.NRGBA{139, 92, 246, alpha(0.20)}

	egoEdgeColleague = color.NRGBA{99, 102, 241, alpha(0.85)}
	egoEdgeAlumni    = color.NRGBA{245, 158, 11, alpha(0.85)}
	egoEdgeFormer    = color.NRGBA{167, 139, 250, alpha(0.85)}

	edgeHover     = color.NRGBA{148, 163, 184, alpha(0.8)}
	edgeHoverGlow = color.NRGBA{0x94, 0xa3, 0xb8, 0xff}
	edgeDim       = color.NRGBA{255, 255, 255, alpha(0.03)}
)

// Text, background and overlay colors
var (
	background  = color.NRGBA{9, 9, 11, 0xff}
	vignetteIn  = color.NRGBA{9, 9, 11, 0}
	vignetteOut = color.NRGBA{9, 9, 11, alpha(0.94)}
	highlight   = color.NRGBA{255, 255, 255, alpha(0.55)}
	white       = color.NRGBA{255, 255, 255, 0xff}
	labelShadow = color.NRGBA{0, 0, 0, alpha(0.7)}
	labelText   = color.NRGBA{0xcb, 0xd5, 0xe1, 0xff} // slate-300
	legendText  = color.NRGBA{0xa1, 0xa1, 0xaa, 0xff} // zinc-400
	legendTitle = color.NRGBA{0xd4, 0xd4, 0xd8, 0xff} // zinc-300
	legendPanel = color.NRGBA{0x18, 0x18, 0x1b, alpha(0.8)}
)

// RegionColor returns the node color for a region. Unknown and empty regions
// render with the CN color.
func RegionColor(r model.Region) color.NRGBA {
	switch r {
	case model.RegionHK:
		return regionHK
	case model.RegionSG:
		return regionSG
	default:
		return regionCN
	}
}

// EdgeColor returns the translucent preview color for a relationship type.
func EdgeColor(t model.RelationType, fallback color.NRGBA) color.NRGBA {
	switch t {
	case model.RelColleague:
		return edgeColleague
	case model.RelAlumni:
		return edgeAlumni
	case model.RelFormer:
		return edgeFormer
	default:
		return fallback
	}
}

// EgoEdgeColor returns the ego-mode color for a relationship type.
func EgoEdgeColor(t model.RelationType) color.NRGBA {
	switch t {
	case model.RelColleague:
		return egoEdgeColleague
	case model.RelAlumni:
		return egoEdgeAlumni
	case model.RelFormer:
		return egoEdgeFormer
	default:
		return color.NRGBA{99, 102, 241, alpha(0.6)}
	}
}

func alpha(a float64) uint8 {
	if a <= 0 {
		return 0
	}
	if a >= 1 {
		return 0xff
	}
	return uint8(a*255 + 0.5)
}

// withAlpha scales the color's alpha by a.
func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = alpha(float64(c.A) / 255 * a)
	return c
}

// lerpColor linearly interpolates between two colors
func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(float64(a.R) + t*(float64(b.R)-float64(a.R))),
		G: uint8(float64(a.G) + t*(float64(b.G)-float64(a.G))),
		B: uint8(float64(a.B) + t*(float64(b.B)-float64(a.B))),
		A: uint8(float64(a.A) + t*(float64(b.A)-float64(a.A))),
	}
}

func cssHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func cssOpacity(c color.NRGBA) float64 {
	return float64(c.A) / 255
}
