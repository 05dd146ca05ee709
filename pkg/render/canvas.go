package render

import "image/color"

// Default viewport used when the host reports a zero-sized container.
const (
	DefaultWidth  = 1280
	DefaultHeight = 800
)

// Canvas is a drawing surface in CSS pixel coordinates. Implementations own
// any device pixel ratio scaling.
type Canvas interface {
	// Size returns the logical size in CSS pixels.
	Size() (w, h float64)
	// Clear replaces the previous frame.
	Clear()
	Line(x1, y1, x2, y2 float64, s EdgeStyle)
	// Node draws a filled circle with a radial highlight toward the top-left.
	Node(x, y float64, s NodeStyle)
	Ring(x, y float64, s RingStyle)
	// Label draws text centered on x with its baseline at y, over a drop shadow.
	Label(x, y float64, text string, bold bool)
	Text(x, y float64, text string, c color.NRGBA)
	Panel(x, y, w, h float64, c color.NRGBA)
	// Vignette darkens the frame edges.
	Vignette()
}
