package render

import (
	"fmt"
	"image/color"
	"io"

	svg "github.com/ajstarks/svgo/float"
)

// SVGCanvas renders one frame as a vector snapshot.
type SVGCanvas struct {
	canvas *svg.SVG
	w, h   float64
	grads  map[color.NRGBA]string
}

// NewSVGCanvas starts an SVG document of w×h CSS pixels on out. Call Close to
// finish the document.
func NewSVGCanvas(out io.Writer, w, h int) *SVGCanvas {
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	c := &SVGCanvas{
		canvas: svg.New(out),
		w:      float64(w),
		h:      float64(h),
		grads:  make(map[color.NRGBA]string),
	}
	c.canvas.Start(c.w, c.h)
	c.canvas.Def()
	c.canvas.Filter("glow")
	c.canvas.FeGaussianBlur(svg.Filterspec{In: "SourceGraphic", Result: "blur"}, 4, 4)
	c.canvas.FeMerge([]string{"blur", "SourceGraphic"})
	c.canvas.Fend()
	c.canvas.RadialGradient("vignette", 50, 50, 70, 50, 50, []svg.Offcolor{
		{Offset: 38, Color: cssHex(vignetteIn), Opacity: 0},
		{Offset: 100, Color: cssHex(vignetteOut), Opacity: cssOpacity(vignetteOut)},
	})
	for _, rc := range []color.NRGBA{regionCN, regionHK, regionSG} {
		c.gradient(rc)
	}
	c.canvas.DefEnd()
	return c
}

// gradient defines (once) the node highlight gradient for a fill color and
// returns its id. Must only be called while inside <defs>.
func (c *SVGCanvas) gradient(rc color.NRGBA) string {
	if id, ok := c.grads[rc]; ok {
		return id
	}
	id := fmt.Sprintf("node%02x%02x%02x", rc.R, rc.G, rc.B)
	c.canvas.RadialGradient(id, 50, 50, 50, 40, 40, []svg.Offcolor{
		{Offset: 0, Color: cssHex(highlight), Opacity: cssOpacity(highlight)},
		{Offset: 100, Color: cssHex(rc), Opacity: 1},
	})
	c.grads[rc] = id
	return id
}

// Size implements Canvas
func (c *SVGCanvas) Size() (float64, float64) { return c.w, c.h }

// Clear implements Canvas
func (c *SVGCanvas) Clear() {
	c.canvas.Rect(0, 0, c.w, c.h, "fill:"+cssHex(background))
}

// Line implements Canvas
func (c *SVGCanvas) Line(x1, y1, x2, y2 float64, s EdgeStyle) {
	style := fmt.Sprintf("stroke:%s;stroke-opacity:%.2f;stroke-width:%.1f;stroke-linecap:round",
		cssHex(s.Color), cssOpacity(s.Color), s.Width)
	if s.Glow > 0 {
		style += ";filter:url(#glow)"
	}
	c.canvas.Line(x1, y1, x2, y2, style)
}

// Node implements Canvas
func (c *SVGCanvas) Node(x, y float64, s NodeStyle) {
	fill := "fill:" + cssHex(s.Color)
	if id, ok := c.grads[s.Color]; ok {
		fill = "fill:url(#" + id + ")"
	}
	style := fmt.Sprintf("%s;fill-opacity:%.2f", fill, s.Alpha)
	if s.Glow > 0 {
		c.canvas.Circle(x, y, s.Radius+s.Glow/4,
			fmt.Sprintf("fill:%s;fill-opacity:%.2f;filter:url(#glow)", cssHex(s.GlowColor), 0.25*s.Alpha))
	}
	c.canvas.Circle(x, y, s.Radius, style)
}

// Ring implements Canvas
func (c *SVGCanvas) Ring(x, y float64, s RingStyle) {
	style := fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:%.2f;stroke-width:%.1f",
		cssHex(s.Color), s.Alpha, s.Width)
	if s.Glow > 0 {
		style += ";filter:url(#glow)"
	}
	c.canvas.Circle(x, y, s.Radius, style)
}

// Label implements Canvas
func (c *SVGCanvas) Label(x, y float64, text string, bold bool) {
	size, weight, fg := labelSize, "normal", labelText
	if bold {
		size, weight, fg = labelBoldSize, "bold", white
	}
	font := fmt.Sprintf("font-size:%dpx;font-family:sans-serif;font-weight:%s;text-anchor:middle", size, weight)
	c.canvas.Text(x+1, y, text, fmt.Sprintf("fill:#000;fill-opacity:%.2f;%s", cssOpacity(labelShadow), font))
	c.canvas.Text(x, y-1, text, fmt.Sprintf("fill:%s;%s", cssHex(fg), font))
}

// Text implements Canvas
func (c *SVGCanvas) Text(x, y float64, text string, col color.NRGBA) {
	c.canvas.Text(x, y, text, fmt.Sprintf("fill:%s;font-size:%dpx;font-family:sans-serif;dominant-baseline:middle",
		cssHex(col), legendSize))
}

// Panel implements Canvas
func (c *SVGCanvas) Panel(x, y, w, h float64, col color.NRGBA) {
	c.canvas.Roundrect(x, y, w, h, 8, 8, fmt.Sprintf("fill:%s;fill-opacity:%.2f", cssHex(col), cssOpacity(col)))
}

// Vignette implements Canvas
func (c *SVGCanvas) Vignette() {
	c.canvas.Rect(0, 0, c.w, c.h, "fill:url(#vignette)")
}

// Close finishes the SVG document.
func (c *SVGCanvas) Close() {
	c.canvas.End()
}
