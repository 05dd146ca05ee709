package ui

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// CellPx is the canvas width of one terminal cell. A cell shows two stacked
// pixels, so its canvas height is 2*CellPx.
const CellPx = 8

// CanvasSize returns the canvas dimensions that fill cols×rows cells.
func CanvasSize(cols, rows int) (int, int) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	return cols * CellPx, rows * 2 * CellPx
}

// CellToCanvas maps a terminal cell to the canvas point at its center.
func CellToCanvas(col, row, cols, rows int, w, h float64) (float64, float64) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	x := (float64(col) + 0.5) * w / float64(cols)
	y := (float64(row) + 0.5) * h / float64(rows)
	return x, y
}

// Screen downsamples raster frames to half-block terminal cells.
type Screen struct {
	buf    *image.RGBA
	scaler draw.Scaler
	sb     strings.Builder
}

// NewScreen returns a screen using bilinear downsampling.
func NewScreen() *Screen {
	return &Screen{scaler: draw.ApproxBiLinear}
}

// Render draws src into cols×rows cells. Each cell is an upper half block
// whose foreground is the top pixel and background the bottom one.
func (s *Screen) Render(src image.Image, cols, rows int) string {
	if cols <= 0 || rows <= 0 || src == nil {
		return ""
	}
	bounds := image.Rect(0, 0, cols, rows*2)
	if s.buf == nil || s.buf.Bounds() != bounds {
		s.buf = image.NewRGBA(bounds)
	}
	s.scaler.Scale(s.buf, bounds, src, src.Bounds(), draw.Src, nil)

	s.sb.Reset()
	s.sb.Grow(cols * rows * 20)
	for row := 0; row < rows; row++ {
		var fg, bg color.RGBA
		first := true
		for col := 0; col < cols; col++ {
			top := s.buf.RGBAAt(col, row*2)
			bottom := s.buf.RGBAAt(col, row*2+1)
			if first || top != fg {
				writeColor(&s.sb, 38, top)
				fg = top
			}
			if first || bottom != bg {
				writeColor(&s.sb, 48, bottom)
				bg = bottom
			}
			first = false
			s.sb.WriteString("▀")
		}
		s.sb.WriteString("\x1b[0m")
		if row < rows-1 {
			s.sb.WriteByte('\n')
		}
	}
	return s.sb.String()
}

// writeColor emits a 24-bit SGR color; layer is 38 (fg) or 48 (bg).
func writeColor(sb *strings.Builder, layer int, c color.RGBA) {
	var b [24]byte
	out := append(b[:0], "\x1b["...)
	out = strconv.AppendInt(out, int64(layer), 10)
	out = append(out, ";2;"...)
	out = strconv.AppendInt(out, int64(c.R), 10)
	out = append(out, ';')
	out = strconv.AppendInt(out, int64(c.G), 10)
	out = append(out, ';')
	out = strconv.AppendInt(out, int64(c.B), 10)
	out = append(out, 'm')
	sb.Write(out)
}
