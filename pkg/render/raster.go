package render

import (
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Label sizes in CSS pixels
const (
	labelSize     = 9
	labelBoldSize = 12
	legendSize    = 11
)

var (
	facesOnce sync.Once
	faceLabel font.Face
	faceBold  font.Face
	faceSmall font.Face
)

func loadFaces() {
	facesOnce.Do(func() {
		faceLabel = newFace(goregular.TTF, labelSize)
		faceBold = newFace(gobold.TTF, labelBoldSize)
		faceSmall = newFace(goregular.TTF, legendSize)
	})
}

func newFace(ttf []byte, size float64) font.Face {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Raster is a gg backed frame buffer. Drawing coordinates are CSS pixels;
// the backing store is scaled by the device pixel ratio.
type Raster struct {
	dc   *gg.Context
	w, h int
	dpr  float64
	pixW int
	pixH int
}

// NewRaster allocates a raster of w×h CSS pixels at the given pixel ratio.
func NewRaster(w, h int, dpr float64) *Raster {
	loadFaces()
	r := &Raster{}
	r.Resize(w, h, dpr)
	return r
}

// Resize recreates the backing store at w*dpr × h*dpr and resets the
// transform to scale(dpr). Zero or negative sizes fall back to the default
// viewport; a non-positive dpr is treated as 1. Calling it again with the
// same arguments only resets the transform. It returns true when the
// backing store was reallocated.
func (r *Raster) Resize(w, h int, dpr float64) bool {
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	if dpr <= 0 || math.IsNaN(dpr) || math.IsInf(dpr, 0) {
		dpr = 1
	}
	pixW := max(1, int(math.Ceil(float64(w)*dpr)))
	pixH := max(1, int(math.Ceil(float64(h)*dpr)))

	realloc := r.dc == nil || pixW != r.pixW || pixH != r.pixH
	if realloc {
		r.dc = gg.NewContext(pixW, pixH)
		r.pixW, r.pixH = pixW, pixH
	}
	r.w, r.h, r.dpr = w, h, dpr
	r.dc.Identity()
	r.dc.Scale(dpr, dpr)
	return realloc
}

// Size implements Canvas
func (r *Raster) Size() (float64, float64) {
	return float64(r.w), float64(r.h)
}

// PixelSize returns the backing store dimensions.
func (r *Raster) PixelSize() (int, int) {
	return r.pixW, r.pixH
}

// DPR returns the current device pixel ratio.
func (r *Raster) DPR() float64 { return r.dpr }

// Clear implements Canvas
func (r *Raster) Clear() {
	r.dc.SetColor(background)
	r.dc.Clear()
}

// Line implements Canvas
func (r *Raster) Line(x1, y1, x2, y2 float64, s EdgeStyle) {
	dc := r.dc
	dc.SetLineCapRound()
	if s.Glow > 0 {
		for i := 2; i > 0; i-- {
			dc.SetColor(withAlpha(s.GlowColor, 0.12*float64(i)))
			dc.SetLineWidth((s.Width + s.Glow*float64(i)/2) * r.dpr)
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
		}
	}
	dc.SetColor(s.Color)
	dc.SetLineWidth(s.Width * r.dpr)
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()
}

// Node implements Canvas
func (r *Raster) Node(x, y float64, s NodeStyle) {
	dc := r.dc
	if s.Glow > 0 {
		for i := 3; i > 0; i-- {
			dc.SetColor(withAlpha(s.GlowColor, s.Alpha*0.08*float64(4-i)))
			dc.DrawCircle(x, y, s.Radius+s.Glow*float64(i)/6)
			dc.Fill()
		}
	}

	// Gradient coordinates are in device space.
	hx, hy := dc.TransformPoint(x-1, y-1)
	cx, cy := dc.TransformPoint(x, y)
	grad := gg.NewRadialGradient(hx, hy, 0, cx, cy, s.Radius*r.dpr)
	grad.AddColorStop(0, withAlpha(highlight, s.Alpha))
	grad.AddColorStop(1, withAlpha(s.Color, s.Alpha))
	dc.SetFillStyle(grad)
	dc.DrawCircle(x, y, s.Radius)
	dc.Fill()
}

// Ring implements Canvas
func (r *Raster) Ring(x, y float64, s RingStyle) {
	dc := r.dc
	if s.Glow > 0 {
		dc.SetColor(withAlpha(s.Color, s.Alpha*0.25))
		dc.SetLineWidth((s.Width + s.Glow/2) * r.dpr)
		dc.DrawCircle(x, y, s.Radius)
		dc.Stroke()
	}
	dc.SetColor(withAlpha(s.Color, s.Alpha))
	dc.SetLineWidth(s.Width * r.dpr)
	dc.DrawCircle(x, y, s.Radius)
	dc.Stroke()
}

// Label implements Canvas
func (r *Raster) Label(x, y float64, text string, bold bool) {
	dc := r.dc
	fg := labelText
	if bold {
		dc.SetFontFace(faceBold)
		fg = white
	} else {
		dc.SetFontFace(faceLabel)
	}
	dc.SetColor(labelShadow)
	dc.DrawStringAnchored(text, x+1, y, 0.5, 0)
	dc.SetColor(fg)
	dc.DrawStringAnchored(text, x, y-1, 0.5, 0)
}

// Text implements Canvas
func (r *Raster) Text(x, y float64, text string, c color.NRGBA) {
	r.dc.SetFontFace(faceSmall)
	r.dc.SetColor(c)
	r.dc.DrawStringAnchored(text, x, y, 0, 0.5)
}

// Panel implements Canvas
func (r *Raster) Panel(x, y, w, h float64, c color.NRGBA) {
	r.dc.SetColor(c)
	r.dc.DrawRoundedRectangle(x, y, w, h, 8)
	r.dc.Fill()
}

// Vignette implements Canvas
func (r *Raster) Vignette() {
	w, h := float64(r.w), float64(r.h)
	cx, cy := r.dc.TransformPoint(w/2, h/2)
	inner := math.Min(w, h) * 0.3 * r.dpr
	outer := math.Max(w, h) * 0.78 * r.dpr
	grad := gg.NewRadialGradient(cx, cy, inner, cx, cy, outer)
	grad.AddColorStop(0, vignetteIn)
	grad.AddColorStop(1, vignetteOut)
	r.dc.SetFillStyle(grad)
	r.dc.DrawRectangle(0, 0, w, h)
	r.dc.Fill()
}

// Image returns the current frame at backing-store resolution.
func (r *Raster) Image() image.Image {
	return r.dc.Image()
}

// At returns the backing-store pixel under the CSS point (x, y).
func (r *Raster) At(x, y float64) color.Color {
	px, py := r.dc.TransformPoint(x, y)
	return r.dc.Image().At(int(px), int(py))
}

// SavePNG writes the current frame to path.
func (r *Raster) SavePNG(path string) error {
	return r.dc.SavePNG(path)
}

// EncodePNG writes the current frame to w.
func (r *Raster) EncodePNG(w io.Writer) error {
	return r.dc.EncodePNG(w)
}
