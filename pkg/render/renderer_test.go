package render

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

type nodeCall struct {
	x, y  float64
	style NodeStyle
}

type lineCall struct {
	x1, y1, x2, y2 float64
	style          EdgeStyle
}

// recorder is a Canvas that records draw calls.
type recorder struct {
	w, h     float64
	clears   int
	nodes    []nodeCall
	lines    []lineCall
	rings    []RingStyle
	labels   []string
	texts    []string
	vignette int
	order    []string
}

func newRecorder() *recorder { return &recorder{w: 1280, h: 800} }

func (r *recorder) Size() (float64, float64) { return r.w, r.h }
func (r *recorder) Clear()                   { r.clears++; r.order = append(r.order, "clear") }
func (r *recorder) Line(x1, y1, x2, y2 float64, s EdgeStyle) {
	r.lines = append(r.lines, lineCall{x1, y1, x2, y2, s})
	r.order = append(r.order, "line")
}
func (r *recorder) Node(x, y float64, s NodeStyle) {
	r.nodes = append(r.nodes, nodeCall{x, y, s})
	r.order = append(r.order, "node")
}
func (r *recorder) Ring(x, y float64, s RingStyle) {
	r.rings = append(r.rings, s)
	r.order = append(r.order, "ring")
}
func (r *recorder) Label(x, y float64, text string, bold bool) {
	r.labels = append(r.labels, text)
	r.order = append(r.order, "label")
}
func (r *recorder) Text(x, y float64, text string, c color.NRGBA) { r.texts = append(r.texts, text) }
func (r *recorder) Panel(x, y, w, h float64, c color.NRGBA)       {}
func (r *recorder) Vignette()                                     { r.vignette++; r.order = append(r.order, "vignette") }

func (r *recorder) nodeAt(x, y float64) (NodeStyle, bool) {
	for _, n := range r.nodes {
		if n.x == x && n.y == y {
			return n.style, true
		}
	}
	return NodeStyle{}, false
}

func simWith(center *int64, nodes ...*layout.SimNode) *layout.Sim {
	return layout.NewSim(nodes, nil, center)
}

func TestFilterEmphasis(t *testing.T) {
	cn := &layout.SimNode{Exec: model.Executive{ID: 1, Name: "Wang", Region: model.RegionCN}, X: 100, Y: 100}
	hk := &layout.SimNode{Exec: model.Executive{ID: 2, Name: "Chan", Region: model.RegionHK}, X: 300, Y: 300}
	sim := simWith(nil, cn, hk)
	sim.Edges = []model.Relationship{{ID: 1, SourceID: 1, TargetID: 2, Type: model.RelColleague}}

	rec := newRecorder()
	mode := NewRenderer().Draw(rec, sim, model.Filters{Region: model.RegionCN})
	if mode.Kind != layout.ModeFiltered {
		t.Fatalf("mode = %v, want filtered", mode)
	}

	cnStyle, _ := rec.nodeAt(100, 100)
	hkStyle, _ := rec.nodeAt(300, 300)
	if cnStyle.Alpha < 0.9 || cnStyle.Glow == 0 || !cnStyle.Label {
		t.Errorf("CN node should be fully emphasized, got %+v", cnStyle)
	}
	if hkStyle.Alpha > 0.2 || hkStyle.Glow != 0 || hkStyle.Label {
		t.Errorf("HK node should be dimmed, got %+v", hkStyle)
	}
	if len(rec.labels) != 1 || rec.labels[0] != "Wang" {
		t.Errorf("labels = %v, want only the matching node", rec.labels)
	}
	if rec.lines[0].style.Color != edgeDim {
		t.Errorf("edge to a non-matching node should be dimmed, got %+v", rec.lines[0].style)
	}
	if rec.vignette != 1 {
		t.Errorf("vignette drawn %d times, want 1", rec.vignette)
	}
}

func TestHoverAlwaysMaxEmphasis(t *testing.T) {
	hk := &layout.SimNode{Exec: model.Executive{ID: 2, Name: "Chan", Region: model.RegionHK}, X: 300, Y: 300}
	sim := simWith(nil, hk)
	id := int64(2)
	sim.HoverID = &id

	rec := newRecorder()
	NewRenderer().Draw(rec, sim, model.Filters{Region: model.RegionCN})
	s, _ := rec.nodeAt(300, 300)
	if s.Radius != hoverRadius || s.Alpha != 1 || s.Glow != hoverGlow || !s.Bold {
		t.Errorf("hovered non-matching node should get max emphasis, got %+v", s)
	}
}

func TestIdleStyles(t *testing.T) {
	a := &layout.SimNode{Exec: model.Executive{ID: 1, Name: "a", Region: model.RegionSG}, X: 10, Y: 10}
	b := &layout.SimNode{Exec: model.Executive{ID: 2, Name: "b"}, X: 50, Y: 50}
	sim := layout.NewSim([]*layout.SimNode{a, b}, []model.Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: model.RelAlumni},
		{ID: 2, SourceID: 1, TargetID: 404, Type: model.RelFormer},
	}, nil)

	rec := newRecorder()
	mode := NewRenderer().Draw(rec, sim, model.NoFilters())
	if mode.Kind != layout.ModePreview {
		t.Fatalf("mode = %v, want preview", mode)
	}
	if len(rec.lines) != 1 {
		t.Fatalf("drew %d edges, want 1 (dangling edge skipped)", len(rec.lines))
	}
	if got := rec.lines[0].style; got.Color != edgeAlumni || got.Width != 1 {
		t.Errorf("idle edge style = %+v", got)
	}
	s, _ := rec.nodeAt(10, 10)
	if s.Radius != 7 || s.Alpha != 0.65 || s.Glow != 0 || s.Label {
		t.Errorf("idle node style = %+v", s)
	}
	if s.Color != regionSG {
		t.Errorf("SG node color = %v", s.Color)
	}
	if s2, _ := rec.nodeAt(50, 50); s2.Color != regionCN {
		t.Errorf("empty region should fall back to CN color, got %v", s2.Color)
	}
	if rec.order[0] != "clear" || rec.order[len(rec.order)-1] != "vignette" {
		t.Errorf("frame should start with clear and end with vignette: %v", rec.order)
	}
}

func TestEgoStyles(t *testing.T) {
	center := int64(1)
	c := &layout.SimNode{Exec: model.Executive{ID: 1, Name: "Center"}}
	c.Pin(640, 400)
	n2 := &layout.SimNode{Exec: model.Executive{ID: 2, Name: "Two", Region: model.RegionHK}, X: 500, Y: 400}
	n3 := &layout.SimNode{Exec: model.Executive{ID: 3, Name: "Three"}, X: 700, Y: 300}
	sim := layout.NewSim([]*layout.SimNode{c, n2, n3}, []model.Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: model.RelColleague},
		{ID: 2, SourceID: 1, TargetID: 3, Type: model.RelFormer},
	}, &center)
	hover := int64(3)
	sim.HoverID = &hover

	rec := newRecorder()
	mode := NewRenderer().Draw(rec, sim, model.Filters{Region: model.RegionSG})
	if mode.Kind != layout.ModeEgo || mode.Center != 1 {
		t.Fatalf("mode = %v, want ego(1)", mode)
	}
	if rec.vignette != 0 {
		t.Error("ego mode should not draw the vignette")
	}

	last := rec.nodes[len(rec.nodes)-1]
	if last.x != 640 || last.y != 400 {
		t.Errorf("center should be drawn last, last node at (%v,%v)", last.x, last.y)
	}
	if last.style.Radius != 14 || last.style.Glow != 28 || last.style.GlowColor != white {
		t.Errorf("center style = %+v", last.style)
	}
	if len(rec.rings) != 1 || rec.rings[0].Radius != 22 || rec.rings[0].Alpha != 0.4 {
		t.Errorf("center ring = %+v", rec.rings)
	}

	neighbor, _ := rec.nodeAt(500, 400)
	if neighbor.Radius != 8 || neighbor.Alpha != 0.85 || !neighbor.Label || neighbor.Glow != 6 {
		t.Errorf("neighbor style = %+v", neighbor)
	}
	hovered, _ := rec.nodeAt(700, 300)
	if hovered.Radius != 11 || !hovered.Bold {
		t.Errorf("hovered neighbor style = %+v", hovered)
	}

	if rec.lines[0].style.Color != egoEdgeColleague || rec.lines[0].style.Width != 1.2 {
		t.Errorf("ego edge = %+v", rec.lines[0].style)
	}
	if rec.lines[1].style.Width != 2 || rec.lines[1].style.Glow != 8 {
		t.Errorf("hovered ego edge = %+v", rec.lines[1].style)
	}

	joined := strings.Join(rec.texts, "|")
	if !strings.Contains(joined, "colleague (1)") || !strings.Contains(joined, "former (1)") ||
		!strings.Contains(joined, "3 people · 2 relations") {
		t.Errorf("legend texts = %v", rec.texts)
	}
}

func TestEdgeStyleFor_FilteredRelation(t *testing.T) {
	a := &layout.SimNode{Exec: model.Executive{ID: 1, Region: model.RegionCN}}
	b := &layout.SimNode{Exec: model.Executive{ID: 2, Region: model.RegionCN}}
	mode := layout.Mode{Kind: layout.ModeFiltered}
	f := model.Filters{RelationType: model.RelAlumni}

	match := EdgeStyleFor(model.Relationship{Type: model.RelAlumni}, a, b, mode, f, false)
	if match.Width != 1.4 || match.Color != edgeAlumni {
		t.Errorf("matching edge = %+v", match)
	}
	miss := EdgeStyleFor(model.Relationship{Type: model.RelColleague}, a, b, mode, f, false)
	if miss.Width != 0.5 || miss.Color != edgeDim {
		t.Errorf("non-matching edge = %+v", miss)
	}
	hov := EdgeStyleFor(model.Relationship{Type: model.RelColleague}, a, b, mode, f, true)
	if hov.Color != edgeHover || hov.Glow != 6 {
		t.Errorf("hovered edge = %+v", hov)
	}
}

func TestSVGCanvas(t *testing.T) {
	var buf bytes.Buffer
	c := NewSVGCanvas(&buf, 400, 300)
	a := &layout.SimNode{Exec: model.Executive{ID: 1, Name: "Alice"}, X: 100, Y: 100}
	b := &layout.SimNode{Exec: model.Executive{ID: 2, Name: "Bob", Region: model.RegionHK}, X: 200.25, Y: 150.5}
	sim := layout.NewSim([]*layout.SimNode{a, b}, []model.Relationship{{ID: 1, SourceID: 1, TargetID: 2, Type: model.RelColleague}}, nil)
	id := int64(1)
	sim.HoverID = &id

	NewRenderer().Draw(c, sim, model.NoFilters())
	c.Close()

	out := buf.String()
	// Sub-pixel positions are kept rather than rounded.
	for _, want := range []string{"<svg", `width="400.00"`, `cx="200.25" cy="150.50"`, "<line", "Alice", "url(#vignette)", "</svg>"} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q", want)
		}
	}
}
