// Package interact turns raw pointer events into graph events: hit testing,
// hover tracking and click dispatch.
package interact

import (
	"math"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

// Default hit radii in CSS pixels
const (
	DefaultHitRadius    = 18
	DefaultCenterRadius = 26
)

// Cursor is the pointer feedback the host should show.
type Cursor string

const (
	CursorDefault Cursor = "default"
	CursorPointer Cursor = "pointer"
)

// EventKind tags a click outcome.
type EventKind int

const (
	EventNone EventKind = iota
	EventSelect
	EventDeselect
)

// Event is the result of a click.
type Event struct {
	Kind EventKind
	Node model.Executive // Set for EventSelect
}

// HitTest returns the node nearest to (x, y) among those strictly within
// their hit radius, or nil. The pinned ego center uses centerRadius.
// Positions are read live, so the result is only valid for this instant.
func HitTest(sim *layout.Sim, x, y, radius, centerRadius float64) *layout.SimNode {
	centerID, ego := sim.Center()
	var best *layout.SimNode
	bestD := math.Inf(1)
	for _, n := range sim.Nodes() {
		limit := radius
		if ego && n.ID() == centerID {
			limit = centerRadius
		}
		d := math.Hypot(x-n.X, y-n.Y)
		if d < limit && d < bestD {
			best, bestD = n, d
		}
	}
	return best
}

// Layer dispatches pointer events against a simulation. The callbacks are
// optional.
type Layer struct {
	Radius       float64
	CenterRadius float64

	// DeselectOnBackground emits a deselect when a click hits no node.
	DeselectOnBackground bool

	OnNodeClick func(model.Executive)
	OnDeselect  func()
	OnHover     func(*model.Executive)
}

// NewLayer returns a layer with the default radii that deselects on
// background clicks.
func NewLayer() *Layer {
	return &Layer{
		Radius:               DefaultHitRadius,
		CenterRadius:         DefaultCenterRadius,
		DeselectOnBackground: true,
	}
}

func (l *Layer) hit(sim *layout.Sim, x, y float64) *layout.SimNode {
	r, cr := l.Radius, l.CenterRadius
	if r <= 0 {
		r = DefaultHitRadius
	}
	if cr <= 0 {
		cr = r
	}
	return HitTest(sim, x, y, r, cr)
}

// Move handles pointer motion: it writes the hovered id into sim, reports the
// hovered executive to OnHover and returns the cursor to show.
func (l *Layer) Move(sim *layout.Sim, x, y float64) (Cursor, *model.Executive) {
	n := l.hit(sim, x, y)
	if n == nil {
		sim.HoverID = nil
		if l.OnHover != nil {
			l.OnHover(nil)
		}
		return CursorDefault, nil
	}
	id := n.ID()
	sim.HoverID = &id
	exec := n.Exec
	if l.OnHover != nil {
		l.OnHover(&exec)
	}
	return CursorPointer, &exec
}

// Leave clears hover when the pointer leaves the canvas.
func (l *Layer) Leave(sim *layout.Sim) {
	sim.HoverID = nil
	if l.OnHover != nil {
		l.OnHover(nil)
	}
}

// Click handles a pointer click and returns the resulting event.
func (l *Layer) Click(sim *layout.Sim, x, y float64) Event {
	if n := l.hit(sim, x, y); n != nil {
		if l.OnNodeClick != nil {
			l.OnNodeClick(n.Exec)
		}
		return Event{Kind: EventSelect, Node: n.Exec}
	}
	if !l.DeselectOnBackground {
		return Event{Kind: EventNone}
	}
	if l.OnDeselect != nil {
		l.OnDeselect()
	}
	return Event{Kind: EventDeselect}
}
