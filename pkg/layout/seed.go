package layout

import (
	"math"
	"math/rand"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// SeedPreview builds a preview simulation from fetched data, reconciling
// against prev by executive id. Nodes present in prev keep their position and
// velocity and are unpinned; new arrivals are scattered inside the canvas
// minus the margin with a small random velocity. prev may be nil.
func SeedPreview(prev *Sim, data model.GraphData, p Params, w, h float64, rng *rand.Rand) *Sim {
	var old map[int64]*SimNode
	if prev != nil {
		old = prev.byID
	}
	nodes := make([]*SimNode, 0, len(data.Nodes))
	for _, exec := range data.Nodes {
		if o, ok := old[exec.ID]; ok {
			nodes = append(nodes, &SimNode{
				Exec: exec,
				X:    o.X,
				Y:    o.Y,
				VX:   o.VX,
				VY:   o.VY,
			})
			continue
		}
		nodes = append(nodes, &SimNode{
			Exec: exec,
			X:    p.Margin + rng.Float64()*(w-2*p.Margin),
			Y:    p.Margin + rng.Float64()*(h-2*p.Margin),
			VX:   (rng.Float64() - 0.5) * 2,
			VY:   (rng.Float64() - 0.5) * 2,
		})
	}
	return NewSim(nodes, data.Edges, nil)
}

// SeedEgo builds an ego simulation around center. The center node is pinned at
// the canvas middle and every other node is placed on a ring at a random angle
// and a radius in [RingRadius, RingRadius+RingSpread).
func SeedEgo(data model.GraphData, center int64, p Params, w, h float64, rng *rand.Rand) *Sim {
	cx, cy := w/2, h/2
	nodes := make([]*SimNode, 0, len(data.Nodes))
	for _, exec := range data.Nodes {
		n := &SimNode{Exec: exec}
		if exec.ID == center {
			n.Pin(cx, cy)
			nodes = append(nodes, n)
			continue
		}
		angle := rng.Float64() * 2 * math.Pi
		r := p.RingRadius + rng.Float64()*p.RingSpread
		n.X = cx + math.Cos(angle)*r
		n.Y = cy + math.Sin(angle)*r
		n.VX = (rng.Float64() - 0.5) * 2
		n.VY = (rng.Float64() - 0.5) * 2
		nodes = append(nodes, n)
	}
	return NewSim(nodes, data.Edges, &center)
}
