package layout

import (
	"errors"
	"math"
)

// Params configures the force simulation
type Params struct {
	Repulsion       float64 `yaml:"repulsion" validate:"gt=0"`
	RepulsionCutoff float64 `yaml:"repulsion_cutoff" validate:"gt=0"` // squared px; pairs farther apart are skipped
	SpringK         float64 `yaml:"spring_k" validate:"gt=0"`
	SpringLen       float64 `yaml:"spring_len" validate:"gt=0"`
	Gravity         float64 `yaml:"gravity" validate:"gte=0"`
	EgoGravity      float64 `yaml:"ego_gravity" validate:"gte=0"`
	Damping         float64 `yaml:"damping" validate:"gt=0,lt=1"`
	MaxVelocity     float64 `yaml:"max_velocity" validate:"gt=0"` // per axis
	Epsilon         float64 `yaml:"epsilon" validate:"gt=0"`
	MaxTicks        int     `yaml:"max_ticks" validate:"gt=0"`

	// ClampToBounds keeps preview nodes inside the canvas.
	ClampToBounds bool `yaml:"clamp_to_bounds"`

	// Seeding geometry.
	Margin     float64 `yaml:"margin" validate:"gte=0"`
	RingRadius float64 `yaml:"ring_radius" validate:"gte=0"`
	RingSpread float64 `yaml:"ring_spread" validate:"gte=0"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Repulsion:       2200,
		RepulsionCutoff: 80000,
		SpringK:         0.006,
		SpringLen:       150,
		Gravity:         0.0009,
		EgoGravity:      0.004,
		Damping:         0.88,
		MaxVelocity:     8,
		Epsilon:         0.01,
		MaxTicks:        300,
		Margin:          60,
		RingRadius:      110,
		RingSpread:      130,
	}
}

// Validate checks the invariants the integrator relies on.
func (p Params) Validate() error {
	if p.Damping <= 0 || p.Damping >= 1 {
		return errors.New("damping must be in (0,1)")
	}
	if p.MaxVelocity <= 0 {
		return errors.New("max velocity must be positive")
	}
	if p.Epsilon <= 0 {
		return errors.New("epsilon must be positive")
	}
	if p.MaxTicks <= 0 {
		return errors.New("max ticks must be positive")
	}
	return nil
}

// Vec is a 2D force or velocity delta.
type Vec struct {
	X, Y float64
}

// RepulsionBetween returns the repulsive force on a and on b. Both are zero
// beyond the cutoff; otherwise they are equal and opposite.
func RepulsionBetween(a, b *SimNode, p Params) (fa, fb Vec) {
	dx, dy := b.X-a.X, b.Y-a.Y
	d2 := dx*dx + dy*dy
	if d2 > p.RepulsionCutoff {
		return Vec{}, Vec{}
	}
	d := math.Max(math.Sqrt(d2), p.Epsilon)
	f := p.Repulsion / (d * d)
	ux, uy := dx/d*f, dy/d*f
	return Vec{-ux, -uy}, Vec{ux, uy}
}

// spring returns the force on a pulling it toward (or pushing it from) b.
func spring(a, b *SimNode, p Params) Vec {
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Max(math.Sqrt(dx*dx+dy*dy), p.Epsilon)
	f := p.SpringK * (d - p.SpringLen)
	return Vec{dx / d * f, dy / d * f}
}

// gravityTarget is the point unpinned nodes are pulled toward.
func gravityTarget(s *Sim, w, h float64) (x, y float64, ego bool) {
	x, y = w/2, h/2
	id, ok := s.Center()
	if !ok {
		return x, y, false
	}
	if c, ok := s.Node(id); ok && c.Pinned {
		x, y = c.FX, c.FY
	}
	return x, y, true
}

// Forces computes the velocity increment each node receives in one tick,
// in Nodes() order, without integrating. Pinned nodes always get zero.
func Forces(s *Sim, p Params, w, h float64) []Vec {
	nodes := s.nodes
	acc := make([]Vec, len(nodes))
	index := make(map[*SimNode]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			fa, fb := RepulsionBetween(a, b, p)
			if !a.Pinned {
				acc[i].X += fa.X
				acc[i].Y += fa.Y
			}
			if !b.Pinned {
				acc[j].X += fb.X
				acc[j].Y += fb.Y
			}
		}
	}

	for _, e := range s.Edges {
		a, b, ok := s.Endpoints(e)
		if !ok || a == b {
			continue
		}
		f := spring(a, b, p)
		if !a.Pinned {
			acc[index[a]].X += f.X
			acc[index[a]].Y += f.Y
		}
		if !b.Pinned {
			acc[index[b]].X -= f.X
			acc[index[b]].Y -= f.Y
		}
	}

	gx, gy, ego := gravityTarget(s, w, h)
	k := p.Gravity
	if ego {
		k = p.EgoGravity
	}
	for i, n := range nodes {
		if n.Pinned {
			continue
		}
		acc[i].X += (gx - n.X) * k
		acc[i].Y += (gy - n.Y) * k
	}
	return acc
}

// Step advances every unpinned node by one tick.
func Step(s *Sim, p Params, w, h float64) {
	acc := Forces(s, p, w, h)
	_, ego := s.Center()
	for i, n := range s.nodes {
		if n.Pinned {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX = clamp((n.VX+acc[i].X)*p.Damping, -p.MaxVelocity, p.MaxVelocity)
		n.VY = clamp((n.VY+acc[i].Y)*p.Damping, -p.MaxVelocity, p.MaxVelocity)
		n.X += n.VX
		n.Y += n.VY
		if p.ClampToBounds && !ego {
			n.X = clamp(n.X, 0, w)
			n.Y = clamp(n.Y, 0, h)
		}
	}
}

// Advance runs one tick unless the settling budget is spent. It returns true
// when physics ran. The frame counter saturates at MaxTicks.
func Advance(s *Sim, p Params, w, h float64) bool {
	if s.Frame >= p.MaxTicks {
		return false
	}
	Step(s, p, w, h)
	s.Frame++
	return true
}

// Settled reports whether the settling budget is spent.
func Settled(s *Sim, p Params) bool {
	return s.Frame >= p.MaxTicks
}

// Settle runs ticks until the budget is spent and returns how many ran.
func Settle(s *Sim, p Params, w, h float64) int {
	n := 0
	for Advance(s, p, w, h) {
		n++
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
