// Package layout holds the simulation state of the relationship graph and the
// force engine that moves it.
package layout

import (
	"fmt"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// SimNode wraps an executive with its simulation attributes.
type SimNode struct {
	Exec model.Executive

	X, Y   float64 // Position in CSS pixels
	VX, VY float64 // Velocity per tick

	// Pinned nodes are held at (FX, FY) and never integrate forces.
	Pinned bool
	FX, FY float64
}

// ID returns the executive id of the node.
func (n *SimNode) ID() int64 { return n.Exec.ID }

// Pin fixes the node at (x, y) and stops it.
func (n *SimNode) Pin(x, y float64) {
	n.Pinned = true
	n.FX, n.FY = x, y
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
}

// Unpin releases a fixed node back to the force engine.
func (n *SimNode) Unpin() {
	n.Pinned = false
	n.FX, n.FY = 0, 0
}

// ModeKind is the render/physics mode of the active graph.
type ModeKind string

const (
	ModePreview  ModeKind = "preview"
	ModeFiltered ModeKind = "filtered"
	ModeEgo      ModeKind = "ego"
)

// IsValid returns true if the mode kind is recognized
func (k ModeKind) IsValid() bool {
	switch k {
	case ModePreview, ModeFiltered, ModeEgo:
		return true
	}
	return false
}

// Mode is the resolved mode for one frame. Center is only meaningful for ModeEgo.
type Mode struct {
	Kind   ModeKind
	Center int64
}

// ResolveMode derives the mode from the ego selection and filters.
// An ego selection takes precedence over filters.
func ResolveMode(center *int64, f model.Filters) Mode {
	if center != nil {
		return Mode{Kind: ModeEgo, Center: *center}
	}
	if f.HasActive() {
		return Mode{Kind: ModeFiltered}
	}
	return Mode{Kind: ModePreview}
}

// String implements fmt.Stringer
func (m Mode) String() string {
	if m.Kind == ModeEgo {
		return fmt.Sprintf("ego(%d)", m.Center)
	}
	return string(m.Kind)
}

// Sim is the single owned record of the active graph. It is passed by
// reference to the force engine, the renderer and the interaction layer.
// Nothing here is safe for concurrent use; one goroutine owns a Sim.
type Sim struct {
	// Written only by the controller when the active set is replaced.
	nodes  []*SimNode
	byID   map[int64]*SimNode
	Edges  []model.Relationship
	center *int64

	// Written only by the interaction layer.
	HoverID *int64

	// Written only by the force engine (and reset by the controller on reload).
	Frame int
}

// NewSim builds a simulation from seeded nodes. Nodes with a duplicate id are
// dropped, keeping the first occurrence. A non-nil center marks an ego graph.
func NewSim(nodes []*SimNode, edges []model.Relationship, center *int64) *Sim {
	s := &Sim{
		nodes: make([]*SimNode, 0, len(nodes)),
		byID:  make(map[int64]*SimNode, len(nodes)),
		Edges: edges,
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, dup := s.byID[n.ID()]; dup {
			continue
		}
		s.nodes = append(s.nodes, n)
		s.byID[n.ID()] = n
	}
	if center != nil {
		c := *center
		s.center = &c
	}
	return s
}

// Empty returns a simulation with no nodes.
func Empty() *Sim {
	return NewSim(nil, nil, nil)
}

// Nodes returns the active nodes in insertion order. The slice is shared;
// callers must not append to it.
func (s *Sim) Nodes() []*SimNode { return s.nodes }

// Len returns the number of active nodes.
func (s *Sim) Len() int { return len(s.nodes) }

// Node looks up an active node by executive id.
func (s *Sim) Node(id int64) (*SimNode, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Center returns the ego center id, if this is an ego graph.
func (s *Sim) Center() (int64, bool) {
	if s.center == nil {
		return 0, false
	}
	return *s.center, true
}

// CenterPtr returns the ego center as a pointer suitable for ResolveMode.
func (s *Sim) CenterPtr() *int64 {
	return s.center
}

// Endpoints resolves both ends of an edge. ok is false for dangling edges.
func (s *Sim) Endpoints(e model.Relationship) (a, b *SimNode, ok bool) {
	a, okA := s.byID[e.SourceID]
	b, okB := s.byID[e.TargetID]
	if !okA || !okB {
		return nil, nil, false
	}
	return a, b, true
}

// Hovered returns the hovered node, if any.
func (s *Sim) Hovered() (*SimNode, bool) {
	if s.HoverID == nil {
		return nil, false
	}
	return s.Node(*s.HoverID)
}

// IsHovered reports whether id is the hovered node.
func (s *Sim) IsHovered(id int64) bool {
	return s.HoverID != nil && *s.HoverID == id
}

// Rewind clears hover and restarts the settling budget.
func (s *Sim) Rewind() {
	s.HoverID = nil
	s.Frame = 0
}

// CheckIntegrity verifies that the id index and node list agree.
func (s *Sim) CheckIntegrity() error {
	if len(s.nodes) != len(s.byID) {
		return fmt.Errorf("node list has %d entries, index has %d", len(s.nodes), len(s.byID))
	}
	for i, n := range s.nodes {
		if got, ok := s.byID[n.ID()]; !ok || got != n {
			return fmt.Errorf("node %d (id %d) missing from index", i, n.ID())
		}
	}
	return nil
}

// Data returns the executives and edges of the active set.
func (s *Sim) Data() model.GraphData {
	g := model.GraphData{
		Nodes: make([]model.Executive, 0, len(s.nodes)),
		Edges: s.Edges,
	}
	for _, n := range s.nodes {
		g.Nodes = append(g.Nodes, n.Exec)
	}
	return g
}
