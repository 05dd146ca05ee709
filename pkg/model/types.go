package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned by data sources when a requested executive does not exist.
var ErrNotFound = errors.New("not found")

// Executive represents a person in the relationship network
type Executive struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Region  Region `json:"region,omitempty"`
}

// Validate checks if the executive data is logically valid
func (e *Executive) Validate() error {
	if e.ID == 0 {
		return fmt.Errorf("executive ID cannot be zero")
	}
	if e.Name == "" {
		return fmt.Errorf("executive %d: name cannot be empty", e.ID)
	}
	return nil
}

// Region tags the market an executive belongs to. It drives node color.
type Region string

const (
	RegionCN Region = "CN"
	RegionHK Region = "HK"
	RegionSG Region = "SG"
)

// IsKnown returns true if the region is one of the colored markets.
// Unknown and empty regions are still valid; they render with the default color.
func (r Region) IsKnown() bool {
	switch r {
	case RegionCN, RegionHK, RegionSG:
		return true
	}
	return false
}

// RelationType categorizes a relationship
type RelationType string

const (
	RelColleague RelationType = "colleague"
	RelAlumni    RelationType = "alumni"
	RelFormer    RelationType = "former"
)

// RelationTypes lists the closed set of relationship types in display order.
var RelationTypes = []RelationType{RelColleague, RelFormer, RelAlumni}

// IsValid returns true if the relation type is a recognized value
func (t RelationType) IsValid() bool {
	switch t {
	case RelColleague, RelAlumni, RelFormer:
		return true
	}
	return false
}

// Relationship represents a typed, undirected edge between two executives.
type Relationship struct {
	ID       int64        `json:"id"`
	SourceID int64        `json:"source_id"`
	TargetID int64        `json:"target_id"`
	Type     RelationType `json:"type"`
	Strength float64      `json:"strength,omitempty"`
	Label    string       `json:"label,omitempty"`
}

// Touches returns true if the relationship has id as one of its endpoints.
func (r Relationship) Touches(id int64) bool {
	return r.SourceID == id || r.TargetID == id
}

// Other returns the endpoint opposite to id.
func (r Relationship) Other(id int64) int64 {
	if r.SourceID == id {
		return r.TargetID
	}
	return r.SourceID
}

// GraphData is one fetched node/edge set.
type GraphData struct {
	Nodes []Executive    `json:"nodes"`
	Edges []Relationship `json:"edges"`
}

// Validate checks node and edge id uniqueness and edge types. Edges with
// no id (0) are not checked for uniqueness; see WithEdgeIDs. Edges
// referencing executives outside Nodes are allowed; consumers skip them.
func (g GraphData) Validate() error {
	seen := make(map[int64]bool, len(g.Nodes))
	for i := range g.Nodes {
		if err := g.Nodes[i].Validate(); err != nil {
			return err
		}
		if seen[g.Nodes[i].ID] {
			return fmt.Errorf("duplicate executive id %d", g.Nodes[i].ID)
		}
		seen[g.Nodes[i].ID] = true
	}
	edgeIDs := make(map[int64]bool, len(g.Edges))
	for _, e := range g.Edges {
		if !e.Type.IsValid() {
			return fmt.Errorf("relationship %d: invalid type %q", e.ID, e.Type)
		}
		if e.ID == 0 {
			continue
		}
		if edgeIDs[e.ID] {
			return fmt.Errorf("duplicate relationship id %d", e.ID)
		}
		edgeIDs[e.ID] = true
	}
	return nil
}

// WithEdgeIDs returns g with every id-less relationship given an id above the
// largest one in use, in input order. Stores key relationships by id, so a
// dataset that omits them must be numbered before it is indexed. g is not
// modified.
func (g GraphData) WithEdgeIDs() GraphData {
	var next int64
	missing := false
	for _, e := range g.Edges {
		next = max(next, e.ID)
		missing = missing || e.ID == 0
	}
	if !missing {
		return g
	}
	edges := make([]Relationship, len(g.Edges))
	copy(edges, g.Edges)
	for i := range edges {
		if edges[i].ID == 0 {
			next++
			edges[i].ID = next
		}
	}
	g.Edges = edges
	return g
}

// NodeIDs returns the executive ids in ascending order.
func (g GraphData) NodeIDs() []int64 {
	ids := make([]int64, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Find returns the executive with the given id.
func (g GraphData) Find(id int64) (Executive, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Executive{}, false
}

// RelationCounts tallies edges per relationship type.
func (g GraphData) RelationCounts() map[RelationType]int {
	counts := make(map[RelationType]int, len(RelationTypes))
	for _, e := range g.Edges {
		counts[e.Type]++
	}
	return counts
}
