// Package memory serves a graph dataset held entirely in memory, typically
// loaded from a JSON file.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// Store is an in-memory datasource.Store. Adjacency lives in a gonum
// undirected graph; the relationships between a pair are kept alongside it
// since the graph holds at most one edge per pair. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	execs map[int64]model.Executive
	order []int64 // ascending ids
	g     *simple.UndirectedGraph
	pairs map[[2]int64][]model.Relationship
	loops map[int64][]model.Relationship
}

// New builds a store from data. Duplicate executive ids keep the first entry.
func New(data model.GraphData) *Store {
	s := &Store{}
	s.Replace(data)
	return s
}

// LoadFile reads a {"nodes": [...], "edges": [...]} JSON dataset.
func LoadFile(path string) (model.GraphData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.GraphData{}, fmt.Errorf("read dataset: %w", err)
	}
	return Decode(b)
}

// Decode parses and validates a JSON dataset.
func Decode(b []byte) (model.GraphData, error) {
	var data model.GraphData
	if err := json.Unmarshal(b, &data); err != nil {
		return model.GraphData{}, fmt.Errorf("parse dataset: %w", err)
	}
	if err := data.Validate(); err != nil {
		return model.GraphData{}, fmt.Errorf("invalid dataset: %w", err)
	}
	return data.WithEdgeIDs(), nil
}

// Open loads path into a new store.
func Open(path string) (*Store, error) {
	data, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(data), nil
}

// Replace swaps the whole dataset. Relationships without an id are numbered.
func (s *Store) Replace(data model.GraphData) {
	data = data.WithEdgeIDs()
	execs := make(map[int64]model.Executive, len(data.Nodes))
	order := make([]int64, 0, len(data.Nodes))
	g := simple.NewUndirectedGraph()
	for _, e := range data.Nodes {
		if _, dup := execs[e.ID]; dup {
			continue
		}
		execs[e.ID] = e
		order = append(order, e.ID)
		g.AddNode(simple.Node(e.ID))
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	pairs := make(map[[2]int64][]model.Relationship)
	loops := make(map[int64][]model.Relationship)
	for _, r := range data.Edges {
		if r.SourceID == r.TargetID {
			loops[r.SourceID] = append(loops[r.SourceID], r)
			continue
		}
		k := pairKey(r.SourceID, r.TargetID)
		if len(pairs[k]) == 0 {
			// SetEdge adds missing endpoints, so dangling edges stay reachable.
			g.SetEdge(simple.Edge{F: simple.Node(r.SourceID), T: simple.Node(r.TargetID)})
		}
		pairs[k] = append(pairs[k], r)
	}

	s.mu.Lock()
	s.execs, s.order, s.g, s.pairs, s.loops = execs, order, g, pairs, loops
	s.mu.Unlock()
}

// Len returns the number of executives and relationships.
func (s *Store) Len() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rs := range s.pairs {
		edges += len(rs)
	}
	for _, rs := range s.loops {
		edges += len(rs)
	}
	return len(s.execs), edges
}

func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// Executives lists executives by id.
func (s *Store) Executives(ctx context.Context, limit int) ([]model.Executive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Executive, 0, n)
	for _, id := range s.order[:n] {
		out = append(out, s.execs[id])
	}
	return out, ctx.Err()
}

// NodesByID returns the known executives among ids, ordered by id.
func (s *Store) NodesByID(ctx context.Context, ids []int64) ([]model.Executive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]bool, len(ids))
	out := make([]model.Executive, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := s.execs[id]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, ctx.Err()
}

// EdgesTouching walks the neighbors of each id.
func (s *Store) EdgesTouching(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]bool)
	var out []model.Relationship
	collect := func(rs []model.Relationship) {
		for _, r := range rs {
			if !seen[r.ID] {
				seen[r.ID] = true
				out = append(out, r)
			}
		}
	}
	for _, id := range ids {
		collect(s.loops[id])
		if s.g.Node(id) == nil {
			continue
		}
		it := s.g.From(id)
		for it.Next() {
			collect(s.pairs[pairKey(id, it.Node().ID())])
		}
	}
	return limitEdges(out, limit), ctx.Err()
}

// EdgesAmong returns the relationships inside the id set.
func (s *Store) EdgesAmong(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := make(map[int64]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}
	seen := make(map[int64]bool)
	var out []model.Relationship
	for _, id := range ids {
		for _, r := range s.loops[id] {
			if !seen[r.ID] {
				seen[r.ID] = true
				out = append(out, r)
			}
		}
		if s.g.Node(id) == nil {
			continue
		}
		it := s.g.From(id)
		for it.Next() {
			other := it.Node().ID()
			if !in[other] {
				continue
			}
			for _, r := range s.pairs[pairKey(id, other)] {
				if !seen[r.ID] {
					seen[r.ID] = true
					out = append(out, r)
				}
			}
		}
	}
	return limitEdges(out, limit), ctx.Err()
}

// Search matches names case-insensitively.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]model.Executive, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Executive
	for _, id := range s.order {
		e := s.execs[id]
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, ctx.Err()
}

func limitEdges(rs []model.Relationship, limit int) []model.Relationship {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs
}
