// Package datasource implements the graph provider on top of a Store.
//
// A Store is a thin read-only view over the executives and relationships
// tables; the concrete stores live in the memory, sqlite and supabase
// subpackages. Provider adds the preview sampling and the ego neighborhood
// expansion on top of it, so every backend shares the same semantics.
package datasource

import (
	"context"
	"fmt"
	"sort"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// Store is the minimal query surface a backend must offer. Limits <= 0 mean
// no limit. Results are ordered by id.
type Store interface {
	// Executives lists executives.
	Executives(ctx context.Context, limit int) ([]model.Executive, error)
	// NodesByID returns the executives with the given ids. Unknown ids are skipped.
	NodesByID(ctx context.Context, ids []int64) ([]model.Executive, error)
	// EdgesTouching returns relationships with at least one endpoint in ids.
	EdgesTouching(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error)
	// EdgesAmong returns relationships with both endpoints in ids.
	EdgesAmong(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error)
	// Search matches executives by a case-insensitive name substring.
	Search(ctx context.Context, query string, limit int) ([]model.Executive, error)
}

// Options tune the provider queries.
type Options struct {
	// EgoEdgeLimit caps the direct relationships fetched for a center.
	EgoEdgeLimit int `yaml:"ego_edge_limit" validate:"gte=1"`
	// ExpandEdgeLimit caps the second hop.
	ExpandEdgeLimit int `yaml:"expand_edge_limit" validate:"gte=1"`
	// ExpandThreshold is the neighborhood size below which a 2-hop request
	// actually expands.
	ExpandThreshold int `yaml:"expand_threshold" validate:"gte=1"`
	// ScanLimit caps how many executives the preview sampler considers.
	ScanLimit int `yaml:"scan_limit" validate:"gte=0"`
	// EdgesPerNode bounds preview edges to EdgesPerNode*limit.
	EdgesPerNode int `yaml:"edges_per_node" validate:"gte=1"`
}

// DefaultOptions returns the stock query limits.
func DefaultOptions() Options {
	return Options{
		EgoEdgeLimit:    200,
		ExpandEdgeLimit: 500,
		ExpandThreshold: 150,
		ScanLimit:       5000,
		EdgesPerNode:    4,
	}
}

// Provider serves preview and ego graphs from a Store.
type Provider struct {
	store Store
	opts  Options
}

// NewProvider wraps store. Zero option fields take their defaults.
func NewProvider(store Store, opts Options) *Provider {
	def := DefaultOptions()
	if opts.EgoEdgeLimit <= 0 {
		opts.EgoEdgeLimit = def.EgoEdgeLimit
	}
	if opts.ExpandEdgeLimit <= 0 {
		opts.ExpandEdgeLimit = def.ExpandEdgeLimit
	}
	if opts.ExpandThreshold <= 0 {
		opts.ExpandThreshold = def.ExpandThreshold
	}
	if opts.ScanLimit < 0 {
		opts.ScanLimit = 0
	}
	if opts.EdgesPerNode <= 0 {
		opts.EdgesPerNode = def.EdgesPerNode
	}
	return &Provider{store: store, opts: opts}
}

// Store returns the underlying store.
func (p *Provider) Store() Store { return p.store }

// FetchPreview samples up to limit executives, those matching f first, and
// returns them with the relationships among them.
func (p *Provider) FetchPreview(ctx context.Context, limit int, f model.Filters) (model.GraphData, error) {
	if limit <= 0 {
		return model.GraphData{}, nil
	}
	all, err := p.store.Executives(ctx, p.opts.ScanLimit)
	if err != nil {
		return model.GraphData{}, fmt.Errorf("list executives: %w", err)
	}

	nodes := SamplePreview(all, limit, f)
	if len(nodes) == 0 {
		return model.GraphData{}, nil
	}
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	edges, err := p.store.EdgesAmong(ctx, ids, limit*p.opts.EdgesPerNode)
	if err != nil {
		return model.GraphData{}, fmt.Errorf("preview edges: %w", err)
	}
	return model.GraphData{Nodes: nodes, Edges: edges}, nil
}

// SamplePreview picks up to limit executives from all, those matching f
// first. Order within each group is preserved.
func SamplePreview(all []model.Executive, limit int, f model.Filters) []model.Executive {
	if limit <= 0 {
		return nil
	}
	out := make([]model.Executive, 0, min(limit, len(all)))
	var rest []model.Executive
	for _, e := range all {
		if f.Matches(e) {
			if len(out) < limit {
				out = append(out, e)
			}
			continue
		}
		rest = append(rest, e)
	}
	for _, e := range rest {
		if len(out) >= limit {
			break
		}
		out = append(out, e)
	}
	return out
}

// FetchEgoGraph returns the neighborhood of centerID. With hops >= 2 the
// neighborhood is expanded one more hop, but only while the direct
// neighborhood is smaller than ExpandThreshold.
func (p *Provider) FetchEgoGraph(ctx context.Context, centerID int64, hops int) (model.GraphData, error) {
	edges, err := p.store.EdgesTouching(ctx, []int64{centerID}, p.opts.EgoEdgeLimit)
	if err != nil {
		return model.GraphData{}, fmt.Errorf("ego edges for %d: %w", centerID, err)
	}

	ids := newIDSet(centerID)
	for _, e := range edges {
		ids.add(e.SourceID, e.TargetID)
	}

	if hops >= 2 && ids.len() < p.opts.ExpandThreshold {
		hop1 := ids.without(centerID)
		if len(hop1) > 0 {
			more, err := p.store.EdgesTouching(ctx, hop1, p.opts.ExpandEdgeLimit)
			if err != nil {
				return model.GraphData{}, fmt.Errorf("second hop for %d: %w", centerID, err)
			}
			edges = MergeEdges(edges, more)
			for _, e := range more {
				ids.add(e.SourceID, e.TargetID)
			}
		}
	}

	nodes, err := p.store.NodesByID(ctx, ids.sorted())
	if err != nil {
		return model.GraphData{}, fmt.Errorf("ego nodes for %d: %w", centerID, err)
	}
	found := false
	for _, n := range nodes {
		if n.ID == centerID {
			found = true
			break
		}
	}
	if !found {
		return model.GraphData{}, fmt.Errorf("executive %d: %w", centerID, model.ErrNotFound)
	}
	return model.GraphData{Nodes: nodes, Edges: edges}, nil
}

// Search finds executives by name.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]model.Executive, error) {
	return p.store.Search(ctx, query, limit)
}

// Executive returns a single executive.
func (p *Provider) Executive(ctx context.Context, id int64) (model.Executive, error) {
	nodes, err := p.store.NodesByID(ctx, []int64{id})
	if err != nil {
		return model.Executive{}, err
	}
	if len(nodes) == 0 {
		return model.Executive{}, fmt.Errorf("executive %d: %w", id, model.ErrNotFound)
	}
	return nodes[0], nil
}

// MergeEdges appends the edges of more not already in base, deduplicating by id.
func MergeEdges(base, more []model.Relationship) []model.Relationship {
	seen := make(map[int64]bool, len(base)+len(more))
	for _, e := range base {
		seen[e.ID] = true
	}
	for _, e := range more {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		base = append(base, e)
	}
	return base
}

type idSet map[int64]struct{}

func newIDSet(ids ...int64) idSet {
	s := idSet{}
	s.add(ids...)
	return s
}

func (s idSet) add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s idSet) len() int { return len(s) }

func (s idSet) sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s idSet) without(id int64) []int64 {
	out := make([]int64, 0, len(s))
	for _, v := range s.sorted() {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
