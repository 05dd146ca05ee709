// Package supabase serves the graph from the hosted executives and
// relationships tables through PostgREST.
package supabase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

const (
	executivesTable    = "executives"
	relationshipsTable = "relationships"

	execColumns = "id, name, title, company, region"
	relColumns  = "id, source_id, target_id, type, strength, label"
)

// Keeps query strings well under common URL length limits.
const maxIDsPerQuery = 200

// Querier is the part of a supabase or postgrest client the store needs.
type Querier interface {
	From(table string) *postgrest.QueryBuilder
}

// Store is a datasource.Store over PostgREST.
type Store struct {
	q Querier
}

// New connects to a Supabase project.
func New(url, apiKey string) (*Store, error) {
	client, err := supabase.NewClient(url, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &Store{q: client}, nil
}

// NewWithQuerier wraps an existing client, such as a bare postgrest.Client.
func NewWithQuerier(q Querier) *Store {
	return &Store{q: q}
}

var ascending = &postgrest.OrderOpts{Ascending: true}

// Executives lists executives by id.
func (s *Store) Executives(ctx context.Context, limit int) ([]model.Executive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fb := s.q.From(executivesTable).Select(execColumns, "", false).Order("id", ascending)
	if limit > 0 {
		fb = fb.Limit(limit, "")
	}
	var out []model.Executive
	if err := decode(fb, &out); err != nil {
		return nil, fmt.Errorf("failed to list executives: %w", err)
	}
	return out, nil
}

// NodesByID fetches executives with an in.(...) filter, chunked.
func (s *Store) NodesByID(ctx context.Context, ids []int64) ([]model.Executive, error) {
	var out []model.Executive
	for _, chunk := range chunks(ids, maxIDsPerQuery) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var got []model.Executive
		fb := s.q.From(executivesTable).Select(execColumns, "", false).
			In("id", idStrings(chunk)).
			Order("id", ascending)
		if err := decode(fb, &got); err != nil {
			return nil, fmt.Errorf("failed to get executives: %w", err)
		}
		out = append(out, got...)
	}
	return out, nil
}

// EdgesTouching uses an or filter over both endpoint columns.
func (s *Store) EdgesTouching(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error) {
	var out []model.Relationship
	for _, chunk := range chunks(ids, maxIDsPerQuery) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list := strings.Join(idStrings(chunk), ",")
		fb := s.q.From(relationshipsTable).Select(relColumns, "", false).
			Or(fmt.Sprintf("source_id.in.(%s),target_id.in.(%s)", list, list), "").
			Order("id", ascending)
		if limit > 0 {
			fb = fb.Limit(limit, "")
		}
		var got []model.Relationship
		if err := decode(fb, &got); err != nil {
			return nil, fmt.Errorf("failed to get relationships: %w", err)
		}
		out = append(out, got...)
	}
	return dedupeLimit(out, limit), nil
}

// EdgesAmong filters both endpoint columns by the id set.
func (s *Store) EdgesAmong(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxIDsPerQuery {
		touching, err := s.EdgesTouching(ctx, ids, 0)
		if err != nil {
			return nil, err
		}
		in := make(map[int64]bool, len(ids))
		for _, id := range ids {
			in[id] = true
		}
		var out []model.Relationship
		for _, r := range touching {
			if in[r.SourceID] && in[r.TargetID] {
				out = append(out, r)
			}
		}
		return dedupeLimit(out, limit), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	strs := idStrings(ids)
	fb := s.q.From(relationshipsTable).Select(relColumns, "", false).
		In("source_id", strs).
		In("target_id", strs).
		Order("id", ascending)
	if limit > 0 {
		fb = fb.Limit(limit, "")
	}
	var out []model.Relationship
	if err := decode(fb, &out); err != nil {
		return nil, fmt.Errorf("failed to get relationships: %w", err)
	}
	return out, nil
}

// Search matches names with ilike.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]model.Executive, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fb := s.q.From(executivesTable).Select(execColumns, "", false).
		Ilike("name", "%"+query+"%").
		Order("id", ascending)
	if limit > 0 {
		fb = fb.Limit(limit, "")
	}
	var out []model.Executive
	if err := decode(fb, &out); err != nil {
		return nil, fmt.Errorf("failed to search executives: %w", err)
	}
	return out, nil
}

func decode(fb *postgrest.FilterBuilder, v any) error {
	resp, _, err := fb.Execute()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp, v); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func idStrings(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

func chunks(ids []int64, size int) [][]int64 {
	var out [][]int64
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func dedupeLimit(rs []model.Relationship, limit int) []model.Relationship {
	seen := make(map[int64]bool, len(rs))
	out := rs[:0]
	for _, r := range rs {
		if !seen[r.ID] {
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
