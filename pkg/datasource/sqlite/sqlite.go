// Package sqlite serves the graph from a local SQLite database with the same
// executives/relationships layout as the hosted tables.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS executives (
	id      INTEGER PRIMARY KEY,
	name    TEXT NOT NULL,
	title   TEXT,
	company TEXT,
	region  TEXT
);
CREATE TABLE IF NOT EXISTS relationships (
	id        INTEGER PRIMARY KEY,
	source_id INTEGER NOT NULL,
	target_id INTEGER NOT NULL,
	type      TEXT NOT NULL,
	strength  REAL NOT NULL DEFAULT 0,
	label     TEXT
);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);
`

// SQLite caps host parameters per statement; id lists are chunked below it.
const maxParams = 500

// Store is a datasource.Store backed by database/sql.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Import upserts a dataset in one transaction. Relationships without an id
// are numbered after the largest id in data.
func (s *Store) Import(ctx context.Context, data model.GraphData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	data = data.WithEdgeIDs()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	execStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO executives (id, name, title, company, region) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare executives: %w", err)
	}
	defer execStmt.Close()
	for _, e := range data.Nodes {
		if _, err := execStmt.ExecContext(ctx, e.ID, e.Name, nullString(e.Title), nullString(e.Company), nullString(string(e.Region))); err != nil {
			return fmt.Errorf("insert executive %d: %w", e.ID, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO relationships (id, source_id, target_id, type, strength, label) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare relationships: %w", err)
	}
	defer relStmt.Close()
	for _, r := range data.Edges {
		if _, err := relStmt.ExecContext(ctx, r.ID, r.SourceID, r.TargetID, string(r.Type), r.Strength, nullString(r.Label)); err != nil {
			return fmt.Errorf("insert relationship %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const execColumns = `id, name, title, company, region`
const relColumns = `id, source_id, target_id, type, strength, label`

// Executives lists executives by id.
func (s *Store) Executives(ctx context.Context, limit int) ([]model.Executive, error) {
	q := `SELECT ` + execColumns + ` FROM executives ORDER BY id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryExecutives(ctx, q, args...)
}

// NodesByID returns the executives among ids.
func (s *Store) NodesByID(ctx context.Context, ids []int64) ([]model.Executive, error) {
	var out []model.Executive
	for _, chunk := range chunks(ids, maxParams) {
		q := `SELECT ` + execColumns + ` FROM executives WHERE id IN (` + placeholders(len(chunk)) + `) ORDER BY id`
		got, err := s.queryExecutives(ctx, q, int64Args(chunk)...)
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return sortExecutives(out), nil
}

// EdgesTouching returns relationships with an endpoint in ids.
func (s *Store) EdgesTouching(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []model.Relationship
	for _, chunk := range chunks(ids, maxParams/2) {
		in := placeholders(len(chunk))
		q := `SELECT ` + relColumns + ` FROM relationships WHERE source_id IN (` + in + `) OR target_id IN (` + in + `) ORDER BY id`
		args := append(int64Args(chunk), int64Args(chunk)...)
		got, err := s.queryRelationships(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return dedupeLimit(out, limit), nil
}

// EdgesAmong returns relationships with both endpoints in ids.
func (s *Store) EdgesAmong(ctx context.Context, ids []int64, limit int) ([]model.Relationship, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxParams/2 {
		// Too many ids for one statement: fetch touching edges and filter.
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
	in := placeholders(len(ids))
	q := `SELECT ` + relColumns + ` FROM relationships WHERE source_id IN (` + in + `) AND target_id IN (` + in + `) ORDER BY id`
	args := append(int64Args(ids), int64Args(ids)...)
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRelationships(ctx, q, args...)
}

// Search matches names case-insensitively (ASCII folding, as SQLite LIKE does).
func (s *Store) Search(ctx context.Context, query string, limit int) ([]model.Executive, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := `SELECT ` + execColumns + ` FROM executives WHERE name LIKE ? ESCAPE '\' ORDER BY id`
	args := []any{"%" + escapeLike(query) + "%"}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryExecutives(ctx, q, args...)
}

func (s *Store) queryExecutives(ctx context.Context, q string, args ...any) ([]model.Executive, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query executives: %w", err)
	}
	defer rows.Close()
	var out []model.Executive
	for rows.Next() {
		var (
			e                      model.Executive
			title, company, region sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &title, &company, &region); err != nil {
			return nil, fmt.Errorf("scan executive: %w", err)
		}
		e.Title, e.Company, e.Region = title.String, company.String, model.Region(region.String)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) queryRelationships(ctx context.Context, q string, args ...any) ([]model.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()
	var out []model.Relationship
	for rows.Next() {
		var (
			r     model.Relationship
			typ   string
			label sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID, &typ, &r.Strength, &label); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		r.Type, r.Label = model.RelationType(typ), label.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
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

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func sortExecutives(es []model.Executive) []model.Executive {
	sort.Slice(es, func(i, j int) bool { return es[i].ID < es[j].ID })
	return es
}

// dedupeLimit drops repeated ids across chunks, orders by id and applies limit.
func dedupeLimit(rs []model.Relationship, limit int) []model.Relationship {
	seen := make(map[int64]bool, len(rs))
	out := rs[:0]
	for _, r := range rs {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
