package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

const sampleJSON = `{
  "nodes": [
    {"id": 1, "name": "王伟", "title": "董事长", "company": "平安人寿", "region": "CN"},
    {"id": 2, "name": "Chan Tai Man", "title": "CEO", "company": "AIA", "region": "HK"},
    {"id": 3, "name": "Tan Wei", "title": null, "company": null, "region": null}
  ],
  "edges": [
    {"id": 10, "source_id": 1, "target_id": 2, "type": "colleague", "strength": 0.8, "label": null},
    {"id": 11, "source_id": 2, "target_id": 1, "type": "alumni", "strength": 0.4},
    {"id": 12, "source_id": 2, "target_id": 3, "type": "former"},
    {"id": 13, "source_id": 3, "target_id": 77, "type": "former"},
    {"id": 14, "source_id": 3, "target_id": 3, "type": "colleague"}
  ]
}`

func loadSample(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpen(t *testing.T) {
	s := loadSample(t)
	nodes, edges := s.Len()
	if nodes != 3 || edges != 5 {
		t.Errorf("Len() = %d, %d; want 3, 5", nodes, edges)
	}
	got, _ := s.NodesByID(context.Background(), []int64{3})
	if len(got) != 1 || got[0].Region != "" || got[0].Title != "" {
		t.Errorf("null fields should decode empty, got %+v", got)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"Syntax", `{"nodes": [`},
		{"DuplicateID", `{"nodes": [{"id": 1, "name": "a"}, {"id": 1, "name": "b"}]}`},
		{"BadType", `{"nodes": [{"id": 1, "name": "a"}], "edges": [{"id": 1, "source_id": 1, "target_id": 1, "type": "rival"}]}`},
		{"DuplicateEdgeID", `{"nodes": [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}], "edges": [{"id": 5, "source_id": 1, "target_id": 2, "type": "alumni"}, {"id": 5, "source_id": 2, "target_id": 1, "type": "former"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEdgesTouching(t *testing.T) {
	s := loadSample(t)
	ctx := context.Background()
	tests := []struct {
		name  string
		ids   []int64
		limit int
		want  []int64
	}{
		{"ParallelEdgesBothReturned", []int64{1}, 0, []int64{10, 11}},
		{"SelfLoopAndDangling", []int64{3}, 0, []int64{12, 13, 14}},
		{"Union", []int64{1, 3}, 0, []int64{10, 11, 12, 13, 14}},
		{"Limit", []int64{2}, 2, []int64{10, 11}},
		{"Unknown", []int64{404}, 0, nil},
		{"DanglingEndpoint", []int64{77}, 0, []int64{13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.EdgesTouching(ctx, tt.ids, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			assertEdgeIDs(t, got, tt.want)
		})
	}
}

func TestEdgesAmong(t *testing.T) {
	s := loadSample(t)
	got, err := s.EdgesAmong(context.Background(), []int64{2, 3}, 0)
	if err != nil {
		t.Fatal(err)
	}
	assertEdgeIDs(t, got, []int64{12, 14})
}

func TestExecutivesAndSearch(t *testing.T) {
	s := loadSample(t)
	ctx := context.Background()
	all, _ := s.Executives(ctx, 0)
	if len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
		t.Errorf("Executives(0) = %+v", all)
	}
	two, _ := s.Executives(ctx, 2)
	if len(two) != 2 {
		t.Errorf("Executives(2) returned %d", len(two))
	}

	hits, _ := s.Search(ctx, "TA", 0)
	if len(hits) != 2 {
		t.Errorf("Search(TA) = %+v, want Chan Tai Man and Tan Wei", hits)
	}
	if hits, _ := s.Search(ctx, "  ", 0); hits != nil {
		t.Error("blank query should return nothing")
	}
}

func TestDecode_EdgesWithoutIDs(t *testing.T) {
	data, err := Decode([]byte(`{
  "nodes": [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"}],
  "edges": [
    {"source_id": 1, "target_id": 2, "type": "colleague"},
    {"source_id": 2, "target_id": 3, "type": "former"},
    {"source_id": 1, "target_id": 3, "type": "alumni"}
  ]
}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s := New(data)
	if _, edges := s.Len(); edges != 3 {
		t.Fatalf("Len edges = %d, want 3", edges)
	}
	ctx := context.Background()
	among, _ := s.EdgesAmong(ctx, []int64{1, 2, 3}, 0)
	assertEdgeIDs(t, among, []int64{1, 2, 3})
	touching, _ := s.EdgesTouching(ctx, []int64{1}, 0)
	assertEdgeIDs(t, touching, []int64{1, 3})
}

func TestReplace_NumbersEdges(t *testing.T) {
	s := New(model.GraphData{
		Nodes: []model.Executive{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
		Edges: []model.Relationship{
			{SourceID: 1, TargetID: 2, Type: model.RelColleague},
			{SourceID: 2, TargetID: 1, Type: model.RelAlumni},
		},
	})
	got, _ := s.EdgesTouching(context.Background(), []int64{2}, 0)
	assertEdgeIDs(t, got, []int64{1, 2})
}

func TestReplace(t *testing.T) {
	s := New(model.GraphData{Nodes: []model.Executive{{ID: 1, Name: "a"}}})
	s.Replace(model.GraphData{Nodes: []model.Executive{{ID: 2, Name: "b"}, {ID: 3, Name: "c"}}})
	all, _ := s.Executives(context.Background(), 0)
	if len(all) != 2 || all[0].ID != 2 {
		t.Errorf("after Replace = %+v", all)
	}
}

func TestCanceledContext(t *testing.T) {
	s := loadSample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Executives(ctx, 0); err == nil {
		t.Error("expected context error")
	}
}

func assertEdgeIDs(t *testing.T, got []model.Relationship, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d edges %+v, want ids %v", len(got), got, want)
	}
	for i := range got {
		if got[i].ID != want[i] {
			t.Errorf("edge[%d] = %d, want %d", i, got[i].ID, want[i])
		}
	}
}
