package datasource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vanderheijden86/execgraph/pkg/datasource"
	"github.com/vanderheijden86/execgraph/pkg/datasource/memory"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

func exec(id int64, region model.Region, title string) model.Executive {
	return model.Executive{ID: id, Name: "exec", Title: title, Region: region}
}

func rel(id, a, b int64) model.Relationship {
	return model.Relationship{ID: id, SourceID: a, TargetID: b, Type: model.RelColleague}
}

// star builds center 1 with n direct neighbors (ids 2..n+1), each of which
// has one private neighbor (ids 1000+i).
func star(n int) model.GraphData {
	g := model.GraphData{Nodes: []model.Executive{exec(1, model.RegionCN, "")}}
	edgeID := int64(1)
	for i := int64(2); i <= int64(n)+1; i++ {
		g.Nodes = append(g.Nodes, exec(i, model.RegionCN, ""), exec(1000+i, model.RegionHK, ""))
		g.Edges = append(g.Edges, rel(edgeID, 1, i), rel(edgeID+1, i, 1000+i))
		edgeID += 2
	}
	return g
}

func TestFetchEgoGraph_OneHop(t *testing.T) {
	p := datasource.NewProvider(memory.New(star(3)), datasource.Options{})
	g, err := p.FetchEgoGraph(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 4 || len(g.Edges) != 3 {
		t.Errorf("1-hop = %d nodes, %d edges; want 4, 3", len(g.Nodes), len(g.Edges))
	}
}

func TestFetchEgoGraph_TwoHopThreshold(t *testing.T) {
	tests := []struct {
		name      string
		neighbors int
		threshold int
		wantNodes int
	}{
		{"BelowThresholdExpands", 3, 150, 7},
		{"AtThresholdStays", 4, 5, 5}, // 1 + 4 ids == threshold
		{"AboveThresholdStays", 10, 5, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := datasource.NewProvider(memory.New(star(tt.neighbors)), datasource.Options{ExpandThreshold: tt.threshold})
			g, err := p.FetchEgoGraph(context.Background(), 1, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(g.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(g.Nodes), tt.wantNodes)
			}
			seen := map[int64]bool{}
			for _, e := range g.Edges {
				if seen[e.ID] {
					t.Fatalf("edge %d returned twice", e.ID)
				}
				seen[e.ID] = true
			}
		})
	}
}

func TestFetchEgoGraph_EdgeLimit(t *testing.T) {
	p := datasource.NewProvider(memory.New(star(10)), datasource.Options{EgoEdgeLimit: 4})
	g, err := p.FetchEgoGraph(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 4 || len(g.Nodes) != 5 {
		t.Errorf("limited ego = %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestFetchEgoGraph_UnknownCenter(t *testing.T) {
	p := datasource.NewProvider(memory.New(star(2)), datasource.Options{})
	_, err := p.FetchEgoGraph(context.Background(), 42, 1)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchEgoGraph_IsolatedCenter(t *testing.T) {
	data := model.GraphData{Nodes: []model.Executive{exec(1, model.RegionCN, "")}}
	p := datasource.NewProvider(memory.New(data), datasource.Options{})
	g, err := p.FetchEgoGraph(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 1 || len(g.Edges) != 0 {
		t.Errorf("isolated center = %+v", g)
	}
}

func TestFetch_EdgesWithoutIDs(t *testing.T) {
	data := model.GraphData{
		Nodes: []model.Executive{exec(1, model.RegionCN, ""), exec(2, model.RegionHK, ""), exec(3, model.RegionSG, "")},
		Edges: []model.Relationship{rel(0, 1, 2), rel(0, 2, 3), rel(0, 1, 3)},
	}
	p := datasource.NewProvider(memory.New(data), datasource.DefaultOptions())
	ctx := context.Background()

	g, err := p.FetchPreview(ctx, 200, model.NoFilters())
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 3 {
		t.Errorf("preview edges = %d, want 3", len(g.Edges))
	}
	ego, err := p.FetchEgoGraph(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ego.Edges) != 2 {
		t.Errorf("ego edges = %d, want 2", len(ego.Edges))
	}
}

func TestFetchPreview(t *testing.T) {
	data := model.GraphData{
		Nodes: []model.Executive{
			exec(1, model.RegionCN, ""), exec(2, model.RegionHK, ""),
			exec(3, model.RegionHK, ""), exec(4, model.RegionCN, ""),
		},
		Edges: []model.Relationship{rel(1, 1, 2), rel(2, 2, 3), rel(3, 3, 4), rel(4, 1, 99)},
	}
	p := datasource.NewProvider(memory.New(data), datasource.Options{})
	ctx := context.Background()

	g, err := p.FetchPreview(ctx, 2, model.Filters{Region: model.RegionHK})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.NodeIDs(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("HK preview nodes = %v, want [2 3]", got)
	}
	if len(g.Edges) != 1 || g.Edges[0].ID != 2 {
		t.Errorf("preview edges = %+v, want only the edge among sampled nodes", g.Edges)
	}

	g, err = p.FetchPreview(ctx, 3, model.Filters{Region: model.RegionHK})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.NodeIDs(); len(got) != 3 || got[0] != 1 {
		t.Errorf("matching first then rest = %v, want [1 2 3]", got)
	}

	g, err = p.FetchPreview(ctx, 0, model.NoFilters())
	if err != nil || len(g.Nodes) != 0 {
		t.Errorf("zero limit = %+v, %v", g, err)
	}
}

func TestSamplePreview(t *testing.T) {
	all := []model.Executive{
		exec(1, model.RegionCN, ""), exec(2, model.RegionSG, ""),
		exec(3, model.RegionCN, ""), exec(4, model.RegionSG, ""),
	}
	tests := []struct {
		name  string
		limit int
		f     model.Filters
		want  []int64
	}{
		{"NoFilters", 3, model.NoFilters(), []int64{1, 2, 3}},
		{"MatchingFirst", 3, model.Filters{Region: model.RegionSG}, []int64{2, 4, 1}},
		{"LimitBelowMatches", 1, model.Filters{Region: model.RegionSG}, []int64{2}},
		{"LimitAboveAll", 10, model.NoFilters(), []int64{1, 2, 3, 4}},
		{"ZeroLimit", 0, model.NoFilters(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := datasource.SamplePreview(all, tt.limit, tt.f)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d executives, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("got[%d] = %d, want %d", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestMergeEdges(t *testing.T) {
	base := []model.Relationship{rel(1, 1, 2), rel(2, 1, 3)}
	more := []model.Relationship{rel(2, 1, 3), rel(3, 3, 4), rel(3, 3, 4)}
	got := datasource.MergeEdges(base, more)
	if len(got) != 3 {
		t.Errorf("merged %d edges, want 3", len(got))
	}
}

func TestExecutive(t *testing.T) {
	p := datasource.NewProvider(memory.New(star(1)), datasource.Options{})
	e, err := p.Executive(context.Background(), 2)
	if err != nil || e.ID != 2 {
		t.Errorf("Executive(2) = %+v, %v", e, err)
	}
	if _, err := p.Executive(context.Background(), 7); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Executive(7) err = %v", err)
	}
}
