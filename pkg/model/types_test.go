package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRelationType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		rt   RelationType
		want bool
	}{
		{"Colleague", RelColleague, true},
		{"Alumni", RelAlumni, true},
		{"Former", RelFormer, true},
		{"Invalid", "friend", false},
		{"Empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rt.IsValid(); got != tt.want {
				t.Errorf("RelationType.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegion_IsKnown(t *testing.T) {
	tests := []struct {
		region Region
		want   bool
	}{
		{RegionCN, true},
		{RegionHK, true},
		{RegionSG, true},
		{"US", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.region.IsKnown(); got != tt.want {
			t.Errorf("Region(%q).IsKnown() = %v, want %v", tt.region, got, tt.want)
		}
	}
}

func TestExecutive_Validate(t *testing.T) {
	tests := []struct {
		name    string
		exec    Executive
		wantErr bool
	}{
		{"Valid", Executive{ID: 1, Name: "王伟"}, false},
		{"ZeroID", Executive{Name: "王伟"}, true},
		{"EmptyName", Executive{ID: 2}, true},
		{"UnknownRegionAllowed", Executive{ID: 3, Name: "Tan", Region: "MY"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.exec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRelationship_Endpoints(t *testing.T) {
	r := Relationship{ID: 9, SourceID: 1, TargetID: 2, Type: RelAlumni}
	if !r.Touches(1) || !r.Touches(2) || r.Touches(3) {
		t.Errorf("Touches() wrong for %+v", r)
	}
	if got := r.Other(1); got != 2 {
		t.Errorf("Other(1) = %d, want 2", got)
	}
	if got := r.Other(2); got != 1 {
		t.Errorf("Other(2) = %d, want 1", got)
	}
}

func TestGraphData_Validate(t *testing.T) {
	nodes := []Executive{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}

	t.Run("dangling edge allowed", func(t *testing.T) {
		g := GraphData{Nodes: nodes, Edges: []Relationship{{ID: 1, SourceID: 1, TargetID: 99, Type: RelColleague}}}
		if err := g.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("duplicate node", func(t *testing.T) {
		g := GraphData{Nodes: append(nodes, Executive{ID: 1, Name: "dup"})}
		err := g.Validate()
		if err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Errorf("expected duplicate error, got %v", err)
		}
	})

	t.Run("duplicate relationship", func(t *testing.T) {
		g := GraphData{Nodes: nodes, Edges: []Relationship{
			{ID: 4, SourceID: 1, TargetID: 2, Type: RelColleague},
			{ID: 4, SourceID: 2, TargetID: 1, Type: RelAlumni},
		}}
		err := g.Validate()
		if err == nil || !strings.Contains(err.Error(), "duplicate relationship id 4") {
			t.Errorf("expected duplicate relationship error, got %v", err)
		}
	})

	t.Run("id-less edges allowed", func(t *testing.T) {
		g := GraphData{Nodes: nodes, Edges: []Relationship{
			{SourceID: 1, TargetID: 2, Type: RelColleague},
			{SourceID: 2, TargetID: 1, Type: RelAlumni},
		}}
		if err := g.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid edge type", func(t *testing.T) {
		g := GraphData{Nodes: nodes, Edges: []Relationship{{ID: 1, SourceID: 1, TargetID: 2, Type: "rival"}}}
		if err := g.Validate(); err == nil {
			t.Error("expected error for invalid type")
		}
	})
}

func TestGraphData_Helpers(t *testing.T) {
	g := GraphData{
		Nodes: []Executive{{ID: 30, Name: "c"}, {ID: 10, Name: "a"}, {ID: 20, Name: "b"}},
		Edges: []Relationship{
			{ID: 1, SourceID: 10, TargetID: 20, Type: RelColleague},
			{ID: 2, SourceID: 10, TargetID: 30, Type: RelColleague},
			{ID: 3, SourceID: 20, TargetID: 30, Type: RelFormer},
		},
	}
	ids := g.NodeIDs()
	if len(ids) != 3 || ids[0] != 10 || ids[2] != 30 {
		t.Errorf("NodeIDs() = %v, want sorted [10 20 30]", ids)
	}
	if e, ok := g.Find(20); !ok || e.Name != "b" {
		t.Errorf("Find(20) = %+v, %v", e, ok)
	}
	if _, ok := g.Find(99); ok {
		t.Error("Find(99) should miss")
	}
	counts := g.RelationCounts()
	if counts[RelColleague] != 2 || counts[RelFormer] != 1 || counts[RelAlumni] != 0 {
		t.Errorf("RelationCounts() = %v", counts)
	}
}

func TestGraphData_JSONWireNames(t *testing.T) {
	raw := `{"nodes":[{"id":1,"name":"李娜","title":"总经理","company":"平安人寿","region":"CN"}],
	"edges":[{"id":5,"source_id":1,"target_id":2,"type":"former","strength":0.5,"label":"2019"}]}`
	var g GraphData
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.Nodes[0].Region != RegionCN || g.Nodes[0].Company != "平安人寿" {
		t.Errorf("node decoded wrong: %+v", g.Nodes[0])
	}
	e := g.Edges[0]
	if e.SourceID != 1 || e.TargetID != 2 || e.Type != RelFormer || e.Label != "2019" {
		t.Errorf("edge decoded wrong: %+v", e)
	}
}

func TestErrNotFound_Wraps(t *testing.T) {
	err := errors.Join(errors.New("lookup 7"), ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to find ErrNotFound")
	}
}

func TestGraphData_WithEdgeIDs(t *testing.T) {
	g := GraphData{Edges: []Relationship{
		{SourceID: 1, TargetID: 2, Type: RelColleague},
		{ID: 7, SourceID: 2, TargetID: 3, Type: RelFormer},
		{SourceID: 1, TargetID: 3, Type: RelAlumni},
	}}
	got := g.WithEdgeIDs()

	want := []int64{8, 7, 9}
	for i, e := range got.Edges {
		if e.ID != want[i] {
			t.Errorf("edge %d id = %d, want %d", i, e.ID, want[i])
		}
	}
	if g.Edges[0].ID != 0 {
		t.Error("WithEdgeIDs must not modify its receiver")
	}
	if err := got.Validate(); err != nil {
		t.Errorf("numbered graph should validate: %v", err)
	}

	full := GraphData{Edges: []Relationship{{ID: 3, SourceID: 1, TargetID: 2, Type: RelColleague}}}
	if out := full.WithEdgeIDs(); &out.Edges[0] != &full.Edges[0] {
		t.Error("fully numbered edges should be returned as is")
	}
}
