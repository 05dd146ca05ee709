package interact

import (
	"testing"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

func node(id int64, x, y float64) *layout.SimNode {
	return &layout.SimNode{Exec: model.Executive{ID: id, Name: "n"}, X: x, Y: y}
}

func TestHitTest(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []*layout.SimNode
		x, y   float64
		wantID int64 // 0 means no hit
	}{
		{"Empty", nil, 10, 10, 0},
		{"Inside", []*layout.SimNode{node(1, 100, 100)}, 110, 100, 1},
		{"OnRadiusIsMiss", []*layout.SimNode{node(1, 100, 100)}, 118, 100, 0},
		{"EquidistantBeyondRadius", []*layout.SimNode{node(1, 0, 0), node(2, 60, 0)}, 30, 0, 0},
		{"NearestWins", []*layout.SimNode{node(1, 100, 100), node(2, 112, 100)}, 108, 100, 2},
		{"NearestWinsRegardlessOfOrder", []*layout.SimNode{node(2, 112, 100), node(1, 100, 100)}, 103, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := layout.NewSim(tt.nodes, nil, nil)
			got := HitTest(sim, tt.x, tt.y, DefaultHitRadius, DefaultCenterRadius)
			switch {
			case tt.wantID == 0 && got != nil:
				t.Errorf("HitTest() = %d, want no hit", got.ID())
			case tt.wantID != 0 && (got == nil || got.ID() != tt.wantID):
				t.Errorf("HitTest() = %v, want %d", got, tt.wantID)
			}
		})
	}
}

func TestHitTest_CenterRadius(t *testing.T) {
	center := int64(1)
	c := node(1, 200, 200)
	c.Pin(200, 200)
	sim := layout.NewSim([]*layout.SimNode{c, node(2, 400, 400)}, nil, &center)

	if got := HitTest(sim, 222, 200, DefaultHitRadius, DefaultCenterRadius); got == nil || got.ID() != 1 {
		t.Errorf("center should be hit at distance 22, got %v", got)
	}
	if got := HitTest(sim, 422, 400, DefaultHitRadius, DefaultCenterRadius); got != nil {
		t.Errorf("ordinary node should not be hit at distance 22, got %d", got.ID())
	}
}

func TestLayer_Move(t *testing.T) {
	sim := layout.NewSim([]*layout.SimNode{node(7, 50, 50)}, nil, nil)
	var hovered []*model.Executive
	l := NewLayer()
	l.OnHover = func(e *model.Executive) { hovered = append(hovered, e) }

	cursor, exec := l.Move(sim, 52, 51)
	if cursor != CursorPointer || exec == nil || exec.ID != 7 {
		t.Errorf("Move over node = %v, %v", cursor, exec)
	}
	if sim.HoverID == nil || *sim.HoverID != 7 {
		t.Errorf("HoverID = %v, want 7", sim.HoverID)
	}

	cursor, exec = l.Move(sim, 300, 300)
	if cursor != CursorDefault || exec != nil || sim.HoverID != nil {
		t.Errorf("Move off node = %v, %v, hover %v", cursor, exec, sim.HoverID)
	}

	if len(hovered) != 2 || hovered[0] == nil || hovered[1] != nil {
		t.Errorf("OnHover calls = %v", hovered)
	}

	l.Move(sim, 50, 50)
	l.Leave(sim)
	if sim.HoverID != nil {
		t.Error("Leave should clear hover")
	}
}

func TestLayer_Click(t *testing.T) {
	sim := layout.NewSim([]*layout.SimNode{node(3, 10, 10)}, nil, nil)
	var clicked []int64
	deselects := 0
	l := NewLayer()
	l.OnNodeClick = func(e model.Executive) { clicked = append(clicked, e.ID) }
	l.OnDeselect = func() { deselects++ }

	if ev := l.Click(sim, 12, 12); ev.Kind != EventSelect || ev.Node.ID != 3 {
		t.Errorf("Click on node = %+v", ev)
	}
	if ev := l.Click(sim, 500, 500); ev.Kind != EventDeselect {
		t.Errorf("Click on background = %+v", ev)
	}
	if len(clicked) != 1 || deselects != 1 {
		t.Errorf("callbacks: clicked=%v deselects=%d", clicked, deselects)
	}

	l.DeselectOnBackground = false
	if ev := l.Click(sim, 500, 500); ev.Kind != EventNone {
		t.Errorf("Click on background without deselect = %+v", ev)
	}
	if deselects != 1 {
		t.Error("OnDeselect fired although deselect-on-background is off")
	}
}

func TestLayer_ReadsLivePositions(t *testing.T) {
	n := node(1, 0, 0)
	sim := layout.NewSim([]*layout.SimNode{n}, nil, nil)
	l := NewLayer()
	if _, e := l.Move(sim, 100, 100); e != nil {
		t.Fatal("unexpected hit before move")
	}
	n.X, n.Y = 100, 100
	if _, e := l.Move(sim, 100, 100); e == nil {
		t.Error("hit test should see the node's new position")
	}
}
