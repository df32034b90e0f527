package dag

import (
	"errors"
	"slices"
	"testing"
)

func chain(ids ...int) *DAG {
	g := New(nil)
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}
	for i := 1; i < len(ids); i++ {
		_ = g.AddEdge(Edge{From: ids[i-1], To: ids[i]})
	}
	return g
}

func TestAddNode_Duplicate(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{ID: 1}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if err := g.AddNode(Node{ID: 1}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode() duplicate error = %v, want ErrDuplicateNodeID", err)
	}
	n, ok := g.Node(1)
	if !ok || n.Meta == nil {
		t.Errorf("Node(1) = %v, %v; want node with non-nil Meta", n, ok)
	}
}

func TestAddEdge_UnknownNodes(t *testing.T) {
	g := chain(1)
	if err := g.AddEdge(Edge{From: 9, To: 1}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge() error = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: 1, To: 9}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge() error = %v, want ErrUnknownTargetNode", err)
	}
}

func TestRemoveEdge_OnlyFirst(t *testing.T) {
	g := chain(1, 2)
	_ = g.AddEdge(Edge{From: 1, To: 2})
	g.RemoveEdge(1, 2)
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if g.InDegree(2) != 1 || g.OutDegree(1) != 1 {
		t.Errorf("degrees = in %d out %d, want 1 1", g.InDegree(2), g.OutDegree(1))
	}
}

func TestRemoveNode(t *testing.T) {
	g := chain(1, 2, 3)
	g.RemoveNode(2)
	if g.NodeCount() != 2 || g.EdgeCount() != 0 {
		t.Fatalf("counts = %d nodes %d edges, want 2 0", g.NodeCount(), g.EdgeCount())
	}
	if len(g.Children(1)) != 0 || len(g.Parents(3)) != 0 {
		t.Errorf("adjacency not cleared: children(1)=%v parents(3)=%v", g.Children(1), g.Parents(3))
	}
	if got := g.NodeIDs(); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("NodeIDs() = %v, want [1 3]", got)
	}
	g.RemoveNode(42)
}

func TestSourcesSinks(t *testing.T) {
	g := chain(1, 2, 3)
	_ = g.AddNode(Node{ID: 4})
	if got := g.Sources(); !slices.Equal(got, []int{1, 4}) {
		t.Errorf("Sources() = %v, want [1 4]", got)
	}
	if got := g.Sinks(); !slices.Equal(got, []int{3, 4}) {
		t.Errorf("Sinks() = %v, want [3 4]", got)
	}
}

func TestDescendants(t *testing.T) {
	g := chain(1, 2, 3)
	_ = g.AddNode(Node{ID: 4})
	_ = g.AddEdge(Edge{From: 1, To: 4})
	got := g.Descendants(1)
	if !slices.Equal(got, []int{2, 4, 3}) {
		t.Errorf("Descendants(1) = %v, want [2 4 3]", got)
	}
	if got := g.Descendants(3); len(got) != 0 {
		t.Errorf("Descendants(3) = %v, want empty", got)
	}
}

func TestTopoSort(t *testing.T) {
	tests := []struct {
		name  string
		build func() *DAG
		want  []int
		ok    bool
	}{
		{
			name:  "empty",
			build: func() *DAG { return New(nil) },
			want:  []int{},
			ok:    true,
		},
		{
			name:  "chain",
			build: func() *DAG { return chain(3, 1, 2) },
			want:  []int{3, 1, 2},
			ok:    true,
		},
		{
			name: "diamond with parallel edges",
			build: func() *DAG {
				g := chain(1, 2, 4)
				_ = g.AddNode(Node{ID: 3})
				_ = g.AddEdge(Edge{From: 1, To: 3})
				_ = g.AddEdge(Edge{From: 3, To: 4})
				_ = g.AddEdge(Edge{From: 3, To: 4})
				return g
			},
			want: []int{1, 2, 3, 4},
			ok:   true,
		},
		{
			name: "cycle",
			build: func() *DAG {
				g := chain(1, 2)
				_ = g.AddEdge(Edge{From: 2, To: 1})
				return g
			},
			want: []int{},
			ok:   false,
		},
		{
			name: "self loop",
			build: func() *DAG {
				g := chain(1)
				_ = g.AddEdge(Edge{From: 1, To: 1})
				return g
			},
			want: []int{},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.build().TopoSort()
			if ok != tt.ok {
				t.Errorf("TopoSort() ok = %v, want %v", ok, tt.ok)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("TopoSort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayers(t *testing.T) {
	g := chain(1, 2, 3)
	_ = g.AddEdge(Edge{From: 1, To: 3})
	layers := g.Layers()
	want := map[int]int{1: 0, 2: 1, 3: 2}
	for id, layer := range want {
		if layers[id] != layer {
			t.Errorf("Layers()[%d] = %d, want %d", id, layers[id], layer)
		}
	}
}

func TestValidate(t *testing.T) {
	g := chain(1, 2, 3)
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	_ = g.AddEdge(Edge{From: 3, To: 1})
	if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
	}
	if back := g.BackEdges(); len(back) != 1 {
		t.Errorf("BackEdges() = %v, want one edge", back)
	}
}

func TestCycleMembers_IncludesDownstream(t *testing.T) {
	g := chain(1, 2, 3, 4)
	_ = g.AddEdge(Edge{From: 3, To: 2})
	if got := g.CycleMembers(); !slices.Equal(got, []int{2, 3, 4}) {
		t.Errorf("CycleMembers() = %v, want [2 3 4]", got)
	}
	if got := chain(1, 2).CycleMembers(); got != nil {
		t.Errorf("CycleMembers() acyclic = %v, want nil", got)
	}
}
