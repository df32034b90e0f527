package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/graph"
)

func source(v float64) graph.Definition {
	return graph.Definition{
		Type:    "number",
		Outputs: []graph.OutputDef{{Name: "value"}},
		Solve: func([]datatree.Value) ([]datatree.Value, error) {
			return []datatree.Value{datatree.Float(v)}, nil
		},
	}
}

func pass() graph.Definition {
	return graph.Definition{
		Type:    "pass",
		Inputs:  []graph.InputDef{{Name: "in"}},
		Outputs: []graph.OutputDef{{Name: "out"}},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			return args, nil
		},
	}
}

func chain(t *testing.T) (*graph.Graph, graph.ComponentID, graph.ComponentID) {
	t.Helper()
	g := graph.New()
	a, _ := g.AddComponent(source(1), "a")
	b, _ := g.AddComponent(pass(), "")
	if err := g.AddConnection(graph.SlotRef{Component: a}, graph.SlotRef{Component: b}); err != nil {
		t.Fatal(err)
	}
	return g, a, b
}

func TestToDOT_Basic(t *testing.T) {
	g, _, _ := chain(t)
	dot := ToDOT(g, Options{})

	for _, want := range []string{"digraph G", `label="a"`, `label="pass#2"`, "1 -> 2;"} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_SolveState(t *testing.T) {
	g, _, b := chain(t)
	if strings.Contains(ToDOT(g, Options{}), colorSolved) {
		t.Error("unsolved graph should have no solved nodes")
	}

	if _, err := g.TopoSolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(ToDOT(g, Options{}), colorSolved); n != 2 {
		t.Errorf("solved nodes = %d, want 2", n)
	}

	_ = g.DisableSolve(b)
	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, "dashed") || !strings.Contains(dot, colorDisabled) {
		t.Errorf("disabled component not dashed grey:\n%s", dot)
	}
}

func TestToDOT_Detailed(t *testing.T) {
	g, _, _ := chain(t)
	_, _ = g.TopoSolve(context.Background())
	dot := ToDOT(g, Options{Detailed: true})

	for _, want := range []string{"type: number", "value: 1 items / 1 branches", `label="value → in"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed ToDOT() missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_CycleHighlighted(t *testing.T) {
	g := graph.New()
	a, _ := g.AddComponent(pass(), "a")
	b, _ := g.AddComponent(pass(), "b")
	_ = g.AddConnection(graph.SlotRef{Component: a}, graph.SlotRef{Component: b})
	_ = g.AddConnection(graph.SlotRef{Component: b}, graph.SlotRef{Component: a})

	dot := ToDOT(g, Options{})
	if strings.Count(dot, "color="+colorCycle) != 1 {
		t.Errorf("want exactly one red back edge:\n%s", dot)
	}
}

func TestRender_DOTPassthrough(t *testing.T) {
	out, err := Render(context.Background(), "digraph G {}", FormatDOT)
	if err != nil || string(out) != "digraph G {}" {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
	if _, err := Render(context.Background(), "digraph G {}", "gif"); err == nil {
		t.Error("Render(gif) should fail")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
}
