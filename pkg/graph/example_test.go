package graph_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/graph"
)

func passThrough(v float64) graph.Definition {
	return graph.Definition{
		Type:    "literal",
		Inputs:  []graph.InputDef{{Name: "value", Default: datatree.Float(v)}},
		Outputs: []graph.OutputDef{{Name: "value"}},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			return args, nil
		},
	}
}

func sum() graph.Definition {
	return graph.Definition{
		Type:    "add",
		Inputs:  []graph.InputDef{{Name: "a"}, {Name: "b"}},
		Outputs: []graph.OutputDef{{Name: "sum"}},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			a, _ := datatree.AsFloat(args[0])
			b, _ := datatree.AsFloat(args[1])
			return []datatree.Value{datatree.Float(a + b)}, nil
		},
	}
}

func ExampleGraph_QuickTopoSolve() {
	ctx := context.Background()
	g := graph.New()
	l1, _ := g.AddComponent(passThrough(2), "L1")
	l2, _ := g.AddComponent(passThrough(3), "L2")
	add, _ := g.AddComponent(sum(), "Add2")
	_ = g.AddConnection(graph.SlotRef{Component: l1}, graph.SlotRef{Component: add, Slot: 0})
	_ = g.AddConnection(graph.SlotRef{Component: l2}, graph.SlotRef{Component: add, Slot: 1})

	report, _ := g.TopoSolve(ctx)
	out, _ := g.OutputTree(graph.SlotRef{Component: add})
	fmt.Println(report.Solved, out)

	_ = g.HardSet(graph.SlotRef{Component: l1}, datatree.Scalar(datatree.Float(10)))
	report, _ = g.QuickTopoSolve(ctx)
	out, _ = g.OutputTree(graph.SlotRef{Component: add})
	fmt.Println(report.Solved, out)
	// Output:
	// [1 2 3] {0}: [5]
	// [1 3] {0}: [13]
}
