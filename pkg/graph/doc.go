// Package graph implements the treeflow dataflow engine: components with
// typed input and output slots, links between those slots, and the solve
// passes that evaluate them in dependency order.
//
// # Components and Slots
//
// A [Component] is built from a [Definition]: static slot metadata plus a
// [SolveFunc]. Every input slot holds one [datatree.Tree] and an
// [datatree.Access] mode that decides how many values of a branch form one
// argument. Every output slot holds the tree it last published.
//
// Components live in an arena inside the [Graph] and are addressed by
// [ComponentID]. Links are [SlotRef] pairs stored on the slots, so removing
// a component or a link is plain ID bookkeeping.
//
// # Local Solve
//
// [Graph.LocalSolve] walks the branches of the input with the most
// branches. For every branch it calls the SolveFunc as many times as the
// longest input branch has items, repeating the last item of shorter
// inputs (longest-list matching), and collects the results under the same
// branch path. Outputs declared with [datatree.AccessList] are then
// exploded with [datatree.Tree.OneToManyGraft]. Finally every output is
// published and transmitted to linked inputs.
//
// # Invalidation
//
// Setting an input, linking, unlinking and publishing never reach into
// other components directly. Each operation computes the set of components
// whose Solved flag it revokes and the Graph applies that set, together
// with everything downstream of it, in one place.
//
// # Solve Passes
//
//	g := graph.New(graph.WithLogger(logger))
//	a, _ := g.AddComponent(literal(2), "L1")
//	b, _ := g.AddComponent(literal(3), "L2")
//	sum, _ := g.AddComponent(add(), "Add2")
//	_ = g.AddConnection(graph.SlotRef{Component: a}, graph.SlotRef{Component: sum, Slot: 0})
//	_ = g.AddConnection(graph.SlotRef{Component: b}, graph.SlotRef{Component: sum, Slot: 1})
//
//	report, err := g.TopoSolve(ctx)      // runs L1, L2, Add2
//	_ = g.HardSet(graph.SlotRef{Component: a}, datatree.Scalar(datatree.Float(10)))
//	report, err = g.QuickTopoSolve(ctx)  // runs L1 and Add2 only
//
// Both passes derive the dependency graph with package dag and refuse to
// run anything when it contains a cycle.
//
// # Concurrency
//
// A Graph is single-threaded: every call runs to completion, and for any
// path A to B in the dependency graph A's solve finishes before B's starts.
// Callers sharing a Graph between goroutines must serialize access.
package graph
