// Package dag provides the directed dependency graph used to schedule
// treeflow components.
//
// # Overview
//
// A treeflow graph stores no edge list of its own: links live on component
// slots. Before every solve pass the engine derives a [DAG] from those links
// (one node per component, one edge per slot link) and asks it for an
// execution order. Node IDs are the components' integer IDs.
//
//	g := dag.New(nil)
//	_ = g.AddNode(dag.Node{ID: 1, Label: "a"})
//	_ = g.AddNode(dag.Node{ID: 2, Label: "b"})
//	_ = g.AddEdge(dag.Edge{From: 1, To: 2})
//	_ = g.AddEdge(dag.Edge{From: 1, To: 2}) // second slot link, same pair
//	order, ok := g.TopoSort()               // [1 2], true
//
// # Unique In-Degree
//
// Several slot links between the same pair of components produce parallel
// edges. Scheduling only cares about distinct upstream components, so
// [DAG.TopoSort], [DAG.Layers] and [DAG.UniqueInDegree] count each upstream
// node once.
//
// # Cycles
//
// [DAG.TopoSort] reports false when a cycle prevents a complete order.
// [DAG.Validate], [DAG.BackEdges] and [DAG.CycleMembers] help describe the
// offending part of the graph in error messages.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
