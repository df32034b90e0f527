package dag

import (
	"errors"
	"slices"
)

var (
	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a directed cycle
	// exists. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Metadata maps are never nil after insertion.
type Metadata map[string]any

// Node is a vertex of the dependency graph.
type Node struct {
	ID    int      // Unique identifier
	Label string   // Display label
	Meta  Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge is a directed dependency from an upstream node to a downstream node.
// Several edges may join the same pair of nodes; each one usually stands
// for a distinct slot link.
type Edge struct {
	From int      // Upstream node ID
	To   int      // Downstream node ID
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// DAG is a directed multigraph over integer node IDs. Despite the name it
// may hold cycles; use [DAG.Validate] or [DAG.TopoSort] to check.
//
// Nodes are reported in insertion order, which makes every traversal in
// this package deterministic.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[int]*Node
	order    []int
	edges    []Edge
	outgoing map[int][]int // nodeID -> downstream IDs, one entry per edge
	incoming map[int][]int // nodeID -> upstream IDs, one entry per edge
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[int]*Node),
		outgoing: make(map[int][]int),
		incoming: make(map[int][]int),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph. Returns ErrDuplicateNodeID if a node
// with the same ID already exists. The node's Meta field is initialized to
// an empty map if nil.
func (d *DAG) AddNode(n Node) error {
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Multiple edges
// between the same nodes are allowed.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes one edge from→to if it exists. If multiple edges exist
// between the same nodes, only the first is removed.
func (d *DAG) RemoveEdge(from, to int) {
	if i := slices.IndexFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to }); i >= 0 {
		d.edges = slices.Delete(d.edges, i, i+1)
	}
	if i := slices.Index(d.outgoing[from], to); i >= 0 {
		d.outgoing[from] = slices.Delete(d.outgoing[from], i, i+1)
	}
	if i := slices.Index(d.incoming[to], from); i >= 0 {
		d.incoming[to] = slices.Delete(d.incoming[to], i, i+1)
	}
}

// RemoveNode removes the node and every edge touching it. Removing an
// unknown node is a no-op.
func (d *DAG) RemoveNode(id int) {
	if _, ok := d.nodes[id]; !ok {
		return
	}
	delete(d.nodes, id)
	d.order = slices.DeleteFunc(d.order, func(n int) bool { return n == id })
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.From == id || e.To == id })
	for _, child := range d.outgoing[id] {
		d.incoming[child] = slices.DeleteFunc(d.incoming[child], func(n int) bool { return n == id })
	}
	for _, parent := range d.incoming[id] {
		d.outgoing[parent] = slices.DeleteFunc(d.outgoing[parent], func(n int) bool { return n == id })
	}
	delete(d.outgoing, id)
	delete(d.incoming, id)
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.order))
	for i, id := range d.order {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// NodeIDs returns all node IDs in insertion order.
func (d *DAG) NodeIDs() []int { return slices.Clone(d.order) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id int) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Children returns downstream node IDs, one entry per edge. The returned
// slice should not be modified.
func (d *DAG) Children(id int) []int { return d.outgoing[id] }

// Parents returns upstream node IDs, one entry per edge. The returned slice
// should not be modified.
func (d *DAG) Parents(id int) []int { return d.incoming[id] }

// UniqueChildren returns the distinct downstream node IDs in first-seen order.
func (d *DAG) UniqueChildren(id int) []int { return unique(d.outgoing[id]) }

// UniqueParents returns the distinct upstream node IDs in first-seen order.
func (d *DAG) UniqueParents(id int) []int { return unique(d.incoming[id]) }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id int) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id int) int { return len(d.incoming[id]) }

// UniqueInDegree returns the number of distinct upstream nodes. Two edges
// from the same upstream node count once.
func (d *DAG) UniqueInDegree(id int) int { return len(unique(d.incoming[id])) }

// Sources returns the IDs of nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []int {
	var sources []int
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Sinks returns the IDs of nodes with no outgoing edges, in insertion order.
func (d *DAG) Sinks() []int {
	var sinks []int
	for _, id := range d.order {
		if len(d.outgoing[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// Descendants returns every node reachable from id, excluding id itself
// unless it lies on a cycle. The order is breadth-first.
func (d *DAG) Descendants(id int) []int {
	seen := map[int]bool{}
	var out []int
	queue := unique(d.outgoing[id])
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if seen[curr] {
			continue
		}
		seen[curr] = true
		out = append(out, curr)
		queue = append(queue, unique(d.outgoing[curr])...)
	}
	return out
}

func unique(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
