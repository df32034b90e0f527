package dag

// Validate returns ErrGraphHasCycle if the graph contains a directed cycle
// and nil otherwise. Self-loops count as cycles.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	if len(d.BackEdges()) > 0 {
		return ErrGraphHasCycle
	}
	return nil
}

// BackEdges returns the edges that close a cycle during a depth-first walk
// started from the sources and then from any unvisited node. Removing every
// returned edge makes the graph acyclic; the choice is deterministic but not
// guaranteed to be minimal.
//
// Each returned pair is (from, to).
func (d *DAG) BackEdges() [][2]int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[int]int, len(d.nodes))
	var backEdges [][2]int

	var dfs func(id int)
	dfs = func(id int) {
		color[id] = gray
		for _, child := range d.UniqueChildren(id) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]int{id, child})
			}
		}
		color[id] = black
	}

	for _, id := range d.Sources() {
		if color[id] == white {
			dfs(id)
		}
	}
	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
		}
	}
	return backEdges
}

// CycleMembers returns the nodes that a topological sort cannot place:
// nodes on a cycle and everything downstream of one. It returns nil for an
// acyclic graph.
func (d *DAG) CycleMembers() []int {
	order, ok := d.TopoSort()
	if ok {
		return nil
	}
	placed := make(map[int]bool, len(order))
	for _, id := range order {
		placed[id] = true
	}
	var out []int
	for _, id := range d.order {
		if !placed[id] {
			out = append(out, id)
		}
	}
	return out
}
