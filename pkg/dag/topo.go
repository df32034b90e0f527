package dag

// TopoSort orders nodes so that every node comes after all of its upstream
// nodes, using Kahn's algorithm over unique in-degrees: fan-in from the same
// upstream node through several edges counts once.
//
// # Algorithm
//
//  1. Compute each node's unique in-degree
//  2. Seed a FIFO worklist with the zero in-degree nodes, in insertion order
//  3. Pop a node, append it to the order, and decrement the unique in-degree
//     of each distinct downstream node; enqueue any that reach zero
//  4. Repeat until the worklist is empty
//
// TopoSort reports true iff the order contains every node. On false the
// graph has a cycle and the returned order is a partial prefix that must
// not be used for scheduling.
//
// Time complexity is O(V + E).
func (d *DAG) TopoSort() ([]int, bool) {
	inDegree := make(map[int]int, len(d.order))
	queue := make([]int, 0, len(d.order))
	for _, id := range d.order {
		degree := d.UniqueInDegree(id)
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]int, 0, len(d.order))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, child := range d.UniqueChildren(curr) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return order, len(order) == len(d.order)
}

// Layers assigns each node a depth: sources sit at layer 0 and every other
// node one below its deepest upstream node. It uses the same Kahn traversal
// as TopoSort; nodes on a cycle never reach zero in-degree and keep layer 0.
func (d *DAG) Layers() map[int]int {
	inDegree := make(map[int]int, len(d.order))
	layers := make(map[int]int, len(d.order))
	queue := make([]int, 0, len(d.order))

	for _, id := range d.order {
		layers[id] = 0
		degree := d.UniqueInDegree(id)
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range d.UniqueChildren(curr) {
			if layer := layers[curr] + 1; layer > layers[child] {
				layers[child] = layer
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return layers
}
