package graph

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treeflow/pkg/dag"
	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/errors"
)

// Graph owns a set of components and the links between their slots.
//
// Components live in an arena keyed by [ComponentID]; links are stored as
// [SlotRef] pairs on the slots themselves and the dependency graph is
// derived from them on demand.
//
// The zero value is not usable - use New. A Graph is not safe for
// concurrent use; every operation runs to completion before returning.
type Graph struct {
	comps  map[ComponentID]*Component
	order  []ComponentID
	nextID ComponentID
	logger *log.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for solve passes and soft failures.
// Without it the graph logs nothing.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		comps:  make(map[ComponentID]*Component),
		nextID: 1,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Logger returns the graph's logger.
func (g *Graph) Logger() *log.Logger { return g.logger }

// AddComponent adds a component built from def and returns its new ID.
// The component starts Unsolved with every input at its default value.
func (g *Graph) AddComponent(def Definition, name string) (ComponentID, error) {
	id := g.nextID
	if err := g.AddComponentWithID(id, def, name); err != nil {
		return 0, err
	}
	return id, nil
}

// AddComponentWithID adds a component under a caller-chosen ID, as needed
// when reloading a saved graph. Later calls to AddComponent continue past
// the highest ID seen.
func (g *Graph) AddComponentWithID(id ComponentID, def Definition, name string) error {
	if id <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "component id must be positive, got %d", id)
	}
	if _, exists := g.comps[id]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "component id %d already in use", id)
	}
	if def.Solve == nil {
		return errors.New(errors.ErrCodeInvalidInput, "component %q has no solve function", def.Type)
	}
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	c := newComponent(id, name, def)
	g.comps[id] = c
	g.order = append(g.order, id)
	if id >= g.nextID {
		g.nextID = id + 1
	}
	g.logger.Debug("component added", "component", c)
	return nil
}

// DeleteComponent disconnects every slot of the component in both
// directions and removes it. Inputs it fed fall back to their defaults and
// their owners become Unsolved.
func (g *Graph) DeleteComponent(id ComponentID) error {
	c, err := g.component(id)
	if err != nil {
		return err
	}
	inv := invalidation{}
	for i := range c.inputs {
		inv.merge(g.unlink(SlotRef{id, i}))
	}
	for _, out := range c.outputs {
		for _, to := range slices.Clone(out.downstream) {
			inv.merge(g.lose(to))
		}
	}
	delete(inv, id)
	g.apply(inv)

	delete(g.comps, id)
	g.order = slices.DeleteFunc(g.order, func(n ComponentID) bool { return n == id })
	g.logger.Debug("component deleted", "component", c, "roots", g.Roots())
	return nil
}

// AddConnection links an output slot to an input slot. Any existing link
// into the input is replaced, and the input immediately receives the
// output's current tree. One output may feed any number of inputs.
//
// Linking a component to itself is rejected. Longer cycles are allowed
// here and reported by [Graph.IsAcyclic] and the solve passes.
func (g *Graph) AddConnection(from, to SlotRef) error {
	if err := g.checkOutput(from); err != nil {
		return err
	}
	if err := g.checkInput(to); err != nil {
		return err
	}
	if from.Component == to.Component {
		return errors.New(errors.ErrCodeInvalidConnection, "cannot connect component %d to itself", from.Component)
	}
	g.apply(g.link(from, to))
	return nil
}

// DeleteConnection removes the link from one output to one input and resets
// the input to its default value.
func (g *Graph) DeleteConnection(from, to SlotRef) error {
	if err := g.checkInput(to); err != nil {
		return err
	}
	up, ok := g.comps[to.Component].Upstream(to.Slot)
	if !ok || up != from {
		return errors.New(errors.ErrCodeNotFound, "no connection %s -> %s", from, to)
	}
	g.apply(g.lose(to))
	return nil
}

// HardSet stores an external tree on an input slot. Any upstream link is
// severed first, and the owner becomes Unsolved. A nil tree stores an
// empty tree.
func (g *Graph) HardSet(ref SlotRef, tree *datatree.Tree) error {
	if err := g.checkInput(ref); err != nil {
		return err
	}
	g.apply(g.hardSet(ref, tree))
	return nil
}

// DefaultSet resets an input to its default value without breaking its link.
// The next transmit from upstream overwrites it again.
func (g *Graph) DefaultSet(ref SlotRef) error {
	if err := g.checkInput(ref); err != nil {
		return err
	}
	g.apply(g.defaultSet(ref))
	return nil
}

// Lose breaks any link into the input and resets it to its default value.
func (g *Graph) Lose(ref SlotRef) error {
	if err := g.checkInput(ref); err != nil {
		return err
	}
	g.apply(g.lose(ref))
	return nil
}

// DisableSolve excludes a component from graph solves. It reports Unsolved
// until re-enabled and solved again; its outputs keep their last trees.
func (g *Graph) DisableSolve(id ComponentID) error {
	c, err := g.component(id)
	if err != nil {
		return err
	}
	c.enabled = false
	c.solved = false
	return nil
}

// EnableSolve lets a disabled component take part in graph solves again.
func (g *Graph) EnableSolve(id ComponentID) error {
	c, err := g.component(id)
	if err != nil {
		return err
	}
	c.enabled = true
	return nil
}

// Component returns the component with the given ID.
func (g *Graph) Component(id ComponentID) (*Component, bool) {
	c, ok := g.comps[id]
	return c, ok
}

// Components returns every component in insertion order.
func (g *Graph) Components() []*Component {
	out := make([]*Component, len(g.order))
	for i, id := range g.order {
		out[i] = g.comps[id]
	}
	return out
}

// Len returns the number of components.
func (g *Graph) Len() int { return len(g.order) }

// Connections returns every link, ordered by downstream component and slot.
func (g *Graph) Connections() []Connection {
	var out []Connection
	for _, id := range g.order {
		c := g.comps[id]
		for i, in := range c.inputs {
			if in.upstream != nil {
				out = append(out, Connection{From: *in.upstream, To: SlotRef{id, i}})
			}
		}
	}
	return out
}

// Roots returns the components with no linked inputs, in insertion order.
func (g *Graph) Roots() []ComponentID {
	var roots []ComponentID
	for _, id := range g.Dependencies().Sources() {
		roots = append(roots, ComponentID(id))
	}
	return roots
}

// InputTree returns a copy of the tree currently held by an input slot.
func (g *Graph) InputTree(ref SlotRef) (*datatree.Tree, error) {
	if err := g.checkInput(ref); err != nil {
		return nil, err
	}
	return g.comps[ref.Component].inputs[ref.Slot].tree.Clone(), nil
}

// OutputTree returns a copy of the tree last published by an output slot.
func (g *Graph) OutputTree(ref SlotRef) (*datatree.Tree, error) {
	if err := g.checkOutput(ref); err != nil {
		return nil, err
	}
	return g.comps[ref.Component].outputs[ref.Slot].tree.Clone(), nil
}

// Dependencies derives the component dependency multigraph: one node per
// component, one edge per link. Node IDs are component IDs.
func (g *Graph) Dependencies() *dag.DAG {
	d := dag.New(nil)
	for _, id := range g.order {
		c := g.comps[id]
		_ = d.AddNode(dag.Node{
			ID:    int(id),
			Label: c.String(),
			Meta:  dag.Metadata{"type": c.def.Type, "solved": c.solved, "enabled": c.enabled},
		})
	}
	for _, conn := range g.Connections() {
		_ = d.AddEdge(dag.Edge{
			From: int(conn.From.Component),
			To:   int(conn.To.Component),
			Meta: dag.Metadata{"from_slot": conn.From.Slot, "to_slot": conn.To.Slot},
		})
	}
	return d
}

// apply revokes Solved on every invalidated component and, transitively, on
// everything downstream of it.
func (g *Graph) apply(inv invalidation) {
	if len(inv) == 0 {
		return
	}
	deps := g.Dependencies()
	for id := range inv {
		c, ok := g.comps[id]
		if !ok {
			continue
		}
		c.solved = false
		for _, down := range deps.Descendants(int(id)) {
			g.comps[ComponentID(down)].solved = false
		}
	}
}

func (g *Graph) component(id ComponentID) (*Component, error) {
	c, ok := g.comps[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeComponentNotFound, "component %d not found", id)
	}
	return c, nil
}

func (g *Graph) checkInput(ref SlotRef) error {
	c, err := g.component(ref.Component)
	if err != nil {
		return err
	}
	if ref.Slot < 0 || ref.Slot >= len(c.inputs) {
		return errors.New(errors.ErrCodeSlotNotFound, "component %s has no input %d", c, ref.Slot)
	}
	return nil
}

func (g *Graph) checkOutput(ref SlotRef) error {
	c, err := g.component(ref.Component)
	if err != nil {
		return err
	}
	if ref.Slot < 0 || ref.Slot >= len(c.outputs) {
		return errors.New(errors.ErrCodeSlotNotFound, "component %s has no output %d", c, ref.Slot)
	}
	return nil
}
