package graph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/treeflow/pkg/datatree"
)

// SlotRef addresses one slot of one component. Whether it names an input or
// an output depends on where it is used.
type SlotRef struct {
	Component ComponentID `json:"component" toml:"component" yaml:"component"`
	Slot      int         `json:"slot" toml:"slot" yaml:"slot"`
}

func (r SlotRef) String() string { return fmt.Sprintf("%d:%d", r.Component, r.Slot) }

// Connection links an output slot to an input slot.
type Connection struct {
	From SlotRef `json:"from" toml:"from" yaml:"from"`
	To   SlotRef `json:"to" toml:"to" yaml:"to"`
}

type inputSlot struct {
	tree     *datatree.Tree
	upstream *SlotRef
	literal  bool
}

type outputSlot struct {
	tree       *datatree.Tree
	downstream []SlotRef
}

// invalidation is the set of components whose Solved flag a slot operation
// revoked. Slot operations only compute it; the Graph applies it.
type invalidation map[ComponentID]struct{}

func (inv invalidation) add(id ComponentID) { inv[id] = struct{}{} }

func (inv invalidation) merge(o invalidation) {
	for id := range o {
		inv[id] = struct{}{}
	}
}

// hardSet stores an external tree on an input, severing any upstream link.
func (g *Graph) hardSet(ref SlotRef, tree *datatree.Tree) invalidation {
	inv := g.unlink(ref)
	in := g.comps[ref.Component].inputs[ref.Slot]
	in.tree = tree.Clone()
	in.literal = true
	inv.add(ref.Component)
	return inv
}

// softSet stores a tree transmitted from the linked upstream output.
func (g *Graph) softSet(ref SlotRef, tree *datatree.Tree) invalidation {
	in := g.comps[ref.Component].inputs[ref.Slot]
	in.tree = tree.Clone()
	in.literal = false
	return invalidation{ref.Component: {}}
}

// defaultSet resets an input to its default value, keeping any link.
func (g *Graph) defaultSet(ref SlotRef) invalidation {
	c := g.comps[ref.Component]
	in := c.inputs[ref.Slot]
	in.tree = c.def.defaultTree(ref.Slot)
	in.literal = false
	return invalidation{ref.Component: {}}
}

// lose breaks any link and resets the input to its default value.
func (g *Graph) lose(ref SlotRef) invalidation {
	inv := g.unlink(ref)
	inv.merge(g.defaultSet(ref))
	return inv
}

// unlink removes the link feeding the input, if any, without touching its
// tree.
func (g *Graph) unlink(ref SlotRef) invalidation {
	in := g.comps[ref.Component].inputs[ref.Slot]
	if in.upstream == nil {
		return invalidation{}
	}
	from := *in.upstream
	if up, ok := g.comps[from.Component]; ok {
		out := up.outputs[from.Slot]
		out.downstream = slices.DeleteFunc(out.downstream, func(r SlotRef) bool { return r == ref })
	}
	in.upstream = nil
	return invalidation{}
}

// link connects from to to, replacing any previous upstream of to, and
// seeds to with from's current tree.
func (g *Graph) link(from, to SlotRef) invalidation {
	inv := g.unlink(to)
	out := g.comps[from.Component].outputs[from.Slot]
	out.downstream = append(out.downstream, to)
	up := from
	g.comps[to.Component].inputs[to.Slot].upstream = &up
	inv.merge(g.softSet(to, out.tree))
	return inv
}

// publish stores a tree on an output and transmits it to every linked input.
func (g *Graph) publish(ref SlotRef, tree *datatree.Tree) invalidation {
	out := g.comps[ref.Component].outputs[ref.Slot]
	out.tree = tree
	inv := invalidation{}
	for _, to := range out.downstream {
		inv.merge(g.softSet(to, tree))
	}
	return inv
}
