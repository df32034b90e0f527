package graph

import (
	"fmt"
	"maps"

	"github.com/matzehuels/treeflow/pkg/datatree"
)

// ComponentID identifies a component inside one Graph. IDs are assigned by
// [Graph.AddComponent] starting at 1 and are never reused within a graph.
type ComponentID int

// SolveFunc computes one set of output values from one set of input
// arguments. It must return exactly one value per declared output on every
// call and must not modify the graph. An error marks the whole LocalSolve as
// failed.
type SolveFunc func(args []datatree.Value) ([]datatree.Value, error)

// PreSolveFunc runs once per LocalSolve before any SolveFunc call. It is the
// place for setup that should not repeat per argument set.
type PreSolveFunc func() error

// InputDef declares one input slot.
type InputDef struct {
	Name   string
	Access datatree.Access
	// Default seeds the slot when nothing is linked or set. A nil Default
	// leaves the slot empty, which blocks solving until it is fed.
	Default datatree.Value
}

// OutputDef declares one output slot. Outputs with [datatree.AccessList]
// are passed through [datatree.Tree.OneToManyGraft] after every solve.
type OutputDef struct {
	Name   string
	Access datatree.Access
}

// Definition is everything a component needs besides its identity: static
// slot metadata plus the solve callbacks.
type Definition struct {
	Type     string         // registry type name, e.g. "add"
	Params   map[string]any // construction parameters, kept for persistence
	Inputs   []InputDef
	Outputs  []OutputDef
	Solve    SolveFunc
	PreSolve PreSolveFunc // optional
}

func (d Definition) defaultTree(slot int) *datatree.Tree {
	if v := d.Inputs[slot].Default; v != nil {
		return datatree.Scalar(v)
	}
	return datatree.New()
}

// Component is a node of the graph: fixed input and output slots, a Solved
// flag and a solve callback. Components are created and mutated only
// through their Graph; the accessors here are read-only.
type Component struct {
	id      ComponentID
	name    string
	def     Definition
	inputs  []*inputSlot
	outputs []*outputSlot
	solved  bool
	enabled bool
}

func newComponent(id ComponentID, name string, def Definition) *Component {
	c := &Component{
		id:      id,
		name:    name,
		def:     def,
		inputs:  make([]*inputSlot, len(def.Inputs)),
		outputs: make([]*outputSlot, len(def.Outputs)),
		enabled: true,
	}
	for i := range def.Inputs {
		c.inputs[i] = &inputSlot{tree: def.defaultTree(i)}
	}
	for i := range def.Outputs {
		c.outputs[i] = &outputSlot{tree: datatree.New()}
	}
	return c
}

// ID returns the component's identifier.
func (c *Component) ID() ComponentID { return c.id }

// Name returns the display name given at creation.
func (c *Component) Name() string { return c.name }

// Type returns the definition's type name.
func (c *Component) Type() string { return c.def.Type }

// Params returns a copy of the construction parameters.
func (c *Component) Params() map[string]any { return maps.Clone(c.def.Params) }

// Solved reports whether the last LocalSolve completed cleanly and no input
// has changed since.
func (c *Component) Solved() bool { return c.solved }

// Enabled reports whether the component takes part in graph solves.
func (c *Component) Enabled() bool { return c.enabled }

// NumInputs returns the number of input slots.
func (c *Component) NumInputs() int { return len(c.inputs) }

// NumOutputs returns the number of output slots.
func (c *Component) NumOutputs() int { return len(c.outputs) }

// InputDef returns the declaration of input slot i.
func (c *Component) InputDef(i int) InputDef { return c.def.Inputs[i] }

// OutputDef returns the declaration of output slot i.
func (c *Component) OutputDef(i int) OutputDef { return c.def.Outputs[i] }

// Upstream returns the output feeding input slot i, if any.
func (c *Component) Upstream(i int) (SlotRef, bool) {
	in := c.inputs[i]
	if in.upstream == nil {
		return SlotRef{}, false
	}
	return *in.upstream, true
}

// Downstream returns the inputs fed by output slot i, in link order.
func (c *Component) Downstream(i int) []SlotRef {
	return append([]SlotRef(nil), c.outputs[i].downstream...)
}

// IsLiteral reports whether input slot i holds a tree set with HardSet
// rather than its default or a linked value.
func (c *Component) IsLiteral(i int) bool { return c.inputs[i].literal }

func (c *Component) String() string {
	if c.name != "" {
		return fmt.Sprintf("%s#%d(%s)", c.def.Type, c.id, c.name)
	}
	return fmt.Sprintf("%s#%d", c.def.Type, c.id)
}

func (c *Component) hasEmptyInput() bool {
	for _, in := range c.inputs {
		if in.tree.IsEmpty() {
			return true
		}
	}
	return false
}
