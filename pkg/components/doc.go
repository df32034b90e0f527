// Package components provides the built-in component types of treeflow and
// the registry that builds them by name.
//
// A component type is a [Factory]: it decodes construction parameters with
// mapstructure and returns a [graph.Definition]. Documents store only the
// type name and parameters, so reloading a graph is a registry lookup per
// component.
//
//	reg := components.Default()
//	def, err := reg.New("series", map[string]any{"start": 0, "step": 2, "count": 5})
//	id, err := g.AddComponent(def, "evens")
//
// # Built-in Types
//
// Sources: literal (input slot settable from outside, copied to the output)
// and number (constant). Arithmetic: add, subtract, multiply, divide,
// negate. Lists: series, range (both explode into one branch per element),
// length, item. Other: concat, vector, and expr, which evaluates an
// expr-lang program over named inputs.
//
// # List Outputs
//
// series and range take Item inputs and produce a List output, which the
// engine spreads into sub-branches with OneToManyGraft. Each input branch
// must therefore carry a single value: a branch such as count = {0}: [2, 3]
// yields two lists in one branch, which cannot be spread, and the output is
// published empty (INCONSISTENT_SHAPE in the solve report). Graft the input
// first so that each value sits in its own branch.
package components
