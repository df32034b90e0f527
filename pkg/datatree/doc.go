// Package datatree provides the hierarchical, path-addressed value
// container exchanged between components of a treeflow graph.
//
// # Overview
//
// A [Tree] maps branch [Path] values (integer sequences such as {0;2}) to
// ordered lists of [Value]. Ancestor paths of a branch are implicit: {0;2}
// can exist without {0} being materialised. Branches are always iterated
// in path order as defined by [Compare].
//
//	t := datatree.New()
//	t.Add(datatree.P(0), datatree.Float(1), datatree.Float(2))
//	t.Add(datatree.P(1), datatree.Float(3))
//	fmt.Println(t)
//	// {0}: [1, 2]
//	// {1}: [3]
//
// [Tree.Add] appends and never overwrites. Lookups of missing paths or
// out-of-range indices report "no data" instead of failing.
//
// # Values
//
// [Value] is a closed set of variants: [None], [Bool], [Int], [Float],
// [String], [Vector], [Matrix], [List] and the opaque [Geometry] payload.
// The engine never inspects payload types; type checks belong to whatever
// consumes the values.
//
// # Iteration
//
// The cursor methods [Tree.Begin], [Tree.NextItem] and [Tree.NextBranch]
// implement longest-list matching: once a branch or an item list is
// exhausted the cursor keeps returning its last element and raises an
// overflow flag, so a short input is reused against a longer one.
//
// # Reshaping
//
// [Tree.Graft], [Tree.OneToManyGraft], [Tree.Flatten], [Tree.Simplify] and
// [Tree.FlipMatrix] return new trees and leave the receiver untouched.
// OneToManyGraft is applied by the engine to every List-access output so
// that list-valued results become one branch per element.
//
// # Encoding
//
// [Path.String] and [ParsePath] round-trip exactly and are stable across
// versions; persisted literal trees depend on it. [EncodeTree] and
// [DecodeTree] convert trees to a tagged form usable from JSON, TOML and
// YAML. [Tree.Fingerprint] hashes a canonical text form with blake3, so
// trees holding non-finite floats fingerprint as reliably as any other.
package datatree
