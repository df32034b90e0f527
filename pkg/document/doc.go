// Package document defines the saved form of a component graph.
//
// A [Document] lists every component with its type, construction
// parameters and literal inputs, plus the slot connections between them.
// It is the wire format for files, the HTTP API and the graph store.
//
// # Conversion
//
// [FromGraph] captures a live graph and [Document.Build] reconstructs one
// through a component registry. Component IDs are preserved, so a saved
// and reloaded graph has identical slot topology:
//
//	doc := document.FromGraph(g, "bridge")
//	g2, err := doc.Build(components.Default())
//
// # Formats
//
// Documents encode as JSON, TOML or YAML. [ReadFile] and [WriteFile] pick
// the format from the file extension (.json, .toml, .yaml, .yml).
// Decoding always validates: duplicate or non-positive component IDs,
// dangling connections, doubly linked inputs and literals on linked inputs
// are INVALID_DOCUMENT errors.
//
// [Results] snapshots solved outputs in the same encoding used for
// literals, for reporting after a solve.
package document
