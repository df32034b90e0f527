// Package nodelink renders component graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT format, then render it:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := nodelink.Render(ctx, dot, nodelink.FormatPNG)
//
// # Appearance
//
// Solved components are green, unsolved ones salmon and disabled ones grey
// with a dashed outline. A link that closes a cycle is drawn in red, so a
// graph rejected by TopoSolve can still be inspected. With
// [Options.Detailed], edges carry "output → input" slot names and node
// labels list the component type and the size of every output tree.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering, so no Graphviz installation is needed.
package nodelink
