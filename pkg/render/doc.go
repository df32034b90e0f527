// Package render holds visualization backends for component graphs.
//
// The [nodelink] subpackage draws a graph as a Graphviz diagram, one box
// per component and one arrow per link, colored by solve state:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// [nodelink]: github.com/matzehuels/treeflow/pkg/render/nodelink
package render
