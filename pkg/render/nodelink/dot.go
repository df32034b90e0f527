package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/treeflow/pkg/dag"
	"github.com/matzehuels/treeflow/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds slot names to edges and the component type and
	// output branch counts to node labels. When false, only the
	// component's display name is shown.
	Detailed bool
}

// Node fill colors by solve state.
const (
	colorSolved   = "palegreen"
	colorUnsolved = "lightsalmon"
	colorDisabled = "lightgrey"
	colorCycle    = "red"
)

// ToDOT converts a component graph to Graphviz DOT format. Nodes are
// colored by solve state and disabled components are drawn dashed. Links
// that close a cycle are drawn in red.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, c := range g.Components() {
		label := fmtLabel(g, c, opts.Detailed)
		attrs := fmtAttrs(c, label)
		fmt.Fprintf(&buf, "  %d [%s];\n", c.ID(), strings.Join(attrs, ", "))
	}

	back := backEdges(g.Dependencies())
	buf.WriteString("\n")
	for _, conn := range g.Connections() {
		var attrs []string
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", edgeLabel(g, conn)))
		}
		if back[[2]int{int(conn.From.Component), int(conn.To.Component)}] {
			attrs = append(attrs, "color="+colorCycle)
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %d -> %d;\n", conn.From.Component, conn.To.Component)
			continue
		}
		fmt.Fprintf(&buf, "  %d -> %d [%s];\n", conn.From.Component, conn.To.Component, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *graph.Graph, c *graph.Component, detailed bool) string {
	name := c.Name()
	if name == "" {
		name = fmt.Sprintf("%s#%d", c.Type(), c.ID())
	}
	if !detailed {
		return name
	}

	parts := []string{"type: " + c.Type()}
	for i := range c.NumOutputs() {
		tree, _ := g.OutputTree(graph.SlotRef{Component: c.ID(), Slot: i})
		parts = append(parts, fmt.Sprintf("%s: %d items / %d branches",
			slotName(c.OutputDef(i).Name, i), tree.NumItems(), tree.NumBranches()))
	}
	return name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(c *graph.Component, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case !c.Enabled():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor="+colorDisabled, "fontcolor=black")
	case c.Solved():
		attrs = append(attrs, "fillcolor="+colorSolved)
	default:
		attrs = append(attrs, "fillcolor="+colorUnsolved)
	}
	return attrs
}

func edgeLabel(g *graph.Graph, conn graph.Connection) string {
	from, _ := g.Component(conn.From.Component)
	to, _ := g.Component(conn.To.Component)
	return slotName(from.OutputDef(conn.From.Slot).Name, conn.From.Slot) +
		" → " + slotName(to.InputDef(conn.To.Slot).Name, conn.To.Slot)
}

func slotName(name string, i int) string {
	if name != "" {
		return name
	}
	return strconv.Itoa(i)
}

func backEdges(d *dag.DAG) map[[2]int]bool {
	out := make(map[[2]int]bool)
	for _, e := range d.BackEdges() {
		out[e] = true
	}
	return out
}

// Format names a Graphviz output format.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Render renders DOT source in the given format. FormatDOT returns the
// source unchanged.
func Render(ctx context.Context, dot string, format Format) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		svg, err := render(ctx, dot, graphviz.SVG)
		if err != nil {
			return nil, err
		}
		return normalizeViewBox(svg), nil
	case FormatPNG:
		return render(ctx, dot, graphviz.PNG)
	}
	return nil, fmt.Errorf("unsupported render format %q", format)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return Render(context.Background(), dot, FormatSVG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
