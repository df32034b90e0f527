// Package pkg provides the core libraries for treeflow, a dataflow graph
// engine.
//
// # Overview
//
// A treeflow graph is a set of components. Each component has typed input
// and output slots and a solve function; connections carry data trees from
// outputs to inputs. The pkg directory is organized into three areas:
//
//  1. Engine: [datatree] (path-addressed value trees), [dag] (topological
//     order and cycle detection) and [graph] (components, slots, solving)
//  2. Content: [components] (built-in component types) and [document]
//     (serialised graphs in JSON, TOML and YAML)
//  3. Infrastructure: [store] (document and artifact storage), [render]
//     (node-link diagrams), [pipeline] (load → build → solve → render),
//     [session] (live graphs for incremental editing), [server] (HTTP API),
//     [metrics] and [observability]
//
// # Architecture
//
// The typical data flow:
//
//	document (file or store)
//	         ↓
//	    [document] Build (components resolved through the registry)
//	         ↓
//	    [graph] TopoSolve / QuickTopoSolve
//	         ↓
//	    [document] Results, [render/nodelink] diagrams
//
// # Quick Start
//
//	doc, _ := document.ReadFile("graph.yaml")
//	g, _ := doc.Build(components.Default())
//	report, err := g.TopoSolve(ctx)
//	if err != nil {
//	    return err // cycle: nothing ran
//	}
//	for _, r := range document.Results(g) {
//	    fmt.Println(r.ID, r.Type, r.Solved, r.Outputs)
//	}
//	_ = report.OK()
//
// Or run the whole pipeline, with stores and rendering:
//
//	runner := pipeline.NewRunner(nil, docs, cache, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "graph.yaml",
//	    Formats: []string{pipeline.FormatSVG},
//	})
package pkg
