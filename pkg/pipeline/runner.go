package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
	"github.com/matzehuels/treeflow/pkg/render/nodelink"
	"github.com/matzehuels/treeflow/pkg/store"
)

// Runner encapsulates pipeline execution with document storage and
// artifact caching. Both CLI and API use it.
//
// The Runner is stateless except for its stores and logger, so multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Registry *components.Registry
	Docs     store.Store
	Cache    store.Store
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil registry uses the built-in component
// types; nil stores use a NullStore.
func NewRunner(reg *components.Registry, docs, cache store.Store, logger *log.Logger) *Runner {
	if reg == nil {
		reg = components.Default()
	}
	if docs == nil {
		docs = store.NewNullStore()
	}
	if cache == nil {
		cache = store.NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Registry: reg, Docs: docs, Cache: cache, Logger: logger}
}

// Execute runs load → build → solve → render.
//
// Solve failures of individual components do not fail the run; they are
// listed in Result.Report. A cycle, an invalid document or a timeout does.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load and build
	loadStart := time.Now()
	doc, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	g, err := r.Build(doc, opts.Sets, logger)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Document = document.FromGraph(g, doc.Name)
	result.Document.ID = doc.ID
	result.DocumentHash = hashDocument(result.Document)
	result.Stats.Components = g.Len()
	result.Stats.Connections = len(g.Connections())
	result.Stats.LoadTime = time.Since(loadStart)

	logger.Info("loaded graph",
		"components", result.Stats.Components,
		"connections", result.Stats.Connections,
		"duration", result.Stats.LoadTime)

	// Stage 2: Solve
	solveStart := time.Now()
	report, err := Solve(ctx, g, opts.Mode)
	if err != nil {
		return nil, err
	}
	result.Report = report
	result.Results = document.Results(g)
	result.Stats.SolveTime = time.Since(solveStart)

	logger.Info("solved graph",
		"mode", opts.Mode,
		"solved", len(report.Solved),
		"failed", len(report.Failed),
		"duration", result.Stats.SolveTime)

	if opts.SaveKey != "" {
		if err := store.SaveDocument(ctx, r.Docs, opts.SaveKey, result.Document); err != nil {
			return nil, err
		}
		logger.Info("saved document", "key", opts.SaveKey)
	}

	// Stage 3: Render
	if len(opts.Formats) == 0 {
		return result, nil
	}
	renderStart := time.Now()
	artifacts, hit, err := r.Render(ctx, g, result.DocumentHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load returns the document named by opts: a file, a stored key or the
// inline document.
func (r *Runner) Load(ctx context.Context, opts Options) (document.Document, error) {
	switch {
	case opts.Document != nil:
		if err := opts.Document.Validate(); err != nil {
			return document.Document{}, err
		}
		return *opts.Document, nil
	case opts.Key != "":
		return store.LoadDocument(ctx, r.Docs, opts.Key)
	case opts.Path != "":
		return document.ReadFile(opts.Path)
	}
	return document.Document{}, errors.New(errors.ErrCodeInvalidInput, "no document source")
}

// Build reconstructs the document's graph and applies the overrides.
func (r *Runner) Build(doc document.Document, sets []Set, logger *log.Logger) (*graph.Graph, error) {
	g, err := doc.Build(r.Registry, graph.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		if err := s.Apply(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Solve runs one solve pass bounded by ctx. The pass itself is not
// interruptible; on timeout the graph is abandoned and TIMEOUT returned.
func Solve(ctx context.Context, g *graph.Graph, mode string) (*graph.Report, error) {
	type outcome struct {
		report *graph.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		if mode == graph.ModeQuick {
			o.report, o.err = g.QuickTopoSolve(ctx)
		} else {
			o.report, o.err = g.TopoSolve(ctx)
		}
		done <- o
	}()

	select {
	case o := <-done:
		return o.report, o.err
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "solve")
	}
}

// Render produces every requested format, reusing cached artifacts for an
// identical document unless opts.Refresh is set. It reports whether all
// artifacts came from the cache.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, docHash string, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit := true
	var dot string

	for _, format := range opts.Formats {
		key := opts.artifactKey(docHash, format)
		if !opts.Refresh {
			if data, err := r.Cache.Get(ctx, key); err == nil {
				artifacts[format] = data
				continue
			}
		}
		allHit = false

		if dot == "" {
			dot = nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed})
		}
		data, err := nodelink.Render(ctx, dot, nodelink.Format(format))
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data

		if err := r.Cache.Put(ctx, key, data); err != nil {
			r.logger(opts).Warn("artifact cache write failed", "format", format, "err", err)
		}
	}
	return artifacts, allHit, nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// hashDocument hashes the document's content, ignoring its ID.
func hashDocument(doc document.Document) string {
	doc.ID = ""
	data, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return ""
	}
	return store.Hash(data)
}
