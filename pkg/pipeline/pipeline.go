// Package pipeline runs the load → solve → render sequence shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Load: read a document from a file, the document store, or inline
//  2. Build: resolve component types and apply literal overrides ([Set])
//  3. Solve: run a full or quick topological solve
//  4. Render: produce DOT, SVG or PNG diagrams of the solved graph
//
// Rendered artifacts are cached by the content hash of the built document,
// so re-running an unchanged graph skips Graphviz.
//
// # Usage
//
//	runner := pipeline.NewRunner(components.Default(), docs, cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "bridge.yaml",
//	    Sets:    []pipeline.Set{set},
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
	"github.com/matzehuels/treeflow/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultTimeout bounds one pipeline run.
	DefaultTimeout = 30 * time.Second

	// DefaultMode is the solve mode used when none is given.
	DefaultMode = graph.ModeFull
)

// Format constants for output formats.
const (
	FormatDOT = string(nodelink.FormatDOT)
	FormatSVG = string(nodelink.FormatSVG)
	FormatPNG = string(nodelink.FormatPNG)
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// ValidModes is the set of supported solve modes.
var ValidModes = map[string]bool{
	graph.ModeFull:  true,
	graph.ModeQuick: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source: exactly one of Path, Key or Document.
	Path     string             `json:"path,omitempty"`
	Key      string             `json:"key,omitempty"`
	Document *document.Document `json:"document,omitempty"`

	// Solve options
	Mode    string        `json:"mode,omitempty"`
	Sets    []Set         `json:"sets,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	// SaveKey stores the built document, with overrides applied, under
	// this key after a successful solve.
	SaveKey string `json:"save_key,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the built document with overrides applied.
	Document document.Document

	// DocumentHash is the content hash of Document, ignoring its ID.
	DocumentHash string

	// Graph is the solved graph.
	Graph *graph.Graph

	// Report is the solve pass summary.
	Report *graph.Report

	// Results holds every component's outputs after the solve.
	Results []document.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Components  int
	Connections int
	LoadTime    time.Duration
	SolveTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMode checks that a solve mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid mode: %q (must be one of: full, quick)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	sources := 0
	for _, set := range []bool{o.Path != "", o.Key != "", o.Document != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "exactly one of path, key or document is required")
	}
	if o.Path != "" {
		if err := errors.ValidatePath(o.Path); err != nil {
			return err
		}
	}
	for _, key := range []string{o.Key, o.SaveKey} {
		if key == "" {
			continue
		}
		if err := errors.ValidateKey(key); err != nil {
			return err
		}
	}

	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}

	o.Formats = slices.Compact(slices.Sorted(slices.Values(o.Formats)))
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	o.validated = true
	return nil
}

// artifactKey names the cached artifact for one format.
func (o *Options) artifactKey(docHash, format string) string {
	detail := "plain"
	if o.Detailed {
		detail = "detailed"
	}
	if len(docHash) > 32 {
		docHash = docHash[:32]
	}
	return fmt.Sprintf("artifact.%s.%s.%s", docHash, detail, format)
}

// =============================================================================
// Summary - Serializable Solve Report
// =============================================================================

// Summary is the JSON form of a solve report. Errors are keyed by
// component ID.
type Summary struct {
	Mode       string                       `json:"mode"`
	OK         bool                         `json:"ok"`
	Order      []graph.ComponentID          `json:"order"`
	Solved     []graph.ComponentID          `json:"solved"`
	Failed     []graph.ComponentID          `json:"failed,omitempty"`
	Skipped    []graph.ComponentID          `json:"skipped,omitempty"`
	Errors     map[graph.ComponentID]string `json:"errors,omitempty"`
	DurationMS float64                      `json:"duration_ms"`
}

// Summarize converts a report. A nil report yields the zero Summary.
func Summarize(r *graph.Report) Summary {
	if r == nil {
		return Summary{}
	}
	s := Summary{
		Mode:       r.Mode,
		OK:         r.OK(),
		Order:      r.Order,
		Solved:     r.Solved,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
	}
	if len(r.Errors) > 0 {
		s.Errors = make(map[graph.ComponentID]string, len(r.Errors))
		for id, err := range r.Errors {
			s.Errors[id] = err.Error()
		}
	}
	return s
}
