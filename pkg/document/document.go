package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
)

// Version is the document format version written by this package.
const Version = 1

// =============================================================================
// Document - Saved Graph
// =============================================================================

// Document is the canonical saved form of a graph: the component list with
// construction parameters and literal inputs, plus the slot connections.
// Reloading a document reproduces identical slot topology, component IDs
// and literal values.
type Document struct {
	ID          string             `json:"id" toml:"id" yaml:"id"`
	Name        string             `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Version     int                `json:"version" toml:"version" yaml:"version"`
	Components  []Component        `json:"components" toml:"components" yaml:"components"`
	Connections []graph.Connection `json:"connections,omitempty" toml:"connections,omitempty" yaml:"connections,omitempty"`
}

// Component is one saved component.
type Component struct {
	ID       int            `json:"id" toml:"id" yaml:"id"`
	Type     string         `json:"type" toml:"type" yaml:"type"`
	Name     string         `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Params   map[string]any `json:"params,omitempty" toml:"params,omitempty" yaml:"params,omitempty"`
	Disabled bool           `json:"disabled,omitempty" toml:"disabled,omitempty" yaml:"disabled,omitempty"`
	Inputs   []Input        `json:"inputs,omitempty" toml:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Param numbers keep their kind in every format: integers decode as int64
// and floats as float64. JSON and YAML encoders write a whole float64 such
// as 2.0 as "2", so those params are written as wholeFloat instead.

type plainComponent Component

// MarshalJSON encodes the component with whole float params kept as floats.
func (c Component) MarshalJSON() ([]byte, error) {
	p := plainComponent(c)
	p.Params = markFloats(c.Params)
	return json.Marshal(p)
}

// MarshalYAML encodes the component with whole float params kept as floats.
func (c Component) MarshalYAML() (any, error) {
	p := plainComponent(c)
	p.Params = markFloats(c.Params)
	return p, nil
}

// UnmarshalJSON decodes params so that integers stay int64, matching what
// the TOML and YAML decoders produce for the same document.
func (c *Component) UnmarshalJSON(data []byte) error {
	var p plainComponent
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	for k, v := range p.Params {
		p.Params[k] = normalizeNumber(v)
	}
	*c = Component(p)
	return nil
}

// wholeFloat is a float64 param without a fraction, written as "2.0".
type wholeFloat float64

func (f wholeFloat) text() string { return strconv.FormatFloat(float64(f), 'f', 1, 64) }

func (f wholeFloat) MarshalJSON() ([]byte, error) { return []byte(f.text()), nil }

func (f wholeFloat) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: f.text()}, nil
}

func markFloats(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = markFloat(v)
	}
	return out
}

func markFloat(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e21 {
			return wholeFloat(x)
		}
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = markFloat(x[i])
		}
		return out
	case map[string]any:
		return markFloats(x)
	}
	return v
}

func normalizeNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if i, err := x.Int64(); err == nil {
				return i
			}
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		for i := range x {
			x[i] = normalizeNumber(x[i])
		}
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumber(x[k])
		}
	}
	return v
}

// Input is a literal tree stored on an unlinked input slot.
type Input struct {
	Slot    int                  `json:"slot" toml:"slot" yaml:"slot"`
	Literal datatree.EncodedTree `json:"literal" toml:"literal" yaml:"literal"`
}

// New returns an empty document with a fresh random ID.
func New(name string) Document {
	return Document{ID: uuid.NewString(), Name: name, Version: Version}
}

// =============================================================================
// Graph ↔ Document Conversion
// =============================================================================

// FromGraph captures a graph's topology and literal inputs. Components keep
// their IDs and insertion order; the document gets a fresh ID.
func FromGraph(g *graph.Graph, name string) Document {
	doc := New(name)
	for _, c := range g.Components() {
		dc := Component{
			ID:       int(c.ID()),
			Type:     c.Type(),
			Name:     c.Name(),
			Params:   c.Params(),
			Disabled: !c.Enabled(),
		}
		for i := range c.NumInputs() {
			if !c.IsLiteral(i) {
				continue
			}
			tree, _ := g.InputTree(graph.SlotRef{Component: c.ID(), Slot: i})
			dc.Inputs = append(dc.Inputs, Input{Slot: i, Literal: datatree.EncodeTree(tree)})
		}
		doc.Components = append(doc.Components, dc)
	}
	doc.Connections = g.Connections()
	return doc
}

// Validate checks the document's internal consistency without building it.
func (d Document) Validate() error {
	if d.Version > Version {
		return errors.New(errors.ErrCodeInvalidDocument, "document version %d is newer than supported version %d", d.Version, Version)
	}
	if d.ID != "" {
		if _, err := uuid.Parse(d.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "document id %q", d.ID)
		}
	}
	ids := make(map[int]bool, len(d.Components))
	for _, c := range d.Components {
		if c.ID <= 0 {
			return errors.New(errors.ErrCodeInvalidDocument, "component id must be positive, got %d", c.ID)
		}
		if ids[c.ID] {
			return errors.New(errors.ErrCodeInvalidDocument, "duplicate component id %d", c.ID)
		}
		ids[c.ID] = true
	}
	linked := make(map[graph.SlotRef]bool, len(d.Connections))
	for _, conn := range d.Connections {
		if !ids[int(conn.From.Component)] || !ids[int(conn.To.Component)] {
			return errors.New(errors.ErrCodeInvalidDocument, "connection %s -> %s references a missing component", conn.From, conn.To)
		}
		if linked[conn.To] {
			return errors.New(errors.ErrCodeInvalidDocument, "input %s has more than one connection", conn.To)
		}
		linked[conn.To] = true
	}
	for _, c := range d.Components {
		for _, in := range c.Inputs {
			if linked[graph.SlotRef{Component: graph.ComponentID(c.ID), Slot: in.Slot}] {
				return errors.New(errors.ErrCodeInvalidDocument, "input %d:%d is both linked and literal", c.ID, in.Slot)
			}
		}
	}
	return nil
}

// Build reconstructs the graph described by the document, resolving
// component types through reg. The returned graph is unsolved.
func (d Document) Build(reg *components.Registry, opts ...graph.Option) (*graph.Graph, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	g := graph.New(opts...)

	for _, dc := range d.Components {
		def, err := reg.New(dc.Type, dc.Params)
		if err != nil {
			return nil, errors.Wrap(codeOr(err, errors.ErrCodeInvalidDocument), err, "component %d", dc.ID)
		}
		id := graph.ComponentID(dc.ID)
		if err := g.AddComponentWithID(id, def, dc.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "component %d", dc.ID)
		}
		if dc.Disabled {
			_ = g.DisableSolve(id)
		}
	}

	for _, conn := range d.Connections {
		if err := g.AddConnection(conn.From, conn.To); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "connection %s -> %s", conn.From, conn.To)
		}
	}

	for _, dc := range d.Components {
		for _, in := range dc.Inputs {
			tree, err := datatree.DecodeTree(in.Literal)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "literal %d:%d", dc.ID, in.Slot)
			}
			ref := graph.SlotRef{Component: graph.ComponentID(dc.ID), Slot: in.Slot}
			if err := g.HardSet(ref, tree); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "literal %s", ref)
			}
		}
	}
	return g, nil
}

// =============================================================================
// Results - Solved Output Snapshot
// =============================================================================

// Result is the solve state and output trees of one component.
type Result struct {
	ID      int                             `json:"id" yaml:"id"`
	Type    string                          `json:"type" yaml:"type"`
	Name    string                          `json:"name,omitempty" yaml:"name,omitempty"`
	Solved  bool                            `json:"solved" yaml:"solved"`
	Outputs map[string]datatree.EncodedTree `json:"outputs" yaml:"outputs"`
}

// Results snapshots every component's outputs, keyed by output name (or
// index when unnamed). Components appear in insertion order.
func Results(g *graph.Graph) []Result {
	comps := g.Components()
	out := make([]Result, 0, len(comps))
	for _, c := range comps {
		r := Result{
			ID:      int(c.ID()),
			Type:    c.Type(),
			Name:    c.Name(),
			Solved:  c.Solved(),
			Outputs: make(map[string]datatree.EncodedTree, c.NumOutputs()),
		}
		for i := range c.NumOutputs() {
			tree, _ := g.OutputTree(graph.SlotRef{Component: c.ID(), Slot: i})
			r.Outputs[outputKey(c.OutputDef(i).Name, i)] = datatree.EncodeTree(tree)
		}
		out = append(out, r)
	}
	return out
}

func codeOr(err error, fallback errors.Code) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return fallback
}

func outputKey(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprint(i)
}

// ComponentIDs returns the IDs of every saved component, sorted.
func (d Document) ComponentIDs() []int {
	ids := make([]int, len(d.Components))
	for i, c := range d.Components {
		ids[i] = c.ID
	}
	slices.Sort(ids)
	return ids
}
