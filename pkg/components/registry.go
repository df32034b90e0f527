package components

import (
	"maps"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
)

// Factory builds a component definition from its construction parameters.
type Factory func(params map[string]any) (graph.Definition, error)

// Info describes one registered component type.
type Info struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type entry struct {
	info    Info
	factory Factory
}

// Registry maps component type names to factories.
type Registry struct {
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Default returns a registry holding every built-in component type.
func Default() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds a component type. Registering the same type twice is an error.
func (r *Registry) Register(typ, description string, f Factory) error {
	if err := errors.ValidateComponentType(typ); err != nil {
		return err
	}
	if _, exists := r.entries[typ]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "component type %q already registered", typ)
	}
	r.entries[typ] = entry{info: Info{Type: typ, Description: description}, factory: f}
	return nil
}

func (r *Registry) mustRegister(typ, description string, f Factory) {
	if err := r.Register(typ, description, f); err != nil {
		panic(err)
	}
}

// New builds a definition of the given type. The returned definition
// records typ and a copy of params so the component can be saved again.
func (r *Registry) New(typ string, params map[string]any) (graph.Definition, error) {
	e, ok := r.entries[typ]
	if !ok {
		return graph.Definition{}, errors.New(errors.ErrCodeUnknownType, "unknown component type %q", typ)
	}
	def, err := e.factory(params)
	if err != nil {
		return graph.Definition{}, err
	}
	def.Type = typ
	def.Params = maps.Clone(params)
	return def, nil
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	_, ok := r.entries[typ]
	return ok
}

// Types lists the registered types sorted by name.
func (r *Registry) Types() []Info {
	out := make([]Info, 0, len(r.entries))
	for _, name := range slices.Sorted(maps.Keys(r.entries)) {
		out = append(out, r.entries[name].info)
	}
	return out
}

// decodeParams decodes construction parameters into out. Numbers and
// booleans are converted loosely since JSON, TOML and YAML disagree on
// numeric types; unknown keys are rejected.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "params decoder")
	}
	if err := dec.Decode(params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParams, err, "decode params")
	}
	return nil
}
