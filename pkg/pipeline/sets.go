package pipeline

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
)

// Set overrides one input slot with a literal before solving. A list
// value becomes a single branch {0} holding every element; anything else
// becomes a one-item tree.
type Set struct {
	Ref   graph.SlotRef `json:"ref" yaml:"ref"`
	Value any           `json:"value" yaml:"value"`
}

// ParseSet parses "component:slot=value". The value is read as YAML, so
// "2.5", "true", "hello" and "[1, 2, 3]" all work.
func ParseSet(s string) (Set, error) {
	lhs, rhs, ok := strings.Cut(s, "=")
	if !ok {
		return Set{}, errors.New(errors.ErrCodeInvalidInput, "set %q: expected component:slot=value", s)
	}
	comp, slot, ok := strings.Cut(strings.TrimSpace(lhs), ":")
	if !ok {
		return Set{}, errors.New(errors.ErrCodeInvalidInput, "set %q: expected component:slot", s)
	}
	id, err := strconv.Atoi(comp)
	if err != nil {
		return Set{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "set %q: component", s)
	}
	idx, err := strconv.Atoi(slot)
	if err != nil {
		return Set{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "set %q: slot", s)
	}

	var value any
	if err := yaml.Unmarshal([]byte(rhs), &value); err != nil {
		return Set{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "set %q: value", s)
	}
	return Set{Ref: graph.SlotRef{Component: graph.ComponentID(id), Slot: idx}, Value: value}, nil
}

// Tree converts the set's value to the literal tree it installs.
func (s Set) Tree() (*datatree.Tree, error) {
	if list, ok := s.Value.([]any); ok {
		values := make([]datatree.Value, len(list))
		for i, item := range list {
			v, err := components.ToValue(item)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "set %s[%d]", s.Ref, i)
			}
			values[i] = v
		}
		return datatree.FromValues(datatree.P(0), values...), nil
	}
	v, err := components.ToValue(s.Value)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "set %s", s.Ref)
	}
	return datatree.Scalar(v), nil
}

// Apply installs the override on g.
func (s Set) Apply(g *graph.Graph) error {
	tree, err := s.Tree()
	if err != nil {
		return err
	}
	return g.HardSet(s.Ref, tree)
}
