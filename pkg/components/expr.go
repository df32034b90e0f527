package components

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
)

type exprParams struct {
	Expression string   `mapstructure:"expression"`
	Inputs     []string `mapstructure:"inputs"`
	Access     string   `mapstructure:"access"`
	Explode    bool     `mapstructure:"explode"`
}

// expression compiles its program once, at construction. Each input slot is
// bound to a variable of the same name; the program's result becomes the
// single output. With explode set, list results are spread over sub-branches.
func expression(params map[string]any) (graph.Definition, error) {
	var p exprParams
	if err := decodeParams(params, &p); err != nil {
		return graph.Definition{}, err
	}
	if p.Inputs == nil {
		p.Inputs = []string{"x"}
	}
	if p.Expression == "" {
		return graph.Definition{}, errors.New(errors.ErrCodeInvalidParams, "expression must not be empty")
	}
	access, ok := datatree.ParseAccess(p.Access)
	if !ok {
		return graph.Definition{}, errors.New(errors.ErrCodeInvalidParams, "unknown access %q", p.Access)
	}

	seen := make(map[string]bool, len(p.Inputs))
	inputs := make([]graph.InputDef, len(p.Inputs))
	for i, name := range p.Inputs {
		if seen[name] {
			return graph.Definition{}, errors.New(errors.ErrCodeInvalidParams, "duplicate input %q", name)
		}
		seen[name] = true
		inputs[i] = graph.InputDef{Name: name, Access: access, Default: datatree.None{}}
	}

	program, err := compile(p.Expression)
	if err != nil {
		return graph.Definition{}, err
	}

	output := graph.OutputDef{Name: "result", Access: datatree.AccessItem}
	if p.Explode {
		output.Access = datatree.AccessList
	}

	names := p.Inputs
	return graph.Definition{
		Inputs:  inputs,
		Outputs: []graph.OutputDef{output},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			vars := make(map[string]any, len(args))
			for i, a := range args {
				vars[names[i]] = ToNative(a)
			}
			result, err := exprlang.Run(program, vars)
			if err != nil {
				return nil, fmt.Errorf("run %q: %w", p.Expression, err)
			}
			v, err := ToValue(result)
			if err != nil {
				return nil, fmt.Errorf("result of %q: %w", p.Expression, err)
			}
			return one(v), nil
		},
	}, nil
}

func compile(expression string) (*exprvm.Program, error) {
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParams, err, "compile expression %q", expression)
	}
	return program, nil
}
