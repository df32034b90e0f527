package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
)

func registerBuiltins(r *Registry) {
	r.mustRegister("literal", "holds a value set from outside the graph", literal)
	r.mustRegister("number", "emits a constant number", number)
	r.mustRegister("add", "a + b", binary(0, 0, add))
	r.mustRegister("subtract", "a - b", binary(0, 0, subtract))
	r.mustRegister("multiply", "a * b", binary(1, 1, multiply))
	r.mustRegister("divide", "a / b", binary(0, 1, divide))
	r.mustRegister("negate", "-x", negate)
	r.mustRegister("series", "count numbers from start by step; one value per input branch", series)
	r.mustRegister("range", "steps+1 numbers evenly spanning [start, end]; one value per input branch", rangeOf)
	r.mustRegister("length", "number of values in a branch", length)
	r.mustRegister("item", "value at index in a branch", item)
	r.mustRegister("concat", "joins two values as text", concat)
	r.mustRegister("vector", "builds a vector from x, y and z", vector)
	r.mustRegister("expr", "evaluates an expression over named inputs", expression)
}

func in(name string, def datatree.Value) graph.InputDef {
	return graph.InputDef{Name: name, Access: datatree.AccessItem, Default: def}
}

func out(name string) graph.OutputDef {
	return graph.OutputDef{Name: name, Access: datatree.AccessItem}
}

func one(v datatree.Value) []datatree.Value { return []datatree.Value{v} }

// =============================================================================
// Sources
// =============================================================================

type valueParams struct {
	Value any `mapstructure:"value"`
}

// literal is the HardSet target of the graph: its single input defaults to
// the "value" parameter and is copied to the output unchanged.
func literal(params map[string]any) (graph.Definition, error) {
	var p valueParams
	if err := decodeParams(params, &p); err != nil {
		return graph.Definition{}, err
	}
	var def datatree.Value
	if p.Value != nil {
		v, err := ToValue(p.Value)
		if err != nil {
			return graph.Definition{}, errors.Wrap(errors.ErrCodeInvalidParams, err, "literal value")
		}
		def = v
	}
	return graph.Definition{
		Inputs:  []graph.InputDef{in("value", def)},
		Outputs: []graph.OutputDef{out("value")},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			return one(args[0]), nil
		},
	}, nil
}

func number(params map[string]any) (graph.Definition, error) {
	var p struct {
		Value float64 `mapstructure:"value"`
	}
	if err := decodeParams(params, &p); err != nil {
		return graph.Definition{}, err
	}
	v := datatree.Float(p.Value)
	return graph.Definition{
		Outputs: []graph.OutputDef{out("value")},
		Solve: func([]datatree.Value) ([]datatree.Value, error) {
			return one(v), nil
		},
	}, nil
}

// =============================================================================
// Arithmetic
// =============================================================================

type binaryParams struct {
	A *float64 `mapstructure:"a"`
	B *float64 `mapstructure:"b"`
}

func binary(defA, defB float64, op func(a, b datatree.Value) (datatree.Value, error)) Factory {
	return func(params map[string]any) (graph.Definition, error) {
		var p binaryParams
		if err := decodeParams(params, &p); err != nil {
			return graph.Definition{}, err
		}
		a, b := defA, defB
		if p.A != nil {
			a = *p.A
		}
		if p.B != nil {
			b = *p.B
		}
		return graph.Definition{
			Inputs:  []graph.InputDef{in("a", datatree.Float(a)), in("b", datatree.Float(b))},
			Outputs: []graph.OutputDef{out("result")},
			Solve: func(args []datatree.Value) ([]datatree.Value, error) {
				v, err := op(args[0], args[1])
				if err != nil {
					return nil, err
				}
				return one(v), nil
			},
		}, nil
	}
}

func operands(a, b datatree.Value) (float64, float64, error) {
	x, ok := datatree.AsFloat(a)
	if !ok {
		return 0, 0, fmt.Errorf("operand a: %s is not a number", a.Kind())
	}
	y, ok := datatree.AsFloat(b)
	if !ok {
		return 0, 0, fmt.Errorf("operand b: %s is not a number", b.Kind())
	}
	return x, y, nil
}

func ints(a, b datatree.Value) (datatree.Int, datatree.Int, bool) {
	x, ok1 := a.(datatree.Int)
	y, ok2 := b.(datatree.Int)
	return x, y, ok1 && ok2
}

func vectors(a, b datatree.Value) (datatree.Vector, datatree.Vector, bool) {
	x, ok1 := a.(datatree.Vector)
	y, ok2 := b.(datatree.Vector)
	return x, y, ok1 && ok2
}

func add(a, b datatree.Value) (datatree.Value, error) {
	if x, y, ok := ints(a, b); ok {
		return x + y, nil
	}
	if x, y, ok := vectors(a, b); ok {
		return datatree.Vector{x[0] + y[0], x[1] + y[1], x[2] + y[2]}, nil
	}
	x, y, err := operands(a, b)
	return datatree.Float(x + y), err
}

func subtract(a, b datatree.Value) (datatree.Value, error) {
	if x, y, ok := ints(a, b); ok {
		return x - y, nil
	}
	if x, y, ok := vectors(a, b); ok {
		return datatree.Vector{x[0] - y[0], x[1] - y[1], x[2] - y[2]}, nil
	}
	x, y, err := operands(a, b)
	return datatree.Float(x - y), err
}

func multiply(a, b datatree.Value) (datatree.Value, error) {
	if x, y, ok := ints(a, b); ok {
		return x * y, nil
	}
	if v, ok := a.(datatree.Vector); ok {
		if s, ok := datatree.AsFloat(b); ok {
			return datatree.Vector{v[0] * s, v[1] * s, v[2] * s}, nil
		}
	}
	x, y, err := operands(a, b)
	return datatree.Float(x * y), err
}

func divide(a, b datatree.Value) (datatree.Value, error) {
	x, y, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	if y == 0 {
		return nil, fmt.Errorf("division by zero")
	}
	return datatree.Float(x / y), nil
}

func negate(params map[string]any) (graph.Definition, error) {
	if err := decodeParams(params, &struct{}{}); err != nil {
		return graph.Definition{}, err
	}
	return graph.Definition{
		Inputs:  []graph.InputDef{in("x", datatree.Float(0))},
		Outputs: []graph.OutputDef{out("result")},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			switch x := args[0].(type) {
			case datatree.Int:
				return one(-x), nil
			case datatree.Vector:
				return one(datatree.Vector{-x[0], -x[1], -x[2]}), nil
			}
			f, ok := datatree.AsFloat(args[0])
			if !ok {
				return nil, fmt.Errorf("%s is not a number", args[0].Kind())
			}
			return one(datatree.Float(-f)), nil
		},
	}, nil
}

// =============================================================================
// Lists
// =============================================================================

// maxListLen bounds generated lists so a stray parameter cannot exhaust memory.
const maxListLen = 1 << 20

func series(params map[string]any) (graph.Definition, error) {
	p := struct {
		Start float64 `mapstructure:"start"`
		Step  float64 `mapstructure:"step"`
		Count int     `mapstructure:"count"`
	}{Step: 1, Count: 10}
	if err := decodeParams(params, &p); err != nil {
		return graph.Definition{}, err
	}
	return graph.Definition{
		Inputs: []graph.InputDef{
			in("start", datatree.Float(p.Start)),
			in("step", datatree.Float(p.Step)),
			in("count", datatree.Int(p.Count)),
		},
		Outputs: []graph.OutputDef{{Name: "series", Access: datatree.AccessList}},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			start, ok1 := datatree.AsFloat(args[0])
			step, ok2 := datatree.AsFloat(args[1])
			count, ok3 := datatree.AsInt(args[2])
			if !ok1 || !ok2 || !ok3 {
				return nil, fmt.Errorf("series needs numeric start, step and count")
			}
			if count < 0 || count > maxListLen {
				return nil, fmt.Errorf("series count %d out of range", count)
			}
			list := make(datatree.List, count)
			for i := range list {
				list[i] = datatree.Float(start + float64(i)*step)
			}
			return one(list), nil
		},
	}, nil
}

func rangeOf(params map[string]any) (graph.Definition, error) {
	p := struct {
		Start float64 `mapstructure:"start"`
		End   float64 `mapstructure:"end"`
		Steps int     `mapstructure:"steps"`
	}{End: 1, Steps: 10}
	if err := decodeParams(params, &p); err != nil {
		return graph.Definition{}, err
	}
	return graph.Definition{
		Inputs: []graph.InputDef{
			in("start", datatree.Float(p.Start)),
			in("end", datatree.Float(p.End)),
			in("steps", datatree.Int(p.Steps)),
		},
		Outputs: []graph.OutputDef{{Name: "range", Access: datatree.AccessList}},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			start, ok1 := datatree.AsFloat(args[0])
			end, ok2 := datatree.AsFloat(args[1])
			steps, ok3 := datatree.AsInt(args[2])
			if !ok1 || !ok2 || !ok3 {
				return nil, fmt.Errorf("range needs numeric start, end and steps")
			}
			if steps < 1 || steps >= maxListLen {
				return nil, fmt.Errorf("range steps %d out of range", steps)
			}
			list := make(datatree.List, steps+1)
			for i := range list {
				list[i] = datatree.Float(start + (end-start)*float64(i)/float64(steps))
			}
			return one(list), nil
		},
	}, nil
}

func length(params map[string]any) (graph.Definition, error) {
	if err := decodeParams(params, &struct{}{}); err != nil {
		return graph.Definition{}, err
	}
	return graph.Definition{
		Inputs:  []graph.InputDef{{Name: "list", Access: datatree.AccessList}},
		Outputs: []graph.OutputDef{out("length")},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			list, _ := args[0].(datatree.List)
			return one(datatree.Int(len(list))), nil
		},
	}, nil
}

func item(params map[string]any) (graph.Definition, error) {
	p := struct {
		Index int  `mapstructure:"index"`
		Wrap  bool `mapstructure:"wrap"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return graph.Definition{}, err
	}
	return graph.Definition{
		Inputs: []graph.InputDef{
			{Name: "list", Access: datatree.AccessList},
			in("index", datatree.Int(p.Index)),
		},
		Outputs: []graph.OutputDef{out("item")},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			list, _ := args[0].(datatree.List)
			idx, ok := datatree.AsInt(args[1])
			if !ok {
				return nil, fmt.Errorf("index: %s is not a number", args[1].Kind())
			}
			n := int64(len(list))
			if p.Wrap && n > 0 {
				idx = ((idx % n) + n) % n
			}
			if idx < 0 || idx >= n {
				return one(datatree.None{}), nil
			}
			return one(list[idx]), nil
		},
	}, nil
}

// =============================================================================
// Text and vectors
// =============================================================================

func concat(params map[string]any) (graph.Definition, error) {
	var p struct {
		Separator string `mapstructure:"separator"`
	}
	if err := decodeParams(params, &p); err != nil {
		return graph.Definition{}, err
	}
	return graph.Definition{
		Inputs:  []graph.InputDef{in("a", datatree.String("")), in("b", datatree.String(""))},
		Outputs: []graph.OutputDef{out("text")},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			parts := make([]string, 0, 2)
			for _, a := range args {
				if !datatree.IsNone(a) {
					parts = append(parts, a.String())
				}
			}
			return one(datatree.String(strings.Join(parts, p.Separator))), nil
		},
	}, nil
}

func vector(params map[string]any) (graph.Definition, error) {
	if err := decodeParams(params, &struct{}{}); err != nil {
		return graph.Definition{}, err
	}
	return graph.Definition{
		Inputs: []graph.InputDef{
			in("x", datatree.Float(0)),
			in("y", datatree.Float(0)),
			in("z", datatree.Float(0)),
		},
		Outputs: []graph.OutputDef{out("vector"), out("length")},
		Solve: func(args []datatree.Value) ([]datatree.Value, error) {
			var v datatree.Vector
			for i, a := range args {
				f, ok := datatree.AsFloat(a)
				if !ok {
					return nil, fmt.Errorf("component %d: %s is not a number", i, a.Kind())
				}
				v[i] = f
			}
			l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
			return []datatree.Value{v, datatree.Float(l)}, nil
		},
	}, nil
}
