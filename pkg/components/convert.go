package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/treeflow/pkg/datatree"
)

// ToValue converts a plain Go value, as produced by JSON, TOML or YAML
// decoding or by an expression, into a datatree value. JSON numbers
// without a fraction or exponent become Int, as they do in TOML and YAML.
func ToValue(v any) (datatree.Value, error) {
	switch x := v.(type) {
	case nil:
		return datatree.None{}, nil
	case datatree.Value:
		return x, nil
	case bool:
		return datatree.Bool(x), nil
	case int:
		return datatree.Int(x), nil
	case int32:
		return datatree.Int(x), nil
	case int64:
		return datatree.Int(x), nil
	case uint64:
		return datatree.Int(x), nil
	case float32:
		return datatree.Float(x), nil
	case float64:
		return datatree.Float(x), nil
	case string:
		return datatree.String(x), nil
	case json.Number:
		return numberValue(x)
	case []any:
		list := make(datatree.List, len(x))
		for i, item := range x {
			val, err := ToValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = val
		}
		return list, nil
	case []float64:
		list := make(datatree.List, len(x))
		for i, f := range x {
			list[i] = datatree.Float(f)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func numberValue(n json.Number) (datatree.Value, error) {
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return datatree.Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", n, err)
	}
	return datatree.Float(f), nil
}

// ToNative converts a datatree value into a plain Go value for expression
// environments.
func ToNative(v datatree.Value) any {
	switch x := v.(type) {
	case datatree.None:
		return nil
	case datatree.Bool:
		return bool(x)
	case datatree.Int:
		return int(x)
	case datatree.Float:
		return float64(x)
	case datatree.String:
		return string(x)
	case datatree.Vector:
		return []float64{x[0], x[1], x[2]}
	case datatree.Matrix:
		rows := make([][]float64, len(x))
		for i, r := range x {
			rows[i] = append([]float64(nil), r...)
		}
		return rows
	case datatree.List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToNative(item)
		}
		return out
	case datatree.Geometry:
		return x
	}
	return nil
}
