package datatree

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"lukechampine.com/blake3"
)

// ErrInvalidEncoding is returned when an [Encoded] value cannot be decoded.
var ErrInvalidEncoding = errors.New("invalid value encoding")

// Encoded is the serialisable form of a [Value]. Exactly one payload field
// is set, selected by Kind. Non-finite floats use Inf ("+Inf", "-Inf" or
// "NaN") instead of Float. It carries json, toml and yaml tags so that
// documents in any of those formats can embed literal trees.
type Encoded struct {
	Kind   string      `json:"kind" toml:"kind" yaml:"kind"`
	Bool   *bool       `json:"bool,omitempty" toml:"bool,omitempty" yaml:"bool,omitempty"`
	Int    *int64      `json:"int,omitempty" toml:"int,omitempty" yaml:"int,omitempty"`
	Float  *float64    `json:"float,omitempty" toml:"float,omitempty" yaml:"float,omitempty"`
	Inf    string      `json:"inf,omitempty" toml:"inf,omitempty" yaml:"inf,omitempty"`
	String *string     `json:"string,omitempty" toml:"string,omitempty" yaml:"string,omitempty"`
	Vector []float64   `json:"vector,omitempty" toml:"vector,omitempty" yaml:"vector,omitempty"`
	Matrix [][]float64 `json:"matrix,omitempty" toml:"matrix,omitempty" yaml:"matrix,omitempty"`
	Items  []Encoded   `json:"items,omitempty" toml:"items,omitempty" yaml:"items,omitempty"`
	Type   string      `json:"type,omitempty" toml:"type,omitempty" yaml:"type,omitempty"`
	Data   string      `json:"data,omitempty" toml:"data,omitempty" yaml:"data,omitempty"`
}

// EncodedTree is the serialisable form of a [Tree]: branch path strings
// mapped to their encoded values.
type EncodedTree map[string][]Encoded

// Encode converts a value to its serialisable form.
func Encode(v Value) Encoded {
	if v == nil {
		return Encoded{Kind: KindNone.String()}
	}
	e := Encoded{Kind: v.Kind().String()}
	switch x := v.(type) {
	case None:
	case Bool:
		b := bool(x)
		e.Bool = &b
	case Int:
		i := int64(x)
		e.Int = &i
	case Float:
		f := float64(x)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			e.Inf = strconv.FormatFloat(f, 'g', -1, 64)
			break
		}
		e.Float = &f
	case String:
		s := string(x)
		e.String = &s
	case Vector:
		e.Vector = []float64{x[0], x[1], x[2]}
	case Matrix:
		e.Matrix = make([][]float64, len(x))
		for i, row := range x {
			e.Matrix[i] = append([]float64{}, row...)
		}
	case List:
		e.Items = make([]Encoded, len(x))
		for i, item := range x {
			e.Items[i] = Encode(item)
		}
	case Geometry:
		e.Type = x.Type
		e.Data = base64.StdEncoding.EncodeToString(x.Data)
	}
	return e
}

// Decode converts an encoded value back to a [Value].
func Decode(e Encoded) (Value, error) {
	kind, ok := ParseKind(e.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidEncoding, e.Kind)
	}
	missing := func() (Value, error) {
		return nil, fmt.Errorf("%w: %s value without payload", ErrInvalidEncoding, kind)
	}
	switch kind {
	case KindNone:
		return None{}, nil
	case KindBool:
		if e.Bool == nil {
			return missing()
		}
		return Bool(*e.Bool), nil
	case KindInt:
		if e.Int == nil {
			return missing()
		}
		return Int(*e.Int), nil
	case KindFloat:
		if e.Inf != "" {
			return decodeNonFinite(e.Inf)
		}
		if e.Float == nil {
			return missing()
		}
		return Float(*e.Float), nil
	case KindString:
		if e.String == nil {
			return missing()
		}
		return String(*e.String), nil
	case KindVector:
		if len(e.Vector) != 3 {
			return nil, fmt.Errorf("%w: vector needs 3 components, got %d", ErrInvalidEncoding, len(e.Vector))
		}
		return Vector{e.Vector[0], e.Vector[1], e.Vector[2]}, nil
	case KindMatrix:
		m := make(Matrix, len(e.Matrix))
		for i, row := range e.Matrix {
			m[i] = append([]float64{}, row...)
		}
		return m, nil
	case KindList:
		l := make(List, len(e.Items))
		for i, item := range e.Items {
			v, err := Decode(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			l[i] = v
		}
		return l, nil
	case KindGeometry:
		data, err := base64.StdEncoding.DecodeString(e.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: geometry data: %v", ErrInvalidEncoding, err)
		}
		return Geometry{Type: e.Type, Data: data}, nil
	}
	return nil, fmt.Errorf("%w: unhandled kind %s", ErrInvalidEncoding, kind)
}

func decodeNonFinite(s string) (Value, error) {
	switch s {
	case "+Inf":
		return Float(math.Inf(1)), nil
	case "-Inf":
		return Float(math.Inf(-1)), nil
	case "NaN":
		return Float(math.NaN()), nil
	}
	return nil, fmt.Errorf("%w: non-finite float %q", ErrInvalidEncoding, s)
}

// EncodeTree converts a tree to its serialisable form. Empty branches are
// preserved as empty lists.
func EncodeTree(t *Tree) EncodedTree {
	if t.IsEmpty() {
		return EncodedTree{}
	}
	out := make(EncodedTree, t.NumBranches())
	for _, p := range t.order {
		values := t.branches[p.String()].Values
		enc := make([]Encoded, len(values))
		for i, v := range values {
			enc[i] = Encode(v)
		}
		out[p.String()] = enc
	}
	return out
}

// DecodeTree rebuilds a tree from its serialisable form. Every key must be
// a path string produced by [Path.String].
func DecodeTree(et EncodedTree) (*Tree, error) {
	t := New()
	for key, enc := range et {
		p, err := ParsePath(key)
		if err != nil {
			return nil, err
		}
		values := make([]Value, len(enc))
		for i, e := range enc {
			v, err := Decode(e)
			if err != nil {
				return nil, fmt.Errorf("branch %s item %d: %w", key, i, err)
			}
			values[i] = v
		}
		t.Add(p, values...)
	}
	return t, nil
}

// MarshalJSON encodes the tree as a JSON object keyed by path strings.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeTree(t))
}

// UnmarshalJSON replaces the tree's contents with the decoded object.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var et EncodedTree
	if err := json.Unmarshal(data, &et); err != nil {
		return err
	}
	decoded, err := DecodeTree(et)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// Fingerprint returns a hex blake3 digest of the tree's canonical form:
// branches in path order, each value written with its kind. Equal trees
// have equal fingerprints, and every value can be hashed, including
// non-finite floats.
func (t *Tree) Fingerprint() string {
	h := blake3.New(32, nil)
	if !t.IsEmpty() {
		for _, p := range t.order {
			values := t.branches[p.String()].Values
			fmt.Fprintf(h, "%s#%d", p, len(values))
			for _, v := range values {
				writeCanonical(h, v)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeCanonical(w io.Writer, v Value) {
	if v == nil {
		v = None{}
	}
	fmt.Fprintf(w, "(%s", v.Kind())
	switch x := v.(type) {
	case Bool:
		fmt.Fprintf(w, " %t", bool(x))
	case Int:
		fmt.Fprintf(w, " %d", int64(x))
	case Float:
		fmt.Fprintf(w, " %s", formatFloat(float64(x)))
	case String:
		fmt.Fprintf(w, " %q", string(x))
	case Vector:
		for _, f := range x {
			fmt.Fprintf(w, " %s", formatFloat(f))
		}
	case Matrix:
		for _, row := range x {
			fmt.Fprintf(w, " [%d", len(row))
			for _, f := range row {
				fmt.Fprintf(w, " %s", formatFloat(f))
			}
			io.WriteString(w, "]")
		}
	case List:
		fmt.Fprintf(w, " %d", len(x))
		for _, item := range x {
			writeCanonical(w, item)
		}
	case Geometry:
		fmt.Fprintf(w, " %q %x", x.Type, x.Data)
	}
	io.WriteString(w, ")")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
