package datatree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVector
	KindMatrix
	KindList
	KindGeometry
)

var kindNames = [...]string{
	KindNone:     "none",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindVector:   "vector",
	KindMatrix:   "matrix",
	KindList:     "list",
	KindGeometry: "geometry",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindNone, false
}

// Value is a single datum stored in a tree branch. The set of variants is
// closed: None, Bool, Int, Float, String, Vector, Matrix, List and Geometry
// are the only implementations.
type Value interface {
	Kind() Kind
	String() string
	value()
}

// None marks missing data.
type None struct{}

// Bool is a boolean value.
type Bool bool

// Int is an integer value.
type Int int64

// Float is a floating point value.
type Float float64

// String is a text value.
type String string

// Vector is a 3D vector.
type Vector [3]float64

// Matrix is a row-major matrix. Rows may have different lengths; the core
// never interprets the shape.
type Matrix [][]float64

// List wraps an ordered collection of values. A component returning a List
// from a List-access output has it exploded into sibling branches by
// [Tree.OneToManyGraft].
type List []Value

// Geometry is an opaque composite payload owned by whatever produced it.
// The engine moves it around without looking inside.
type Geometry struct {
	Type string
	Data []byte
}

func (None) Kind() Kind     { return KindNone }
func (Bool) Kind() Kind     { return KindBool }
func (Int) Kind() Kind      { return KindInt }
func (Float) Kind() Kind    { return KindFloat }
func (String) Kind() Kind   { return KindString }
func (Vector) Kind() Kind   { return KindVector }
func (Matrix) Kind() Kind   { return KindMatrix }
func (List) Kind() Kind     { return KindList }
func (Geometry) Kind() Kind { return KindGeometry }

func (None) value()     {}
func (Bool) value()     {}
func (Int) value()      {}
func (Float) value()    {}
func (String) value()   {}
func (Vector) value()   {}
func (Matrix) value()   {}
func (List) value()     {}
func (Geometry) value() {}

func (None) String() string     { return "<none>" }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (f Float) String() string  { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (s String) String() string { return string(s) }

func (v Vector) String() string {
	return fmt.Sprintf("{%s, %s, %s}", fmtFloat(v[0]), fmtFloat(v[1]), fmtFloat(v[2]))
}

func (m Matrix) String() string {
	rows := make([]string, len(m))
	for i, row := range m {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmtFloat(c)
		}
		rows[i] = "[" + strings.Join(cells, " ") + "]"
	}
	return "[" + strings.Join(rows, " ") + "]"
}

func (l List) String() string {
	items := make([]string, len(l))
	for i, v := range l {
		items[i] = v.String()
	}
	return "(" + strings.Join(items, ", ") + ")"
}

func (g Geometry) String() string { return fmt.Sprintf("<%s %dB>", g.Type, len(g.Data)) }

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// IsNone reports whether v is nil or the None sentinel.
func IsNone(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(None)
	return ok
}

// AsFloat converts numeric values to float64. Bool converts to 0 or 1.
func AsFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Float:
		return float64(x), true
	case Int:
		return float64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsInt converts numeric values to int64, truncating floats.
func AsInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int:
		return int64(x), true
	case Float:
		return int64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ValuesEqual compares two values structurally. Lists and matrices compare
// element-wise; Geometry compares type tag and payload bytes.
func ValuesEqual(a, b Value) bool {
	if IsNone(a) || IsNone(b) {
		return IsNone(a) && IsNone(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Bool:
		return x == b.(Bool)
	case Int:
		return x == b.(Int)
	case Float:
		return x == b.(Float)
	case String:
		return x == b.(String)
	case Vector:
		return x == b.(Vector)
	case Matrix:
		y := b.(Matrix)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if len(x[i]) != len(y[i]) {
				return false
			}
			for j := range x[i] {
				if x[i][j] != y[i][j] {
					return false
				}
			}
		}
		return true
	case List:
		y := b.(List)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !ValuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case Geometry:
		y := b.(Geometry)
		return x.Type == y.Type && string(x.Data) == string(y.Data)
	}
	return false
}
