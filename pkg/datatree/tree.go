package datatree

import (
	"slices"
	"strings"
)

// Access describes how many values from a branch make up one solve
// argument.
type Access int

const (
	// AccessItem feeds one value per call.
	AccessItem Access = iota
	// AccessList feeds the whole branch per call.
	AccessList
	// AccessTree feeds the whole branch per call, like AccessList.
	AccessTree
)

func (a Access) String() string {
	switch a {
	case AccessItem:
		return "item"
	case AccessList:
		return "list"
	case AccessTree:
		return "tree"
	}
	return "unknown"
}

// ParseAccess is the inverse of Access.String.
func ParseAccess(s string) (Access, bool) {
	switch s {
	case "item", "":
		return AccessItem, true
	case "list":
		return AccessList, true
	case "tree":
		return AccessTree, true
	}
	return AccessItem, false
}

// Branch is one path's ordered value list.
type Branch struct {
	Path   Path
	Values []Value
}

// Tree maps branch paths to ordered value lists. Branches are kept in path
// order (see [Compare]) and keyed by their string encoding, which is unique
// per path.
//
// The zero value is not usable; create trees with [New] or [FromValues].
// A Tree is not safe for concurrent use.
type Tree struct {
	branches map[string]*Branch
	order    []Path
	cur      cursor
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{branches: make(map[string]*Branch)}
}

// FromValues creates a tree holding values in a single branch at path.
func FromValues(path Path, values ...Value) *Tree {
	t := New()
	t.Add(path, values...)
	return t
}

// Scalar creates the tree {0}: [v], the shape of a single literal.
func Scalar(v Value) *Tree { return FromValues(P(0), v) }

// Add appends values to the branch at path, creating the branch if it does
// not exist. Existing values are never replaced. Calling Add with no values
// materialises an empty branch.
func (t *Tree) Add(path Path, values ...Value) {
	b := t.branch(path)
	for _, v := range values {
		if v == nil {
			v = None{}
		}
		b.Values = append(b.Values, v)
	}
}

func (t *Tree) branch(path Path) *Branch {
	key := path.String()
	if b, ok := t.branches[key]; ok {
		return b
	}
	b := &Branch{Path: path.Clone()}
	t.branches[key] = b
	i, _ := slices.BinarySearchFunc(t.order, path, Compare)
	t.order = slices.Insert(t.order, i, b.Path)
	return b
}

// Has reports whether a branch exists at path.
func (t *Tree) Has(path Path) bool {
	_, ok := t.branches[path.String()]
	return ok
}

// Branch returns the values stored at path. The returned slice must not be
// modified.
func (t *Tree) Branch(path Path) ([]Value, bool) {
	b, ok := t.branches[path.String()]
	if !ok {
		return nil, false
	}
	return b.Values, true
}

// Item returns the i-th value of the branch at path. It returns false when
// the branch is missing or i is out of range.
func (t *Tree) Item(path Path, i int) (Value, bool) {
	b, ok := t.branches[path.String()]
	if !ok || i < 0 || i >= len(b.Values) {
		return nil, false
	}
	return b.Values[i], true
}

// NumItemsAtBranch returns the number of solve arguments the branch at path
// provides under access: the branch length for AccessItem, and 1 otherwise
// since the whole branch is one argument.
func (t *Tree) NumItemsAtBranch(path Path, access Access) int {
	if access != AccessItem {
		return 1
	}
	b, ok := t.branches[path.String()]
	if !ok {
		return 0
	}
	return len(b.Values)
}

// Paths returns the branch paths in order.
func (t *Tree) Paths() []Path {
	out := make([]Path, len(t.order))
	for i, p := range t.order {
		out[i] = p.Clone()
	}
	return out
}

// Branches returns the branches in path order. The returned branches share
// storage with the tree and must be treated as read-only.
func (t *Tree) Branches() []Branch {
	out := make([]Branch, len(t.order))
	for i, p := range t.order {
		out[i] = *t.branches[p.String()]
	}
	return out
}

// NumBranches returns the number of materialised branches.
func (t *Tree) NumBranches() int { return len(t.order) }

// NumItems returns the total number of values over all branches.
func (t *Tree) NumItems() int {
	n := 0
	for _, b := range t.branches {
		n += len(b.Values)
	}
	return n
}

// IsEmpty reports whether the tree holds no branches at all.
func (t *Tree) IsEmpty() bool { return t == nil || len(t.order) == 0 }

// First returns the first value in path order, if any. Trees may mix value
// kinds across branches; callers using First as a type hint accept that it
// only reflects the first value seen.
func (t *Tree) First() (Value, bool) {
	for _, p := range t.order {
		if b := t.branches[p.String()]; len(b.Values) > 0 {
			return b.Values[0], true
		}
	}
	return nil, false
}

// AllValues returns every value in path order.
func (t *Tree) AllValues() []Value {
	var out []Value
	for _, p := range t.order {
		out = append(out, t.branches[p.String()].Values...)
	}
	return out
}

// Clone returns a deep copy of the branch structure. Values themselves are
// immutable and shared. A nil tree clones to an empty one.
func (t *Tree) Clone() *Tree {
	out := New()
	if t == nil {
		return out
	}
	for _, p := range t.order {
		b := t.branches[p.String()]
		nb := out.branch(p)
		nb.Values = slices.Clone(b.Values)
	}
	return out
}

// Equal reports whether both trees hold the same branches with equal values.
func (t *Tree) Equal(o *Tree) bool {
	if t.IsEmpty() || o.IsEmpty() {
		return t.IsEmpty() && o.IsEmpty()
	}
	if len(t.order) != len(o.order) {
		return false
	}
	for key, b := range t.branches {
		ob, ok := o.branches[key]
		if !ok || len(ob.Values) != len(b.Values) {
			return false
		}
		for i := range b.Values {
			if !ValuesEqual(b.Values[i], ob.Values[i]) {
				return false
			}
		}
	}
	return true
}

// String renders the tree one branch per line, e.g. "{0;1}: [1, 2]".
func (t *Tree) String() string {
	if t.IsEmpty() {
		return "<empty>"
	}
	var sb strings.Builder
	for i, p := range t.order {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p.String())
		sb.WriteString(": [")
		for j, v := range t.branches[p.String()].Values {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteByte(']')
	}
	return sb.String()
}
