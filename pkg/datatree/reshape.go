package datatree

import (
	"errors"
	"fmt"
)

// ErrInconsistentShape is returned by [Tree.OneToManyGraft] for a branch it
// cannot explode unambiguously: more than one value where at least one is a
// nested List.
var ErrInconsistentShape = errors.New("inconsistent tree shape")

// Graft returns a tree in which every branch holding more than one value is
// redistributed one level deeper: value i of branch p moves to p+{i}.
// Branches holding zero or one value are copied unchanged.
func (t *Tree) Graft() *Tree {
	out := New()
	for _, p := range t.order {
		values := t.branches[p.String()].Values
		if len(values) <= 1 {
			out.Add(p, values...)
			continue
		}
		for i, v := range values {
			out.Add(p.Append(i), v)
		}
	}
	return out
}

// OneToManyGraft explodes list-shaped results into sibling branches so that
// N branches each producing a variable-length list become N*k branches each
// holding a single value.
//
// Per branch p:
//   - no values, a single None, or a single non-list value: copied unchanged
//   - a single List of k elements: element i moves to p+{i}
//   - several plain values: value i moves to p+{i}
//   - several values including a List: [ErrInconsistentShape]
//
// On error the returned tree is empty.
func (t *Tree) OneToManyGraft() (*Tree, error) {
	out := New()
	for _, p := range t.order {
		values := t.branches[p.String()].Values
		switch len(values) {
		case 0:
			out.Add(p)
		case 1:
			list, ok := values[0].(List)
			if !ok {
				out.Add(p, values[0])
				continue
			}
			if len(list) == 0 {
				out.Add(p)
				continue
			}
			for i, v := range list {
				out.Add(p.Append(i), v)
			}
		default:
			for _, v := range values {
				if v.Kind() == KindList {
					return New(), fmt.Errorf("%w: branch %s mixes %d values with a nested list", ErrInconsistentShape, p, len(values))
				}
			}
			for i, v := range values {
				out.Add(p.Append(i), v)
			}
		}
	}
	return out, nil
}

// Flatten returns a tree holding every value, in path order, in the single
// branch {0}. Flattening an empty tree yields an empty tree.
func (t *Tree) Flatten() *Tree {
	out := New()
	if t.IsEmpty() {
		return out
	}
	out.Add(P(0), t.AllValues()...)
	return out
}

// Simplify removes empty branches that have no sibling. A sibling is another
// branch of the same depth under the same parent. Implicit ancestors of
// every branch are filled in before pruning so that they can witness their
// siblings; they are dropped again afterwards. Pruning repeats until no
// branch qualifies.
func (t *Tree) Simplify() *Tree {
	work := t.Clone()
	synthetic := make(map[string]bool)
	for _, p := range t.order {
		for k := 0; k < len(p); k++ {
			anc := p[:k]
			if !work.Has(anc) {
				work.branch(anc)
				synthetic[anc.String()] = true
			}
		}
	}

	for {
		var doomed []Path
		for _, p := range work.order {
			if len(work.branches[p.String()].Values) == 0 && !work.hasSibling(p) {
				doomed = append(doomed, p)
			}
		}
		if len(doomed) == 0 {
			break
		}
		for _, p := range doomed {
			work.remove(p)
		}
	}

	out := New()
	for _, p := range work.order {
		if synthetic[p.String()] {
			continue
		}
		out.Add(p, work.branches[p.String()].Values...)
	}
	return out
}

func (t *Tree) hasSibling(p Path) bool {
	if len(p) == 0 {
		return false
	}
	parent := p[:len(p)-1]
	for _, q := range t.order {
		if len(q) == len(p) && !q.Equal(p) && q.HasPrefix(parent) {
			return true
		}
	}
	return false
}

func (t *Tree) remove(p Path) {
	key := p.String()
	if _, ok := t.branches[key]; !ok {
		return
	}
	delete(t.branches, key)
	for i, q := range t.order {
		if q.Equal(p) {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// FlipMatrix transposes branch-major storage to item-major: value j of the
// i-th branch becomes value i of branch j. Every branch must have the same
// length; otherwise FlipMatrix returns an empty tree and false.
//
// When all branches share a parent path the result branches are created
// under that parent, otherwise directly under the root.
func (t *Tree) FlipMatrix() (*Tree, bool) {
	out := New()
	if t.IsEmpty() {
		return out, true
	}
	width := -1
	for _, p := range t.order {
		n := len(t.branches[p.String()].Values)
		if width == -1 {
			width = n
		} else if n != width {
			return New(), false
		}
	}

	prefix := t.sharedParent()
	for j := 0; j < width; j++ {
		for _, p := range t.order {
			out.Add(prefix.Append(j), t.branches[p.String()].Values[j])
		}
	}
	return out, true
}

func (t *Tree) sharedParent() Path {
	first := t.order[0]
	if len(first) == 0 {
		return Path{}
	}
	parent := first.Parent()
	for _, p := range t.order[1:] {
		if len(p) != len(first) || !p.HasPrefix(parent) {
			return Path{}
		}
	}
	return parent
}
