package datatree

// cursor walks a tree branch by branch, item by item. Both indices clamp
// at the last element once exhausted, which is what gives longest-list
// matching between trees of different lengths.
type cursor struct {
	branch         int
	item           int
	branchOverflow bool
	itemOverflow   bool
}

// Begin resets the branch and item cursors to the first item of the first
// branch and clears both overflow flags.
func (t *Tree) Begin() { t.cur = cursor{} }

// CurrentPath returns the path of the branch under the cursor, or nil for an
// empty tree.
func (t *Tree) CurrentPath() Path {
	if len(t.order) == 0 {
		return nil
	}
	return t.order[t.cursorBranch()].Clone()
}

func (t *Tree) cursorBranch() int {
	return min(t.cur.branch, len(t.order)-1)
}

// NextItem returns the next solve argument from the current branch.
//
// With AccessItem it returns the value under the item cursor and advances
// it; once the branch is exhausted the last value is repeated and
// ItemOverflow reports true. With AccessList or AccessTree it returns the
// whole branch wrapped in a [List] without moving the item cursor.
//
// An empty tree or an empty branch yields None.
func (t *Tree) NextItem(access Access) Value {
	if len(t.order) == 0 {
		return None{}
	}
	values := t.branches[t.order[t.cursorBranch()].String()].Values
	if access != AccessItem {
		return List(append([]Value(nil), values...))
	}
	if len(values) == 0 {
		return None{}
	}
	i := t.cur.item
	if i >= len(values) {
		i = len(values) - 1
		t.cur.itemOverflow = true
	} else {
		t.cur.item++
		if t.cur.item >= len(values) {
			t.cur.itemOverflow = true
		}
	}
	return values[i]
}

// NextBranch advances the branch cursor and resets the item cursor. Past
// the last branch the cursor stays on it and BranchOverflow reports true.
func (t *Tree) NextBranch() {
	t.cur.item = 0
	t.cur.itemOverflow = false
	if t.cur.branch+1 >= len(t.order) {
		t.cur.branchOverflow = true
		return
	}
	t.cur.branch++
}

// ItemOverflow reports whether the item cursor reached the end of its branch.
func (t *Tree) ItemOverflow() bool { return t.cur.itemOverflow }

// BranchOverflow reports whether NextBranch was called on the last branch.
func (t *Tree) BranchOverflow() bool { return t.cur.branchOverflow }
