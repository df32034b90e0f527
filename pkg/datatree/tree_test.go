package datatree

import (
	"testing"
)

func floats(vs ...float64) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}

func TestAddAppends(t *testing.T) {
	tr := New()
	tr.Add(P(0), Float(1))
	tr.Add(P(0), Float(2), Float(3))

	values, ok := tr.Branch(P(0))
	if !ok {
		t.Fatal("branch {0} missing")
	}
	if len(values) != 3 {
		t.Fatalf("len = %d, want 3", len(values))
	}
	if values[0] != Float(1) || values[2] != Float(3) {
		t.Errorf("values = %v", values)
	}
	if tr.NumBranches() != 1 {
		t.Errorf("NumBranches = %d, want 1", tr.NumBranches())
	}
}

func TestAddNilStoresNone(t *testing.T) {
	tr := New()
	tr.Add(P(0), nil)
	v, ok := tr.Item(P(0), 0)
	if !ok || v.Kind() != KindNone {
		t.Errorf("Item = %v, %v; want None", v, ok)
	}
}

func TestBranchOrder(t *testing.T) {
	tr := New()
	tr.Add(P(1), Int(1))
	tr.Add(P(0, 10), Int(2))
	tr.Add(P(0, 2), Int(3))
	tr.Add(P(0), Int(4))

	var got []string
	for _, p := range tr.Paths() {
		got = append(got, p.String())
	}
	want := []string{"{0}", "{0;2}", "{0;10}", "{1}"}
	if len(got) != len(want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestItemMissing(t *testing.T) {
	tr := FromValues(P(0), floats(1, 2)...)

	if _, ok := tr.Item(P(0), 2); ok {
		t.Error("out-of-range index should report no data")
	}
	if _, ok := tr.Item(P(0), -1); ok {
		t.Error("negative index should report no data")
	}
	if _, ok := tr.Item(P(5), 0); ok {
		t.Error("missing branch should report no data")
	}
	if _, ok := tr.Branch(P(5)); ok {
		t.Error("missing branch should report no data")
	}
}

func TestNumItemsAtBranch(t *testing.T) {
	tr := FromValues(P(0), floats(1, 2, 3)...)
	tests := []struct {
		path   Path
		access Access
		want   int
	}{
		{P(0), AccessItem, 3},
		{P(0), AccessList, 1},
		{P(0), AccessTree, 1},
		{P(9), AccessItem, 0},
	}
	for _, tt := range tests {
		if got := tr.NumItemsAtBranch(tt.path, tt.access); got != tt.want {
			t.Errorf("NumItemsAtBranch(%v, %v) = %d, want %d", tt.path, tt.access, got, tt.want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	if !New().IsEmpty() {
		t.Error("new tree should be empty")
	}
	var nilTree *Tree
	if !nilTree.IsEmpty() {
		t.Error("nil tree should be empty")
	}
	tr := New()
	tr.Add(P(0))
	if tr.IsEmpty() {
		t.Error("tree with an empty branch is not empty")
	}
	if tr.NumItems() != 0 {
		t.Errorf("NumItems = %d, want 0", tr.NumItems())
	}
}

func TestFirst(t *testing.T) {
	tr := New()
	tr.Add(P(0))
	tr.Add(P(1), String("x"), Int(2))
	v, ok := tr.First()
	if !ok || v != String("x") {
		t.Errorf("First = %v, %v", v, ok)
	}
	if _, ok := New().First(); ok {
		t.Error("empty tree has no first value")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := FromValues(P(0), Float(1))
	c := tr.Clone()
	c.Add(P(0), Float(2))
	c.Add(P(1), Float(3))

	if tr.NumItems() != 1 || tr.NumBranches() != 1 {
		t.Errorf("original modified: %v", tr)
	}
	if !tr.Equal(tr.Clone()) {
		t.Error("clone should equal original")
	}

	var nilTree *Tree
	if c := nilTree.Clone(); c == nil || !c.IsEmpty() {
		t.Errorf("nil Clone() = %v, want empty tree", c)
	}
}

func TestEqual(t *testing.T) {
	a := FromValues(P(0), Float(1), List{Int(1), Int(2)})
	b := FromValues(P(0), Float(1), List{Int(1), Int(2)})
	c := FromValues(P(0), Float(1), List{Int(1), Int(3)})
	d := FromValues(P(1), Float(1), List{Int(1), Int(2)})

	if !a.Equal(b) {
		t.Error("a should equal b")
	}
	if a.Equal(c) {
		t.Error("a should not equal c")
	}
	if a.Equal(d) {
		t.Error("a should not equal d")
	}
	if !New().Equal(nil) {
		t.Error("empty trees are equal")
	}
}

func TestCursorLongestList(t *testing.T) {
	long := FromValues(P(0), floats(1, 2, 3)...)
	short := FromValues(P(0), Float(10))

	long.Begin()
	short.Begin()

	var pairs [][2]Value
	for i := 0; i < 3; i++ {
		pairs = append(pairs, [2]Value{long.NextItem(AccessItem), short.NextItem(AccessItem)})
	}

	want := [][2]Value{{Float(1), Float(10)}, {Float(2), Float(10)}, {Float(3), Float(10)}}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d = %v, want %v", i, pairs[i], want[i])
		}
	}
	if !short.ItemOverflow() {
		t.Error("short should report item overflow")
	}
	if !long.ItemOverflow() {
		t.Error("long should report item overflow after its last item")
	}
}

func TestCursorListAccess(t *testing.T) {
	tr := FromValues(P(0), floats(1, 2)...)
	tr.Begin()

	v := tr.NextItem(AccessList)
	l, ok := v.(List)
	if !ok || len(l) != 2 {
		t.Fatalf("NextItem(List) = %v", v)
	}
	if tr.ItemOverflow() {
		t.Error("list access should not move the item cursor")
	}
	if again := tr.NextItem(AccessTree); !ValuesEqual(again, v) {
		t.Errorf("tree access = %v, want %v", again, v)
	}
}

func TestCursorBranches(t *testing.T) {
	tr := New()
	tr.Add(P(0), Int(1), Int(2))
	tr.Add(P(1), Int(3))
	tr.Begin()

	if got := tr.CurrentPath(); !got.Equal(P(0)) {
		t.Errorf("CurrentPath = %v", got)
	}
	tr.NextItem(AccessItem)
	tr.NextBranch()
	if got := tr.CurrentPath(); !got.Equal(P(1)) {
		t.Errorf("CurrentPath = %v", got)
	}
	if v := tr.NextItem(AccessItem); v != Int(3) {
		t.Errorf("first item of {1} = %v, want 3", v)
	}
	if tr.BranchOverflow() {
		t.Error("no overflow yet")
	}

	tr.NextBranch()
	if !tr.BranchOverflow() {
		t.Error("expected branch overflow")
	}
	if got := tr.CurrentPath(); !got.Equal(P(1)) {
		t.Errorf("overflowed cursor should clamp to last branch, got %v", got)
	}
	if v := tr.NextItem(AccessItem); v != Int(3) {
		t.Errorf("clamped branch item = %v, want 3", v)
	}
}

func TestCursorEmpty(t *testing.T) {
	tr := New()
	tr.Begin()
	if v := tr.NextItem(AccessItem); v.Kind() != KindNone {
		t.Errorf("empty tree NextItem = %v", v)
	}
	if tr.CurrentPath() != nil {
		t.Error("empty tree has no current path")
	}

	tr.Add(P(0))
	tr.Begin()
	if v := tr.NextItem(AccessItem); v.Kind() != KindNone {
		t.Errorf("empty branch NextItem = %v", v)
	}
}

func TestString(t *testing.T) {
	tr := New()
	tr.Add(P(0), Float(1), Float(2.5))
	tr.Add(P(1), String("a"))
	want := "{0}: [1, 2.5]\n{1}: [a]"
	if got := tr.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := New().String(); got != "<empty>" {
		t.Errorf("empty String() = %q", got)
	}
}
