package datatree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned by [ParsePath] when the input is not a path
// produced by [Path.String].
var ErrInvalidPath = errors.New("invalid path")

// Path addresses a branch inside a [Tree]. It is an ordered sequence of
// non-negative integers; the empty path is the root.
type Path []int

// P is shorthand for constructing a Path literal: P(0, 1) == Path{0, 1}.
func P(indices ...int) Path { return Path(indices) }

// String encodes the path as "{i;j;k}". The root path encodes as "{}".
// The encoding is stable byte-for-byte and is the key used for branch
// storage and for persisted literal trees.
func (p Path) String() string {
	var b strings.Builder
	b.Grow(2 + len(p)*3)
	b.WriteByte('{')
	for i, idx := range p {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	b.WriteByte('}')
	return b.String()
}

// ParsePath decodes a path encoded by [Path.String]. Anything that would not
// round-trip exactly (signs, leading zeros, whitespace, empty segments) is
// rejected with [ErrInvalidPath].
func ParsePath(s string) (Path, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return Path{}, nil
	}
	parts := strings.Split(body, ";")
	p := make(Path, len(parts))
	for i, part := range parts {
		if !canonicalIndex(part) {
			return nil, fmt.Errorf("%w: %q: bad segment %q", ErrInvalidPath, s, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, s, err)
		}
		p[i] = n
	}
	return p, nil
}

// MustParsePath is like ParsePath but panics on malformed input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func canonicalIndex(s string) bool {
	if s == "" {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Equal reports whether p and q have the same length and the same indices.
func (p Path) Equal(q Path) bool { return Compare(p, q) == 0 }

// Compare orders paths by their first differing index. When one path is a
// prefix of the other, the shorter path sorts first.
func Compare(p, q Path) int {
	n := min(len(p), len(q))
	for i := 0; i < n; i++ {
		switch {
		case p[i] < q[i]:
			return -1
		case p[i] > q[i]:
			return 1
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	}
	return 0
}

// Append returns a new path with idx appended. p is never modified.
func (p Path) Append(idx ...int) Path {
	out := make(Path, 0, len(p)+len(idx))
	out = append(out, p...)
	return append(out, idx...)
}

// Parent returns the path without its last index. The parent of the root
// is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p.Clone()[:len(p)-1]
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return Compare(p[:len(prefix)], prefix) == 0
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}
