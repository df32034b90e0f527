package datatree

import (
	"errors"
	"testing"
)

func TestPathRoundTrip(t *testing.T) {
	paths := []Path{
		{},
		{0},
		{7},
		{0, 1, 2},
		{10, 0, 3},
		{123456, 0},
	}
	for _, p := range paths {
		s := p.String()
		got, err := ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q) error: %v", s, err)
		}
		if !got.Equal(p) {
			t.Errorf("ParsePath(%q) = %v, want %v", s, got, p)
		}
		if got.String() != s {
			t.Errorf("re-encoding %v = %q, want %q", got, got.String(), s)
		}
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		path Path
		want string
	}{
		{Path{}, "{}"},
		{nil, "{}"},
		{P(0), "{0}"},
		{P(0, 1, 2), "{0;1;2}"},
	}
	for _, tt := range tests {
		if got := tt.path.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", []int(tt.path), got, tt.want)
		}
	}
}

func TestParsePathRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"{",
		"0;1",
		"{0;1",
		"{;}",
		"{0;}",
		"{-1}",
		"{+1}",
		"{01}",
		"{ 1}",
		"{a}",
		"{1,2}",
	}
	for _, s := range bad {
		if _, err := ParsePath(s); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ParsePath(%q) error = %v, want ErrInvalidPath", s, err)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Path
		want int
	}{
		{P(0), P(0), 0},
		{P(0), P(1), -1},
		{P(2), P(1), 1},
		{P(0), P(0, 0), -1},
		{P(0, 5), P(1), -1},
		{P(1, 0), P(0, 9), 1},
		{Path{}, P(0), -1},
		{P(0, 2), P(0, 10), -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPathHelpers(t *testing.T) {
	p := P(0, 1)
	q := p.Append(2)
	if q.String() != "{0;1;2}" {
		t.Errorf("Append = %v", q)
	}
	if p.String() != "{0;1}" {
		t.Errorf("Append modified receiver: %v", p)
	}
	if got := q.Parent(); !got.Equal(p) {
		t.Errorf("Parent = %v, want %v", got, p)
	}
	if got := (Path{}).Parent(); len(got) != 0 {
		t.Errorf("root Parent = %v, want root", got)
	}
	if !q.HasPrefix(P(0)) || q.HasPrefix(P(1)) || P(0).HasPrefix(q) {
		t.Error("HasPrefix mismatch")
	}
}
