package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
)

func sampleDoc() document.Document {
	doc := document.New("s")
	doc.Components = []document.Component{{ID: 1, Type: "negate"}}
	return doc
}

func newManager(ttl time.Duration) (*Manager, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(nil, ttl)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManager_CreateAndEdit(t *testing.T) {
	m, _ := newManager(time.Hour)
	sess, err := m.Create(sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, "s", sess.Name)
	assert.Equal(t, []string{sess.ID}, m.List())

	ref := graph.SlotRef{Component: 1}
	err = m.With(sess.ID, func(g *graph.Graph) error {
		if err := g.HardSet(ref, datatree.Scalar(datatree.Int(4))); err != nil {
			return err
		}
		_, err := g.QuickTopoSolve(context.Background())
		return err
	})
	require.NoError(t, err)

	var out *datatree.Tree
	require.NoError(t, m.With(sess.ID, func(g *graph.Graph) error {
		out, err = g.OutputTree(ref)
		return err
	}))
	assert.True(t, out.Equal(datatree.Scalar(datatree.Int(-4))), "out = %v", out)
}

func TestManager_Expiry(t *testing.T) {
	m, now := newManager(time.Minute)
	sess, err := m.Create(sampleDoc())
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	require.NoError(t, m.With(sess.ID, func(*graph.Graph) error { return nil }), "access extends expiry")

	*now = now.Add(45 * time.Second)
	_, err = m.Get(sess.ID)
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	assert.Empty(t, m.List())
	assert.Equal(t, 1, m.Cleanup())
	assert.Equal(t, 0, m.Len())

	_, err = m.Get(sess.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestManager_Errors(t *testing.T) {
	m, _ := newManager(0)
	assert.Equal(t, DefaultTTL, m.ttl)

	bad := document.New("bad")
	bad.Components = []document.Component{{ID: 1, Type: "nope"}}
	_, err := m.Create(bad)
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownType), "got %v", err)

	assert.True(t, errors.Is(m.Delete("missing"), errors.ErrCodeNotFound))
	err = m.With("missing", func(*graph.Graph) error { return nil })
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestManager_Run(t *testing.T) {
	m, now := newManager(time.Minute)
	_, err := m.Create(sampleDoc())
	require.NoError(t, err)
	*now = now.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
