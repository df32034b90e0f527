package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
)

// runStoreContract checks the behavior every Store implementation shares.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "alpha", []byte("one")))
		got, err := s.Get(ctx, "alpha")
		require.NoError(t, err)
		assert.Equal(t, []byte("one"), got)

		require.NoError(t, s.Put(ctx, "alpha", []byte("two")))
		got, err = s.Get(ctx, "alpha")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got, "Put should replace")
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "gone", []byte("x")))
		require.NoError(t, s.Delete(ctx, "gone"))
		_, err := s.Get(ctx, "gone")
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
		assert.NoError(t, s.Delete(ctx, "gone"), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "b-list", []byte("2")))
		require.NoError(t, s.Put(ctx, "a-list", []byte("1")))
		keys, err := s.List(ctx)
		require.NoError(t, err)
		assert.Subset(t, keys, []string{"a-list", "b-list"})
		assert.IsNonDecreasing(t, keys)
	})

	t.Run("Invalid Key", func(t *testing.T) {
		err := s.Put(ctx, "../escape", []byte("x"))
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
	})

	t.Run("Documents", func(t *testing.T) {
		doc := document.New("stored")
		doc.Components = []document.Component{{ID: 1, Type: "number", Params: map[string]any{"value": 2.0}}}
		require.NoError(t, SaveDocument(ctx, s, "doc", doc))

		got, err := LoadDocument(ctx, s, "doc")
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, "number", got.Components[0].Type)
		assert.Equal(t, 2.0, got.Components[0].Params["value"])
	})
}
