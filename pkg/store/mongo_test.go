package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/matzehuels/treeflow/pkg/errors"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get hit", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "a"},
			{Key: "data", Value: []byte("payload")},
			{Key: "hash", Value: Hash([]byte("payload"))},
		}))

		got, err := s.Get(ctx, "a")
		require.NoError(mt, err)
		assert.Equal(mt, []byte("payload"), got)
	})

	mt.Run("get miss", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.Get(ctx, "a")
		assert.True(mt, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)
	})

	mt.Run("put", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		assert.NoError(mt, s.Put(ctx, "a", []byte("payload")))
	})

	mt.Run("put failure", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
			Name:    "DuplicateKey",
		}))
		err := s.Put(ctx, "a", []byte("payload"))
		assert.True(mt, errors.Is(err, errors.ErrCodeStore), "got %v", err)
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(mt, s.Delete(ctx, "a"))
	})

	mt.Run("list", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "a"}},
			bson.D{{Key: "_id", Value: "b"}},
		))

		keys, err := s.List(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"a", "b"}, keys)
	})

	mt.Run("invalid key", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll)
		_, err := s.Get(ctx, "a/b")
		assert.True(mt, errors.Is(err, errors.ErrCodeInvalidInput))
	})
}
