package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Contract(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})

	s := NewRedisStore(client)
	defer s.Close()
	runStoreContract(t, s)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := OpenRedis(ctx, "redis://"+mr.Addr()+"/0?prefix=test:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, "index", []byte("v")))
	assert.True(t, mr.Exists("test:k:index"))

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"index"}, keys)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &RedisStore{}, s)
}
