package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treeflow/pkg/errors"
)

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	runStoreContract(t, s)
}

func TestFileStore_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	path := s.path("k")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err = s.Get(ctx, "k")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	assert.NoFileExists(t, path)
}

func TestFileStore_Sharding(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "k", []byte("v")))

	hash := Hash([]byte("k"))
	assert.FileExists(t, filepath.Join(dir, hash[:2], hash[2:]+".json"))
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "key", []byte("value")))
	_, err := s.Get(ctx, "key")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "null store should not keep data")
	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.NoError(t, s.Delete(ctx, "key"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "null://")
	require.NoError(t, err)
	assert.IsType(t, &NullStore{}, s)

	dir := t.TempDir()
	s, err = Open(ctx, "file://"+dir)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	assert.Equal(t, dir, s.(*FileStore).Dir())

	_, err = Open(ctx, "s3://bucket")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash([]byte("hello")), Hash([]byte("hello")))
	assert.NotEqual(t, Hash([]byte("hello")), Hash([]byte("world")))
	assert.Len(t, Hash([]byte("hello")), 64)
}

func TestRetryableError(t *testing.T) {
	assert.Nil(t, Retryable(nil))

	err := Retryable(ErrUnavailable)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrUnavailable.Error(), err.Error())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, IsRetryable(ErrUnavailable))
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	require.NoError(t, RetryWithBackoff(ctx, func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)

	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return ErrUnavailable })
	assert.Equal(t, ErrUnavailable, err)
	assert.Equal(t, 1, calls, "non-retryable errors stop immediately")

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrUnavailable) })
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	assert.Equal(t, context.Canceled, err)
}
