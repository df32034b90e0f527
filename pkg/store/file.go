package store

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/observability"
)

// FileStore keeps one JSON envelope file per key under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := errors.ValidatePath(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeErr(err, "create %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// Get reads the value stored under key. Corrupt entries are removed and
// reported as missing.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := errors.ValidateKey(key); err != nil {
		return nil, err
	}
	path := s.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		observability.Store().OnStoreMiss(ctx, "file")
		return nil, notFound(key)
	}
	if err != nil {
		return nil, storeErr(err, "read %s", key)
	}

	e, ok := decodeEntry(raw)
	if !ok || e.Key != key {
		_ = os.Remove(path)
		observability.Store().OnStoreMiss(ctx, "file")
		return nil, notFound(key)
	}
	observability.Store().OnStoreHit(ctx, "file")
	return e.Data, nil
}

// Put writes data under key, replacing any previous value.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(newEntry(key, data))
	if err != nil {
		return storeErr(err, "encode %s", key)
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return storeErr(err, "put %s", key)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return storeErr(err, "put %s", key)
	}
	if err := os.Rename(tmp, path); err != nil {
		return storeErr(err, "put %s", key)
	}
	observability.Store().OnStorePut(ctx, "file", len(data))
	return nil
}

// Delete removes key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return storeErr(err, "delete %s", key)
	}
	observability.Store().OnStoreDelete(ctx, "file")
	return nil
}

// List walks the shard directories and returns the stored keys.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if e, ok := decodeEntry(raw); ok {
			keys = append(keys, e.Key)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, storeErr(err, "list %s", s.dir)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

// path converts a key to a file path. The first two hash characters name
// a shard subdirectory to keep directories small.
func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

var _ Store = (*FileStore)(nil)
