package store

import (
	"context"
	"fmt"
	"net/url"

	backend "github.com/redis/go-redis/v9"

	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/observability"
)

// DefaultRedisPrefix namespaces every key the Redis store writes.
const DefaultRedisPrefix = "treeflow:doc:"

// RedisStore keeps values as plain Redis strings and tracks keys in a
// sorted set so List does not need SCAN.
type RedisStore struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis store from an existing client.
func NewRedisStore(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRedis connects using a redis:// or rediss:// URL. A "prefix" query
// parameter overrides [DefaultRedisPrefix]. The server is pinged before
// returning, retrying transient failures.
func OpenRedis(ctx context.Context, rawURL string) (*RedisStore, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse redis URL")
	}
	var opts []RedisOption
	q := u.Query()
	if q.Has("prefix") {
		opts = append(opts, WithPrefix(q.Get("prefix")))
		q.Del("prefix")
		u.RawQuery = q.Encode()
	}

	ropts, err := backend.ParseURL(u.String())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse redis URL")
	}
	client := backend.NewClient(ropts)

	err = RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		_ = client.Close()
		return nil, storeErr(fmt.Errorf("%w: %w", ErrUnavailable, err), "connect %s", ropts.Addr)
	}
	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + "k:" + k
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// Get retrieves the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := errors.ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == backend.Nil {
		observability.Store().OnStoreMiss(ctx, "redis")
		return nil, notFound(key)
	}
	if err != nil {
		return nil, storeErr(err, "get %s", key)
	}
	observability.Store().OnStoreHit(ctx, "redis")
	return data, nil
}

// Put stores the value and indexes the key in one pipeline.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(key), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr(err, "put %s", key)
	}
	observability.Store().OnStorePut(ctx, "redis", len(data))
	return nil
}

// Delete removes the value and its index entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr(err, "delete %s", key)
	}
	observability.Store().OnStoreDelete(ctx, "redis")
	return nil
}

// List returns the indexed keys. All members share score 0, so the sorted
// set already yields them in lexical order.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, storeErr(err, "list")
	}
	return keys, nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
