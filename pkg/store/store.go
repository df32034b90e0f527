package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/url"

	"lukechampine.com/blake3"

	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
)

// Store persists opaque blobs under string keys. Graph documents are the
// main payload; see [SaveDocument] and [LoadDocument].
//
// Get returns a NOT_FOUND error for absent keys. Delete of an absent key is
// not an error. List returns every key in lexical order.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Open connects to the store at rawURL. Supported schemes:
//
//	file:///var/lib/treeflow        sharded files under a directory
//	redis://host:6379/0             Redis, optionally ?prefix=...
//	mongodb://host/db?collection=   MongoDB (also mongodb+srv)
//	null://                         discards everything
func Open(ctx context.Context, rawURL string) (Store, error) {
	if err := errors.ValidateStoreURL(rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse store URL")
	}

	switch u.Scheme {
	case "null":
		return NewNullStore(), nil
	case "file":
		dir := u.Path
		if u.Host != "" {
			dir = u.Host + u.Path
		}
		return NewFileStore(dir)
	case "redis", "rediss":
		return OpenRedis(ctx, rawURL)
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, rawURL)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported store scheme %q", u.Scheme)
}

// Hash returns the hex BLAKE3-256 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// Documents
// =============================================================================

// SaveDocument stores doc as JSON under key.
func SaveDocument(ctx context.Context, s Store, key string, doc document.Document) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	data, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}

// LoadDocument reads and validates the document stored under key.
func LoadDocument(ctx context.Context, s Store, key string) (document.Document, error) {
	if err := errors.ValidateKey(key); err != nil {
		return document.Document{}, err
	}
	data, err := s.Get(ctx, key)
	if err != nil {
		return document.Document{}, err
	}
	return document.Unmarshal(data, document.FormatJSON)
}

func notFound(key string) error {
	return errors.New(errors.ErrCodeNotFound, "key %q not found", key)
}

func storeErr(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}

// entry is the on-disk and in-database envelope around stored data.
type entry struct {
	Key  string `json:"key" bson:"_id"`
	Data []byte `json:"data" bson:"data"`
	Hash string `json:"hash" bson:"hash"`
}

func newEntry(key string, data []byte) entry {
	return entry{Key: key, Data: data, Hash: Hash(data)}
}

func decodeEntry(raw []byte) (entry, bool) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Key == "" {
		return entry{}, false
	}
	return e, e.Hash == Hash(e.Data)
}
