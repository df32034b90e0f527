package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/observability"
)

// Default database and collection when the URL names neither.
const (
	DefaultMongoDatabase   = "treeflow"
	DefaultMongoCollection = "documents"
)

// MongoStore keeps one document per key, with the key as _id.
type MongoStore struct {
	coll   *mongo.Collection
	client *mongo.Client
}

// NewMongoStore wraps an existing collection. Close does not disconnect
// the collection's client.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// OpenMongo connects using a mongodb:// or mongodb+srv:// URL. The URL
// path selects the database and a "collection" query parameter the
// collection.
func OpenMongo(ctx context.Context, rawURL string) (*MongoStore, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse mongodb URL")
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		db = DefaultMongoDatabase
	}
	q := u.Query()
	collection := q.Get("collection")
	if collection == "" {
		collection = DefaultMongoCollection
	}
	q.Del("collection")
	u.RawQuery = q.Encode()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(u.String()))
	if err != nil {
		return nil, storeErr(err, "connect mongodb")
	}
	err = RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx, readpref.Primary()))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeErr(fmt.Errorf("%w: %w", ErrUnavailable, err), "connect mongodb")
	}

	s := NewMongoStore(client.Database(db).Collection(collection))
	s.client = client
	return s, nil
}

// Get retrieves the value stored under key.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := errors.ValidateKey(key); err != nil {
		return nil, err
	}
	var e entry
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		observability.Store().OnStoreMiss(ctx, "mongodb")
		return nil, notFound(key)
	}
	if err != nil {
		return nil, storeErr(err, "get %s", key)
	}
	observability.Store().OnStoreHit(ctx, "mongodb")
	return e.Data, nil
}

// Put upserts the value under key.
func (s *MongoStore) Put(ctx context.Context, key string, data []byte) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, newEntry(key, data), options.Replace().SetUpsert(true))
	if err != nil {
		return storeErr(err, "put %s", key)
	}
	observability.Store().OnStorePut(ctx, "mongodb", len(data))
	return nil
}

// Delete removes key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return storeErr(err, "delete %s", key)
	}
	observability.Store().OnStoreDelete(ctx, "mongodb")
	return nil
}

// List returns every _id sorted ascending.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr(err, "list")
	}
	var rows []struct {
		Key string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, storeErr(err, "list")
	}
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	return keys, nil
}

// Close disconnects the client when the store opened it.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
