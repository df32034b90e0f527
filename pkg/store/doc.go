// Package store persists graph documents.
//
// A [Store] maps string keys to opaque byte values. Four backends are
// provided: [FileStore] (sharded JSON envelopes on disk), [RedisStore],
// [MongoStore] and [NullStore]. [Open] picks one from a URL:
//
//	s, err := store.Open(ctx, "redis://localhost:6379/0")
//	defer s.Close()
//	err = store.SaveDocument(ctx, s, "bridge", doc)
//
// Absent keys yield NOT_FOUND errors; backend failures are STORE_ERROR.
// Every backend reports hits, misses, writes and deletes to the
// observability store hooks.
package store
