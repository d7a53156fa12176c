package storage

import (
	"context"
	"path"
)

//go:generate moq -out adapter_mock.go . Adapter

// Adapter is the uniform key-value contract over a physical store. Two
// instances back the data layer: a fast local store (BoltDB) and a remote
// store reached over the network. Callers never assume more than this
// contract; durability and latency differences stay behind it.
type Adapter interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all keys matching the glob pattern (`*` and `?`
	// wildcards). An empty pattern matches every key.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Clear removes every key from the store.
	Clear(ctx context.Context) error
}

// EntityKey builds the storage key for an entity of the given kind.
func EntityKey(kind, id string) string {
	return kind + ":" + id
}

// KindPattern matches every key of one entity kind.
func KindPattern(kind string) string {
	return kind + ":*"
}

// MatchKey reports whether key matches the glob pattern. Storage keys
// never contain slashes, so path.Match wildcards apply to the whole key.
func MatchKey(pattern, key string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
