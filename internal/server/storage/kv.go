// Package storage defines the server-side persistence contract: a
// key-value table scoped by owner, one row per (owner, key).
package storage

import "context"

// KVStore is implemented by the server's persistent backend.
type KVStore interface {
	// Get returns the value stored under (owner, key).
	// Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, owner, key string) ([]byte, error)

	// Set upserts the value under (owner, key).
	Set(ctx context.Context, owner, key string, value []byte) error

	// Delete removes (owner, key). Absent keys are not an error.
	Delete(ctx context.Context, owner, key string) error

	// Exists reports whether (owner, key) is present.
	Exists(ctx context.Context, owner, key string) (bool, error)

	// Keys returns the owner's keys matching the glob pattern.
	Keys(ctx context.Context, owner, pattern string) ([]string, error)

	// Clear removes every key belonging to owner.
	Clear(ctx context.Context, owner string) error
}
