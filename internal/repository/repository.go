// Package repository implements the generic entity repository that
// orchestrates cache, local, and remote storage tiers, performs
// optimistic local writes, and enqueues mutations for background sync.
package repository

import (
	"context"
	"errors"

	"github.com/timevault/timevault/internal/models"
)

//go:generate moq -out enqueuer_mock.go . Enqueuer

// Enqueuer receives durable sync intents for every local mutation.
// Implemented by the sync engine.
type Enqueuer interface {
	Enqueue(ctx context.Context, opType models.OperationType, kind, id string, payload []byte) error
}

// ErrRepository wraps unexpected failures surfaced by a repository
// operation that do not map onto a more specific kind.
var ErrRepository = errors.New("repository error")

// Repository is the typed CRUD contract consumers see. Screens and
// other collaborators outside the data layer interact only through this
// interface; they never touch storage adapters, the cache, or sync
// operations directly.
type Repository[T models.Entity] interface {
	// FindByID resolves an entity through the cache -> local -> remote
	// chain. Returns storage.ErrNotFound if no tier holds it.
	FindByID(ctx context.Context, id string) (T, error)

	// FindAll reads both storage tiers, merges by identifier, and
	// applies the query's filter, sort, offset, and limit.
	FindAll(ctx context.Context, q Query[T]) ([]T, error)

	// Create assigns an ID if missing, persists the entity to local
	// storage, and enqueues remote propagation. On success the entity is
	// durable locally; it is NOT guaranteed to exist remotely yet.
	Create(ctx context.Context, entity T) (T, error)

	// Update loads the entity, applies mutate to it, and persists the
	// full merged entity. mutate returning an error aborts the write.
	Update(ctx context.Context, id string, mutate func(T) error) (T, error)

	// Delete removes the local copy and enqueues a best-effort remote
	// delete. No tombstone is kept.
	Delete(ctx context.Context, id string) error

	// Exists reports whether any tier holds the entity.
	Exists(ctx context.Context, id string) (bool, error)

	// Count returns the number of entities matching the query's filter,
	// ignoring offset and limit.
	Count(ctx context.Context, q Query[T]) (int, error)
}

// Query narrows and orders a FindAll result.
type Query[T any] struct {
	// Match keeps an entity in the result when it returns true.
	// A nil Match keeps everything.
	Match func(T) bool

	// Less orders the result when non-nil (stable sort).
	Less func(a, b T) bool

	// Key names this filter for result caching. Results are cached only
	// when Key is non-empty and the result holds at most
	// MaxCachedResults entries.
	Key string

	// Offset and Limit page the ordered result. A zero Limit means no
	// limit.
	Offset int
	Limit  int
}

// page applies offset and limit to an already filtered, sorted slice.
func (q Query[T]) page(items []T) []T {
	if q.Offset > 0 {
		if q.Offset >= len(items) {
			return nil
		}
		items = items[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}
	return items
}
