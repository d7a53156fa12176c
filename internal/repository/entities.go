package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/timevault/timevault/internal/cache"
	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/storage"
)

// MaxCachedResults bounds FindAll result caching: larger result sets
// bypass the cache to avoid unbounded memory growth.
const MaxCachedResults = 100

// DefaultEntityTTL is the cache TTL for entities populated from storage.
const DefaultEntityTTL = 5 * time.Minute

// Options configures an entity repository beyond its required
// collaborators.
type Options[T models.Entity] struct {
	// IsNewer decides merge ties between tiers in FindAll: when set,
	// the remote value replaces the local one if IsNewer(remote, local).
	// When nil the local value always wins.
	IsNewer func(a, b T) bool

	// EntityTTL overrides DefaultEntityTTL when positive.
	EntityTTL time.Duration
}

// Entities is the storage-backed Repository implementation, generic
// over the entity type.
type Entities[T models.Entity] struct {
	kind      string
	local     storage.Adapter
	remote    storage.Adapter
	cache     *cache.Manager
	queue     Enqueuer
	newEntity func() T
	isNewer   func(a, b T) bool
	entityTTL time.Duration
	logger    *slog.Logger
}

var _ Repository[*models.Activity] = (*Entities[*models.Activity])(nil)

// New creates a repository for one entity kind. newEntity must return a
// fresh zero entity for decoding.
func New[T models.Entity](
	kind string,
	local, remote storage.Adapter,
	cacheManager *cache.Manager,
	queue Enqueuer,
	newEntity func() T,
	logger *slog.Logger,
	opts Options[T],
) *Entities[T] {
	ttl := opts.EntityTTL
	if ttl <= 0 {
		ttl = DefaultEntityTTL
	}
	return &Entities[T]{
		kind:      kind,
		local:     local,
		remote:    remote,
		cache:     cacheManager,
		queue:     queue,
		newEntity: newEntity,
		isNewer:   opts.IsNewer,
		entityTTL: ttl,
		logger:    logger,
	}
}

// Kind returns the entity kind the repository manages.
func (r *Entities[T]) Kind() string {
	return r.kind
}

// FindByID resolves an entity through cache -> local -> remote.
func (r *Entities[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	key := storage.EntityKey(r.kind, id)

	if raw, err := r.cache.Get(key); err == nil {
		entity, err := r.decode(raw.([]byte))
		if err == nil {
			return entity, nil
		}
		// A corrupt cache entry heals itself: drop it and fall through
		// to storage.
		r.cache.Delete(key)
	}

	if data, err := r.local.Get(ctx, key); err == nil {
		entity, err := r.decode(data)
		if err != nil {
			return zero, err
		}
		r.cache.Set(key, data, r.entityTTL)
		return entity, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return zero, fmt.Errorf("local read %s: %w", key, err)
	}

	data, err := r.remote.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, storage.ErrNotFound
		}
		// Remote unreachable: an offline read degrades to not-found
		// rather than failing the caller.
		r.logger.Warn("remote read failed", "key", key, "error", err)
		return zero, storage.ErrNotFound
	}

	entity, err := r.decode(data)
	if err != nil {
		return zero, err
	}

	// Populate the local tier so the next read stays offline.
	if err := r.local.Set(ctx, key, data); err != nil {
		r.logger.Warn("failed to populate local tier", "key", key, "error", err)
	}
	r.cache.Set(key, data, r.entityTTL)

	return entity, nil
}

// FindAll reads both tiers, merges by identifier, filters, sorts, and
// pages the result.
func (r *Entities[T]) FindAll(ctx context.Context, q Query[T]) ([]T, error) {
	if cached, ok := r.cachedResult(q); ok {
		return cached, nil
	}

	merged, err := r.mergedEntities(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]T, 0, len(merged))
	for _, entity := range merged {
		if q.Match == nil || q.Match(entity) {
			results = append(results, entity)
		}
	}

	if q.Less != nil {
		sort.SliceStable(results, func(i, j int) bool {
			return q.Less(results[i], results[j])
		})
	}

	results = q.page(results)

	r.cacheResult(q, results)
	return results, nil
}

// Create persists a new entity locally and enqueues remote propagation.
func (r *Entities[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T

	if entity.EntityID() == "" {
		entity.SetEntityID(uuid.New().String())
	}
	entity.Touch(time.Now())

	data, err := json.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("%w: marshal %s: %w", ErrRepository, r.kind, err)
	}

	key := storage.EntityKey(r.kind, entity.EntityID())
	if err := r.local.Set(ctx, key, data); err != nil {
		return zero, fmt.Errorf("local write %s: %w", key, err)
	}

	r.cache.Set(key, data, r.entityTTL)
	r.invalidateLists()

	if err := r.queue.Enqueue(ctx, models.OpCreate, r.kind, entity.EntityID(), data); err != nil {
		return zero, fmt.Errorf("enqueue create %s: %w", key, err)
	}

	return entity, nil
}

// Update applies mutate to the stored entity and persists the full
// merged entity.
func (r *Entities[T]) Update(ctx context.Context, id string, mutate func(T) error) (T, error) {
	var zero T

	entity, err := r.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}

	if err := mutate(entity); err != nil {
		return zero, err
	}
	entity.SetEntityID(id)
	entity.Touch(time.Now())

	data, err := json.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("%w: marshal %s: %w", ErrRepository, r.kind, err)
	}

	key := storage.EntityKey(r.kind, id)
	if err := r.local.Set(ctx, key, data); err != nil {
		return zero, fmt.Errorf("local write %s: %w", key, err)
	}

	r.cache.Set(key, data, r.entityTTL)
	r.invalidateLists()

	if err := r.queue.Enqueue(ctx, models.OpUpdate, r.kind, id, data); err != nil {
		return zero, fmt.Errorf("enqueue update %s: %w", key, err)
	}

	return entity, nil
}

// Delete removes the local copy and enqueues the remote delete.
func (r *Entities[T]) Delete(ctx context.Context, id string) error {
	key := storage.EntityKey(r.kind, id)

	if err := r.local.Delete(ctx, key); err != nil {
		return fmt.Errorf("local delete %s: %w", key, err)
	}

	r.cache.Delete(key)
	r.invalidateLists()

	if err := r.queue.Enqueue(ctx, models.OpDelete, r.kind, id, nil); err != nil {
		return fmt.Errorf("enqueue delete %s: %w", key, err)
	}

	return nil
}

// Exists reports whether any tier holds the entity.
func (r *Entities[T]) Exists(ctx context.Context, id string) (bool, error) {
	key := storage.EntityKey(r.kind, id)

	if _, err := r.cache.Get(key); err == nil {
		return true, nil
	}

	found, err := r.local.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("local exists %s: %w", key, err)
	}
	if found {
		return true, nil
	}

	found, err = r.remote.Exists(ctx, key)
	if err != nil {
		r.logger.Warn("remote exists failed", "key", key, "error", err)
		return false, nil
	}
	return found, nil
}

// Count returns the number of entities matching the query's filter.
func (r *Entities[T]) Count(ctx context.Context, q Query[T]) (int, error) {
	q.Offset = 0
	q.Limit = 0
	results, err := r.FindAll(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// mergedEntities loads both tiers and merges by identifier. Local wins
// unless the IsNewer comparator says the remote value is newer. A remote
// failure degrades to local-only with a warning.
func (r *Entities[T]) mergedEntities(ctx context.Context) (map[string]T, error) {
	merged := make(map[string]T)

	localKeys, err := r.local.Keys(ctx, storage.KindPattern(r.kind))
	if err != nil {
		return nil, fmt.Errorf("local keys: %w", err)
	}
	for _, key := range localKeys {
		data, err := r.local.Get(ctx, key)
		if err != nil {
			continue
		}
		entity, err := r.decode(data)
		if err != nil {
			r.logger.Warn("skipping undecodable local record", "key", key, "error", err)
			continue
		}
		merged[entity.EntityID()] = entity
	}

	remoteKeys, err := r.remote.Keys(ctx, storage.KindPattern(r.kind))
	if err != nil {
		r.logger.Warn("remote list failed, serving local tier only", "kind", r.kind, "error", err)
		return merged, nil
	}
	for _, key := range remoteKeys {
		data, err := r.remote.Get(ctx, key)
		if err != nil {
			continue
		}
		entity, err := r.decode(data)
		if err != nil {
			r.logger.Warn("skipping undecodable remote record", "key", key, "error", err)
			continue
		}
		id := entity.EntityID()
		local, ok := merged[id]
		if !ok {
			merged[id] = entity
			continue
		}
		if r.isNewer != nil && r.isNewer(entity, local) {
			merged[id] = entity
		}
	}

	return merged, nil
}

func (r *Entities[T]) decode(data []byte) (T, error) {
	entity := r.newEntity()
	if err := json.Unmarshal(data, entity); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: decode %s: %w", ErrRepository, r.kind, err)
	}
	return entity, nil
}

// listCacheKey builds the cache key for one serialized filter.
func (r *Entities[T]) listCacheKey(q Query[T]) string {
	return fmt.Sprintf("findall:%s:%s:%d:%d", r.kind, q.Key, q.Offset, q.Limit)
}

// invalidateLists drops every cached FindAll result for this kind.
func (r *Entities[T]) invalidateLists() {
	r.cache.Invalidate("findall:" + r.kind + ":*")
}

func (r *Entities[T]) cachedResult(q Query[T]) ([]T, bool) {
	if q.Key == "" {
		return nil, false
	}
	raw, err := r.cache.Get(r.listCacheKey(q))
	if err != nil {
		return nil, false
	}
	data, ok := raw.([]byte)
	if !ok {
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false
	}

	// Rehydrate each entity from its own cache entry; any miss
	// invalidates the cached list.
	results := make([]T, 0, len(ids))
	for _, id := range ids {
		raw, err := r.cache.Get(storage.EntityKey(r.kind, id))
		if err != nil {
			return nil, false
		}
		entity, err := r.decode(raw.([]byte))
		if err != nil {
			return nil, false
		}
		results = append(results, entity)
	}
	return results, true
}

func (r *Entities[T]) cacheResult(q Query[T], results []T) {
	if q.Key == "" || len(results) > MaxCachedResults {
		return
	}

	ids := make([]string, 0, len(results))
	for _, entity := range results {
		data, err := json.Marshal(entity)
		if err != nil {
			return
		}
		ids = append(ids, entity.EntityID())
		r.cache.Set(storage.EntityKey(r.kind, entity.EntityID()), data, r.entityTTL)
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return
	}
	r.cache.Set(r.listCacheKey(q), data, r.entityTTL)
}
