// Package syncengine owns the durable queue of pending mutations and
// drains it against the remote tier with pluggable conflict resolution,
// retry with backoff, and priority ordering.
package syncengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/storage"
)

// Engine defaults.
const (
	DefaultMaxRetries = 5
	DefaultInterval   = 30 * time.Second

	// ForcePriority marks operations enqueued by ForceSyncAllData.
	ForcePriority = 10
)

// Config tunes an Engine.
type Config struct {
	// MaxRetries bounds attempts per operation before it is dropped as
	// permanently failed.
	MaxRetries int

	// Interval spaces periodic drain runs started by Start.
	Interval time.Duration
}

// Status is the caller-visible sync summary, the sole user-facing
// failure signal for background sync.
type Status struct {
	LastSyncAt time.Time `json:"last_sync_at,omitzero"`
	LastError  string    `json:"last_error,omitempty"`
	Pending    int       `json:"pending"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
}

// Engine reconciles queued local mutations with the remote tier. The
// queue is owned exclusively by the engine; repositories hand mutations
// over through Enqueue and never see operations again.
type Engine struct {
	local    storage.Adapter
	remote   storage.Adapter
	strategy Strategy
	logger   *slog.Logger
	queue    queue

	maxRetries int
	interval   time.Duration

	// running enforces one concurrent drain at a time. It is a guard,
	// not a lock: a second drain is skipped, never queued.
	running atomic.Bool

	mu        sync.Mutex
	ops       []*models.SyncOperation
	notBefore map[string]time.Time // opID -> earliest next attempt, not persisted
	lastError string
	lastSync  time.Time
	completed int
	failed    int

	stop chan struct{}
	done chan struct{}
	kick chan struct{}
}

// New creates an engine and restores the persisted queue from the local
// adapter.
func New(ctx context.Context, local, remote storage.Adapter, strategy Strategy, logger *slog.Logger, cfg Config) (*Engine, error) {
	if strategy == nil {
		strategy = &LastWriteWins{}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	e := &Engine{
		local:      local,
		remote:     remote,
		strategy:   strategy,
		logger:     logger,
		queue:      queue{local: local},
		maxRetries: cfg.MaxRetries,
		interval:   cfg.Interval,
		notBefore:  make(map[string]time.Time),
		kick:       make(chan struct{}, 1),
	}

	ops, err := e.queue.load(ctx)
	if err != nil {
		return nil, err
	}
	e.ops = ops

	return e, nil
}

// Enqueue records a durable sync intent for one entity mutation. A
// later operation on the same (kind, id) supersedes a pending earlier
// one: replaying intermediate states would only waste network calls.
func (e *Engine) Enqueue(ctx context.Context, opType models.OperationType, kind, id string, payload []byte) error {
	return e.enqueue(ctx, opType, kind, id, payload, 0)
}

func (e *Engine) enqueue(ctx context.Context, opType models.OperationType, kind, id string, payload []byte, priority int) error {
	op := &models.SyncOperation{
		ID:         uuid.New().String(),
		Type:       opType,
		EntityKind: kind,
		EntityID:   id,
		Payload:    payload,
		CreatedAt:  time.Now(),
		Status:     models.StatusPending,
		MaxRetries: e.maxRetries,
		Priority:   priority,
	}

	e.mu.Lock()
	kept := e.ops[:0]
	for _, existing := range e.ops {
		if existing.EntityKind == kind && existing.EntityID == id &&
			existing.Status != models.StatusInProgress {
			// A CREATE that never reached the remote stays a CREATE
			// even when superseded by an update.
			if existing.Type == models.OpCreate && opType == models.OpUpdate {
				op.Type = models.OpCreate
			}
			delete(e.notBefore, existing.ID)
			continue
		}
		kept = append(kept, existing)
	}
	e.ops = append(kept, op)
	err := e.queue.save(ctx, e.ops)
	e.mu.Unlock()

	if err != nil {
		return err
	}

	// Eager drain; failures there surface through Status, not here.
	e.Kick()
	return nil
}

// Kick requests an eager drain if the engine loop is running.
func (e *Engine) Kick() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Start launches the periodic drain loop. Stop prevents new cycles but
// does not abort one already in flight.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stop != nil {
		return
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.loop(e.stop, e.done)
}

// Stop halts the loop and waits for an in-flight run to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	stop, done := e.stop, e.done
	e.stop, e.done = nil, nil
	e.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (e *Engine) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-e.kick:
		case <-stop:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), e.interval)
		if err := e.RunOnce(ctx); err != nil {
			// Background sync failures never propagate; they are
			// recorded on the status summary and logged here.
			e.logger.Warn("sync run failed", "error", err)
		}
		cancel()
	}
}

// RunOnce performs a single drain. It returns immediately when a drain
// is already in progress or the strategy reports the engine should not
// sync (offline).
func (e *Engine) RunOnce(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}
	defer e.running.Store(false)

	if !e.strategy.ShouldSync(ctx) {
		e.logger.Debug("sync skipped by strategy")
		return nil
	}

	batch := e.selectBatch(time.Now())
	if len(batch) == 0 {
		return nil
	}

	e.logger.Info("sync run starting", "operations", len(batch))

	var firstErr error
	for _, op := range batch {
		if ctx.Err() != nil {
			break
		}
		if err := e.apply(ctx, op); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	e.mu.Lock()
	e.lastSync = time.Now()
	e.mu.Unlock()

	return firstErr
}

// selectBatch snapshots the runnable operations sorted by descending
// effective priority.
func (e *Engine) selectBatch(now time.Time) []*models.SyncOperation {
	e.mu.Lock()
	defer e.mu.Unlock()

	var batch []*models.SyncOperation
	for _, op := range e.ops {
		switch op.Status {
		case models.StatusPending, models.StatusFailed, models.StatusRetrying:
		default:
			continue
		}
		if nb, ok := e.notBefore[op.ID]; ok && now.Before(nb) {
			continue
		}
		batch = append(batch, op)
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return e.strategy.Priority(batch[i]) > e.strategy.Priority(batch[j])
	})

	return batch
}

// apply pushes one operation to the remote tier and advances its state
// machine, persisting the queue after every transition.
func (e *Engine) apply(ctx context.Context, op *models.SyncOperation) error {
	e.transition(ctx, op, models.StatusInProgress)

	err := e.push(ctx, op)
	if err == nil {
		e.complete(ctx, op)
		return nil
	}

	return e.fail(ctx, op, err)
}

func (e *Engine) push(ctx context.Context, op *models.SyncOperation) error {
	key := storage.EntityKey(op.EntityKind, op.EntityID)

	switch op.Type {
	case models.OpCreate, models.OpUpdate:
		remote, err := e.remote.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return e.remote.Set(ctx, key, op.Payload)
		}
		if err != nil {
			return err
		}

		// The remote already holds a value for this key: a conflict.
		resolved, err := e.strategy.HandleConflict(op, op.Payload, remote)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConflict, key, err)
		}

		if err := e.remote.Set(ctx, key, resolved); err != nil {
			return err
		}

		// Converge the local tier when the remote side won.
		if !bytes.Equal(resolved, op.Payload) {
			if err := e.local.Set(ctx, key, resolved); err != nil {
				e.logger.Warn("failed to write resolved value locally", "key", key, "error", err)
			}
		}
		return nil

	case models.OpDelete:
		return e.remote.Delete(ctx, key)

	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

func (e *Engine) complete(ctx context.Context, op *models.SyncOperation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	op.Status = models.StatusCompleted
	e.removeLocked(op.ID)
	e.completed++
	e.lastError = ""
	e.persistLocked(ctx)

	e.logger.Debug("sync operation completed",
		"op", op.ID, "type", op.Type, "entity", op.EntityKind+":"+op.EntityID)
}

// fail advances a failed operation: requeue with backoff while retries
// remain, otherwise drop it as permanently failed. A declined conflict
// is terminal immediately; retrying cannot change the outcome.
func (e *Engine) fail(ctx context.Context, op *models.SyncOperation, cause error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	op.Retries++
	terminal := errors.Is(cause, ErrConflict) || op.Retries >= op.MaxRetries

	if terminal {
		op.Status = models.StatusFailed
		e.removeLocked(op.ID)
		e.failed++
		e.lastError = cause.Error()
		e.persistLocked(ctx)
		e.logger.Error("sync operation permanently failed",
			"op", op.ID, "type", op.Type,
			"entity", op.EntityKind+":"+op.EntityID,
			"retries", op.Retries, "error", cause)
		return cause
	}

	op.Status = models.StatusRetrying
	e.notBefore[op.ID] = time.Now().Add(e.strategy.RetryDelay(op.Retries))
	e.lastError = cause.Error()
	e.persistLocked(ctx)
	e.logger.Warn("sync operation failed, will retry",
		"op", op.ID, "retries", op.Retries, "max_retries", op.MaxRetries, "error", cause)
	return cause
}

func (e *Engine) transition(ctx context.Context, op *models.SyncOperation, status models.OperationStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	op.Status = status
	e.persistLocked(ctx)
}

func (e *Engine) removeLocked(opID string) {
	delete(e.notBefore, opID)
	for i, op := range e.ops {
		if op.ID == opID {
			e.ops = append(e.ops[:i], e.ops[i+1:]...)
			return
		}
	}
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.queue.save(ctx, e.ops); err != nil {
		e.logger.Error("failed to persist sync queue", "error", err)
	}
}

// Status returns a snapshot of the sync state for the surrounding UI.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		Pending:    len(e.ops),
		LastError:  e.lastError,
		LastSyncAt: e.lastSync,
		Completed:  e.completed,
		Failed:     e.failed,
	}
}

// PendingCount returns the number of queued operations.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ops)
}

// ForceSyncAllData enumerates every entity key in the local tier and
// enqueues a high-priority UPDATE for each, the full-resync recovery
// path.
func (e *Engine) ForceSyncAllData(ctx context.Context) (int, error) {
	keys, err := e.local.Keys(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate local keys: %w", err)
	}

	enqueued := 0
	for _, key := range keys {
		kind, id, ok := strings.Cut(key, ":")
		if !ok || key == QueueKey {
			continue
		}

		payload, err := e.local.Get(ctx, key)
		if err != nil {
			e.logger.Warn("skipping unreadable key during force sync", "key", key, "error", err)
			continue
		}

		if err := e.enqueue(ctx, models.OpUpdate, kind, id, payload, ForcePriority); err != nil {
			return enqueued, err
		}
		enqueued++
	}

	e.logger.Info("force sync enqueued", "operations", enqueued)
	return enqueued, nil
}
