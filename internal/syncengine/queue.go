package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/storage"
)

// QueueKey is the well-known local storage key holding the persisted
// operation queue.
const QueueKey = "sync_operations"

// queue persists the pending operations in the local adapter so the
// queue survives process restart.
type queue struct {
	local storage.Adapter
}

// load reads the persisted queue. Operations found IN_PROGRESS were
// interrupted mid-sync, not failed; they are reset to PENDING.
func (q *queue) load(ctx context.Context) ([]*models.SyncOperation, error) {
	data, err := q.local.Get(ctx, QueueKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load sync queue: %w", err)
	}

	var ops []*models.SyncOperation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("failed to decode sync queue: %w", err)
	}

	for _, op := range ops {
		if op.Status == models.StatusInProgress {
			op.Status = models.StatusPending
		}
	}

	return ops, nil
}

// save writes the full queue after a state transition so a restart
// mid-sync resumes correctly.
func (q *queue) save(ctx context.Context, ops []*models.SyncOperation) error {
	if ops == nil {
		ops = []*models.SyncOperation{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("failed to encode sync queue: %w", err)
	}
	if err := q.local.Set(ctx, QueueKey, data); err != nil {
		return fmt.Errorf("failed to persist sync queue: %w", err)
	}
	return nil
}
