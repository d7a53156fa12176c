package models

import (
	"encoding/json"
	"time"
)

// OperationType classifies the mutation a SyncOperation carries.
type OperationType string

const (
	OpCreate OperationType = "CREATE"
	OpUpdate OperationType = "UPDATE"
	OpDelete OperationType = "DELETE"
)

// OperationStatus is the sync state machine position of an operation.
type OperationStatus string

const (
	StatusPending    OperationStatus = "PENDING"
	StatusInProgress OperationStatus = "IN_PROGRESS"
	StatusCompleted  OperationStatus = "COMPLETED"
	StatusFailed     OperationStatus = "FAILED"
	StatusRetrying   OperationStatus = "RETRYING"
)

// SyncOperation is a durable intent to apply a local mutation to the
// remote tier. Owned exclusively by the sync engine and persisted as JSON
// so the queue survives process restart; timestamps serialize as RFC3339.
type SyncOperation struct {
	CreatedAt  time.Time       `json:"created_at"`
	ID         string          `json:"id"`
	Type       OperationType   `json:"type"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id"`
	Status     OperationStatus `json:"status"`
	Payload    []byte          `json:"payload,omitempty"`
	Retries    int             `json:"retries"`
	MaxRetries int             `json:"max_retries"`
	Priority   int             `json:"priority"`
}

// EffectivePriority lowers the base priority by one per hour of age.
// Newer and explicitly prioritized operations drain first, but old
// operations are never dropped on priority grounds.
func (op *SyncOperation) EffectivePriority(now time.Time) int {
	age := now.Sub(op.CreatedAt)
	if age < 0 {
		age = 0
	}
	return op.Priority - int(age.Hours())
}

// payloadEnvelope extracts the fields shared by every entity payload.
type payloadEnvelope struct {
	UpdatedAt time.Time `json:"updated_at"`
}

// PayloadModifiedAt parses the modification time out of a serialized
// entity payload. Returns the zero time if the payload has none.
func PayloadModifiedAt(payload []byte) time.Time {
	var env payloadEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return time.Time{}
	}
	return env.UpdatedAt
}
