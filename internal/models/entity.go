package models

import "time"

// Entity is implemented by every domain record managed by a repository.
// Identifiers are opaque strings (UUIDs in practice); mutable fields are
// replaced wholesale on update, never mutated in place outside the
// repository.
type Entity interface {
	// EntityID returns the unique identifier of the record.
	EntityID() string

	// SetEntityID assigns the identifier. Called once by the repository
	// on create when the caller left the ID empty.
	SetEntityID(id string)

	// Touch updates the modification timestamp (and the creation
	// timestamp if it is still zero).
	Touch(now time.Time)

	// ModifiedAt returns the last modification time. Used for
	// last-write-wins comparisons between storage tiers.
	ModifiedAt() time.Time
}

// Kind names for the entity namespaces used in storage keys and sync
// operations.
const (
	KindActivity = "activity"
	KindTimeSlot = "timeslot"
	KindSettings = "settings"
)

// Timestamps is embedded by all entities.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch implements the Entity timestamp part.
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// ModifiedAt returns the last update time.
func (t *Timestamps) ModifiedAt() time.Time {
	return t.UpdatedAt
}
