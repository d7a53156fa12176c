package syncengine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/timevault/timevault/internal/models"
)

// ErrConflict is surfaced when the configured strategy declines to
// auto-resolve a local/remote divergence.
var ErrConflict = errors.New("sync conflict")

//go:generate moq -out strategy_mock.go . Strategy

// Strategy is the pluggable policy the engine consults while draining
// the queue.
type Strategy interface {
	// ShouldSync gates a whole drain run, e.g. on connectivity.
	ShouldSync(ctx context.Context) bool

	// HandleConflict resolves a divergence between the local payload
	// being pushed and the value already present remotely. It returns
	// the payload to keep, or ErrConflict to decline resolution.
	HandleConflict(op *models.SyncOperation, local, remote []byte) ([]byte, error)

	// Priority returns the drain priority of an operation; higher
	// drains first.
	Priority(op *models.SyncOperation) int

	// RetryDelay returns how long to wait before attempt (1-based).
	RetryDelay(attempt int) time.Duration
}

// Backoff defaults for LastWriteWins.
const (
	DefaultRetryBase = 2 * time.Second
	DefaultRetryMax  = 5 * time.Minute
)

// LastWriteWins resolves conflicts by modification timestamp extracted
// from the payloads, preferring local on tie unless configured
// otherwise. The zero value is a usable default.
type LastWriteWins struct {
	// PreferRemoteOnTie flips the tie default. Tie preference is a
	// policy choice, not a correctness requirement.
	PreferRemoteOnTie bool

	// RetryBase and RetryMax bound the exponential backoff.
	RetryBase time.Duration
	RetryMax  time.Duration

	// Online gates ShouldSync when set; nil means always online.
	Online func(ctx context.Context) bool
}

var _ Strategy = (*LastWriteWins)(nil)

// ShouldSync consults the connectivity hook.
func (s *LastWriteWins) ShouldSync(ctx context.Context) bool {
	if s.Online == nil {
		return true
	}
	return s.Online(ctx)
}

// HandleConflict keeps whichever payload was modified last.
// Determinism: identical snapshots and timestamps always resolve the
// same way.
func (s *LastWriteWins) HandleConflict(op *models.SyncOperation, local, remote []byte) ([]byte, error) {
	localAt := models.PayloadModifiedAt(local)
	remoteAt := models.PayloadModifiedAt(remote)

	switch {
	case localAt.After(remoteAt):
		return local, nil
	case remoteAt.After(localAt):
		return remote, nil
	case s.PreferRemoteOnTie:
		return remote, nil
	default:
		return local, nil
	}
}

// Priority is the base priority lowered by one per hour of queue age,
// so explicitly prioritized and fresh operations drain first without
// starving old ones.
func (s *LastWriteWins) Priority(op *models.SyncOperation) int {
	return op.EffectivePriority(time.Now())
}

// RetryDelay is min(base * 2^(attempt-1) + jitter, max). Jitter is up
// to 20% of the computed delay.
func (s *LastWriteWins) RetryDelay(attempt int) time.Duration {
	base := s.RetryBase
	if base <= 0 {
		base = DefaultRetryBase
	}
	max := s.RetryMax
	if max <= 0 {
		max = DefaultRetryMax
	}

	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/5 + 1))
	if delay+jitter > max {
		return max
	}
	return delay + jitter
}
