package validation

import (
	"context"
	"log/slog"

	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/repository"
)

// Middleware wraps a repository with schema-rule checks: writes fail
// closed on error-severity failures, reads fail open: an invalid stored
// record is logged and excluded from FindAll results but a direct
// FindByID still returns it.
type Middleware[T models.Entity] struct {
	next   repository.Repository[T]
	rules  *RuleSet[T]
	logger *slog.Logger
}

var _ repository.Repository[*models.Activity] = (*Middleware[*models.Activity])(nil)

// Wrap decorates next with the rule set.
func Wrap[T models.Entity](next repository.Repository[T], rules *RuleSet[T], logger *slog.Logger) *Middleware[T] {
	return &Middleware[T]{next: next, rules: rules, logger: logger}
}

// FindByID returns the entity even when it fails validation; the
// failure is only logged.
func (m *Middleware[T]) FindByID(ctx context.Context, id string) (T, error) {
	entity, err := m.next.FindByID(ctx, id)
	if err != nil {
		return entity, err
	}
	if out := m.rules.Validate(entity); !out.Valid() {
		m.logger.Warn("stored entity fails validation",
			"kind", m.rules.Kind(), "id", id, "errors", out.Errors)
	}
	return entity, nil
}

// FindAll excludes invalid records from the result.
func (m *Middleware[T]) FindAll(ctx context.Context, q Query[T]) ([]T, error) {
	inner := q
	userMatch := q.Match
	inner.Match = func(entity T) bool {
		if out := m.rules.Validate(entity); !out.Valid() {
			m.logger.Warn("excluding invalid entity from results",
				"kind", m.rules.Kind(), "id", entity.EntityID(), "errors", out.Errors)
			return false
		}
		return userMatch == nil || userMatch(entity)
	}
	return m.next.FindAll(ctx, inner)
}

// Create validates before persistence; a failed rule blocks the write
// and no partial state is left behind.
func (m *Middleware[T]) Create(ctx context.Context, entity T) (T, error) {
	if err := m.check(entity); err != nil {
		var zero T
		return zero, err
	}
	return m.next.Create(ctx, entity)
}

// Update re-validates the full merged entity before persistence.
func (m *Middleware[T]) Update(ctx context.Context, id string, mutate func(T) error) (T, error) {
	return m.next.Update(ctx, id, func(entity T) error {
		if err := mutate(entity); err != nil {
			return err
		}
		return m.check(entity)
	})
}

// Delete passes through; there is nothing to validate.
func (m *Middleware[T]) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

// Exists passes through.
func (m *Middleware[T]) Exists(ctx context.Context, id string) (bool, error) {
	return m.next.Exists(ctx, id)
}

// Count counts only valid records, matching FindAll semantics.
func (m *Middleware[T]) Count(ctx context.Context, q Query[T]) (int, error) {
	results, err := m.FindAll(ctx, Query[T]{Match: q.Match, Key: q.Key})
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// ValidateBatch validates entities atomically without writing anything.
func (m *Middleware[T]) ValidateBatch(entities []T) ([]Outcome, error) {
	return m.rules.ValidateBatch(entities)
}

func (m *Middleware[T]) check(entity T) error {
	out := m.rules.Validate(entity)
	for _, w := range out.Warnings {
		m.logger.Warn("validation warning",
			"kind", m.rules.Kind(), "id", entity.EntityID(), "warning", w)
	}
	if !out.Valid() {
		return &Error{Kind: m.rules.Kind(), Outcome: out}
	}
	return nil
}

// Query re-exports the repository query type so callers of a wrapped
// repository do not need two imports.
type Query[T any] = repository.Query[T]
