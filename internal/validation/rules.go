// Package validation implements the per-entity-kind rule sets that gate
// repository writes and filter repository reads.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Severity of a rule failure. Errors block writes; warnings pass through
// with logging.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Rule pairs a predicate with the message reported when it fails.
// Rules run in the order they were registered.
type Rule[T any] struct {
	Check    func(T) bool
	Message  string
	Severity Severity
}

// Outcome is the result of validating one entity.
type Outcome struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no error-severity rule failed. Warnings do not
// make an outcome invalid.
func (o Outcome) Valid() bool {
	return len(o.Errors) == 0
}

// Error is returned when validation blocks a write. It carries the full
// outcome so callers can surface every failed rule at once.
type Error struct {
	Kind    string
	Outcome Outcome
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s",
		e.Kind, strings.Join(e.Outcome.Errors, "; "))
}

// Is makes errors.Is(err, ErrValidation) work for *Error values.
func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// ErrValidation is the sentinel matched by every validation failure.
var ErrValidation = errors.New("validation failed")

// RuleSet is an ordered list of rules for one entity kind.
type RuleSet[T any] struct {
	kind  string
	rules []Rule[T]
}

// NewRuleSet creates an empty rule set for the named entity kind.
func NewRuleSet[T any](kind string) *RuleSet[T] {
	return &RuleSet[T]{kind: kind}
}

// Kind returns the entity kind the set validates.
func (rs *RuleSet[T]) Kind() string {
	return rs.kind
}

// Add appends a rule and returns the set for chaining.
func (rs *RuleSet[T]) Add(severity Severity, message string, check func(T) bool) *RuleSet[T] {
	rs.rules = append(rs.rules, Rule[T]{Check: check, Message: message, Severity: severity})
	return rs
}

// Validate runs every rule against the entity.
func (rs *RuleSet[T]) Validate(entity T) Outcome {
	var out Outcome
	for _, rule := range rs.rules {
		if rule.Check(entity) {
			continue
		}
		if rule.Severity == SeverityError {
			out.Errors = append(out.Errors, rule.Message)
		} else {
			out.Warnings = append(out.Warnings, rule.Message)
		}
	}
	return out
}

// ValidateBatch validates all entities atomically: it reports a
// per-entity outcome for each input and an overall error if any entity
// failed, without the caller having performed any writes.
func (rs *RuleSet[T]) ValidateBatch(entities []T) ([]Outcome, error) {
	outcomes := make([]Outcome, len(entities))
	failed := false
	for i, entity := range entities {
		outcomes[i] = rs.Validate(entity)
		if !outcomes[i].Valid() {
			failed = true
		}
	}
	if failed {
		return outcomes, fmt.Errorf("%w: batch of %d %s entities contains invalid records",
			ErrValidation, len(entities), rs.kind)
	}
	return outcomes, nil
}
