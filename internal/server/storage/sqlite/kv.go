package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/timevault/timevault/internal/server/storage"
)

var _ storage.KVStore = (*Storage)(nil)

// Get returns the value stored under (owner, key).
func (s *Storage) Get(ctx context.Context, owner, key string) ([]byte, error) {
	query := `SELECT value FROM kv WHERE owner = ? AND key = ?`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, owner, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	return value, nil
}

// Set upserts the value under (owner, key).
func (s *Storage) Set(ctx context.Context, owner, key string, value []byte) error {
	query := `
		INSERT INTO kv (owner, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, owner, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// Delete removes (owner, key). Absent keys are ignored.
func (s *Storage) Delete(ctx context.Context, owner, key string) error {
	query := `DELETE FROM kv WHERE owner = ? AND key = ?`

	if _, err := s.db.ExecContext(ctx, query, owner, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Exists reports whether (owner, key) is present.
func (s *Storage) Exists(ctx context.Context, owner, key string) (bool, error) {
	query := `SELECT 1 FROM kv WHERE owner = ? AND key = ?`

	var one int
	err := s.db.QueryRowContext(ctx, query, owner, key).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check key: %w", err)
	}
	return true, nil
}

// Keys returns the owner's keys matching the glob pattern. SQLite's
// GLOB operator implements the same `*`/`?` wildcards the client uses.
func (s *Storage) Keys(ctx context.Context, owner, pattern string) ([]string, error) {
	query := `SELECT key FROM kv WHERE owner = ? ORDER BY key`
	args := []any{owner}

	if pattern != "" {
		query = `SELECT key FROM kv WHERE owner = ? AND key GLOB ? ORDER BY key`
		args = append(args, pattern)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}

	return keys, nil
}

// Clear removes every key belonging to owner.
func (s *Storage) Clear(ctx context.Context, owner string) error {
	query := `DELETE FROM kv WHERE owner = ?`

	if _, err := s.db.ExecContext(ctx, query, owner); err != nil {
		return fmt.Errorf("failed to clear keys: %w", err)
	}
	return nil
}
