package cache

import "errors"

var (
	// ErrMiss indicates the key is not cached.
	ErrMiss = errors.New("cache miss")

	// ErrExpired indicates the key was cached but its TTL has elapsed.
	// Callers treat this the same as a miss; the distinction only feeds
	// logging and tests.
	ErrExpired = errors.New("cache entry expired")
)
