package cache

import "time"

// Entry wraps a cached value with its bookkeeping. An entry is logically
// absent once now - Timestamp > TTL; expired entries are never returned
// and are evicted lazily or by the background sweep.
type Entry struct {
	Timestamp    time.Time     // write time
	LastAccessed time.Time
	Value        any
	Key          string
	TTL          time.Duration
	AccessCount  int64
}

// Expired reports whether the entry's TTL has elapsed.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.Timestamp) > e.TTL
}
