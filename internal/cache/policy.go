package cache

import "time"

//go:generate moq -out policy_mock.go . EvictionPolicy

// EvictionPolicy picks the entry to evict when the cache is full.
// Policies are pure over the entries they are given, so they can be
// tested in isolation from cache timing.
type EvictionPolicy interface {
	// Victim returns the key of the entry to evict. The entries slice
	// is never empty.
	Victim(now time.Time, entries []*Entry) string
}

// ScorePolicy evicts the entry with the highest score
// timeSinceLastAccess / (accessCount + 1): an approximate LRU with a
// frequency bias, not strict LRU. Rarely-read old entries go first;
// frequently-read entries survive longer even when not touched recently.
type ScorePolicy struct{}

// Victim implements EvictionPolicy.
func (ScorePolicy) Victim(now time.Time, entries []*Entry) string {
	victim := entries[0]
	best := score(now, victim)

	for _, e := range entries[1:] {
		if s := score(now, e); s > best {
			best = s
			victim = e
		}
	}

	return victim.Key
}

func score(now time.Time, e *Entry) float64 {
	idle := now.Sub(e.LastAccessed)
	if idle < 0 {
		idle = 0
	}
	return float64(idle) / float64(e.AccessCount+1)
}
