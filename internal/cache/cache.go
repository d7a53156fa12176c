// Package cache provides the bounded in-memory layer in front of
// storage reads: a fixed-capacity slot arena with an index map from key
// to slot, TTL expiry, and a pluggable eviction policy.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/timevault/timevault/internal/storage"
)

// Defaults used when the caller passes zero values.
const (
	DefaultMaxSize       = 256
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 30 * time.Second
)

// Manager is the bounded cache. The arena (slots plus free list) and the
// key index are owned exclusively by the manager; other components reach
// the cache only through its methods.
type Manager struct {
	logger *slog.Logger
	policy EvictionPolicy
	now    func() time.Time

	mu    sync.Mutex
	slots []*Entry       // fixed-size arena; nil = free slot
	index map[string]int // key -> slot
	free  []int

	defaultTTL time.Duration

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// NewManager creates a cache holding at most maxSize entries. A nil
// policy falls back to ScorePolicy; zero maxSize and defaultTTL fall
// back to the package defaults.
func NewManager(maxSize int, defaultTTL time.Duration, policy EvictionPolicy, logger *slog.Logger) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if policy == nil {
		policy = ScorePolicy{}
	}

	free := make([]int, maxSize)
	for i := range free {
		free[i] = maxSize - 1 - i
	}

	return &Manager{
		logger:     logger,
		policy:     policy,
		now:        time.Now,
		slots:      make([]*Entry, maxSize),
		index:      make(map[string]int, maxSize),
		free:       free,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key. Expired entries are evicted on
// the spot and reported as ErrExpired; absent keys as ErrMiss.
func (m *Manager) Get(key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.index[key]
	if !ok {
		return nil, ErrMiss
	}

	entry := m.slots[slot]
	now := m.now()

	if entry.Expired(now) {
		m.evictLocked(slot)
		return nil, ErrExpired
	}

	entry.AccessCount++
	entry.LastAccessed = now
	return entry.Value, nil
}

// Set stores value under key. A ttl of zero uses the manager default.
// Inserting into a full cache evicts exactly one entry, chosen by the
// eviction policy.
func (m *Manager) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if slot, ok := m.index[key]; ok {
		entry := m.slots[slot]
		entry.Value = value
		entry.Timestamp = now
		entry.TTL = ttl
		entry.LastAccessed = now
		return
	}

	if len(m.free) == 0 {
		occupied := make([]*Entry, 0, len(m.index))
		for _, slot := range m.index {
			occupied = append(occupied, m.slots[slot])
		}
		victim := m.policy.Victim(now, occupied)
		m.evictLocked(m.index[victim])
	}

	slot := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]

	m.slots[slot] = &Entry{
		Key:          key,
		Value:        value,
		Timestamp:    now,
		TTL:          ttl,
		LastAccessed: now,
	}
	m.index[key] = slot
}

// Delete removes key if present.
func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slot, ok := m.index[key]; ok {
		m.evictLocked(slot)
	}
}

// Clear removes every entry.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, slot := range m.index {
		m.slots[slot] = nil
		m.free = append(m.free, slot)
		delete(m.index, key)
	}
}

// Invalidate removes every entry whose key matches the glob pattern and
// returns how many were removed.
func (m *Manager) Invalidate(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, slot := range m.index {
		if storage.MatchKey(pattern, key) {
			m.evictLocked(slot)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries, expired ones included until
// they are swept.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.index)
}

// StartSweeper launches the periodic sweep that removes TTL-expired
// entries regardless of access pattern, bounding growth from
// write-heavy, read-rarely keys. A non-positive interval uses the
// default. Calling StartSweeper twice without StopSweeper is a no-op.
func (m *Manager) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopSweep != nil {
		return
	}

	m.stopSweep = make(chan struct{})
	m.sweepDone = make(chan struct{})

	go m.sweepLoop(interval, m.stopSweep, m.sweepDone)
}

// StopSweeper stops the periodic sweep and waits for it to exit.
func (m *Manager) StopSweeper() {
	m.mu.Lock()
	stop, done := m.stopSweep, m.sweepDone
	m.stopSweep, m.sweepDone = nil, nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *Manager) sweepLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.SweepExpired(); n > 0 && m.logger != nil {
				m.logger.Debug("swept expired cache entries", "count", n)
			}
		case <-stop:
			return
		}
	}
}

// SweepExpired removes all expired entries and returns how many were
// removed.
func (m *Manager) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for _, slot := range m.index {
		if m.slots[slot].Expired(now) {
			m.evictLocked(slot)
			removed++
		}
	}
	return removed
}

// evictLocked frees one slot. Caller holds the lock.
func (m *Manager) evictLocked(slot int) {
	entry := m.slots[slot]
	if entry == nil {
		return
	}
	delete(m.index, entry.Key)
	m.slots[slot] = nil
	m.free = append(m.free, slot)
}
