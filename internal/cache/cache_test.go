package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestManager returns a manager with a controllable clock.
func newTestManager(maxSize int, ttl time.Duration) (*Manager, *time.Time) {
	m := NewManager(maxSize, ttl, nil, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManager_SetGet(t *testing.T) {
	m, _ := newTestManager(4, time.Minute)

	m.Set("activity:a1", "value", 0)

	got, err := m.Get("activity:a1")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestManager_GetMiss(t *testing.T) {
	m, _ := newTestManager(4, time.Minute)

	_, err := m.Get("absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestManager_Expiry(t *testing.T) {
	m, now := newTestManager(4, time.Minute)

	m.Set("k", "v", time.Minute)

	// Just inside the TTL the entry is still served.
	*now = now.Add(time.Minute)
	_, err := m.Get("k")
	require.NoError(t, err)

	// Past the TTL the entry is evicted on access.
	*now = now.Add(time.Nanosecond)
	_, err = m.Get("k")
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, 0, m.Len())

	// The slot is reusable and a second read is a plain miss.
	_, err = m.Get("k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestManager_SetRefreshesExisting(t *testing.T) {
	m, now := newTestManager(4, time.Minute)

	m.Set("k", "old", time.Minute)
	*now = now.Add(50 * time.Second)
	m.Set("k", "new", time.Minute)

	// The rewrite restarted the TTL clock.
	*now = now.Add(50 * time.Second)
	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, m.Len())
}

func TestManager_EvictsExactlyOneWhenFull(t *testing.T) {
	m, now := newTestManager(2, time.Hour)

	m.Set("a", 1, 0)
	m.Set("b", 2, 0)

	// Touch "a" so "b" has the higher idle/frequency score.
	*now = now.Add(time.Minute)
	_, err := m.Get("a")
	require.NoError(t, err)

	*now = now.Add(time.Minute)
	m.Set("c", 3, 0)

	assert.Equal(t, 2, m.Len())

	_, err = m.Get("b")
	assert.ErrorIs(t, err, ErrMiss, "least valuable entry must be the one evicted")

	_, err = m.Get("a")
	assert.NoError(t, err)
	_, err = m.Get("c")
	assert.NoError(t, err)
}

func TestManager_CapacityNeverExceeded(t *testing.T) {
	m, _ := newTestManager(8, time.Hour)

	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("k%d", i), i, 0)
		assert.LessOrEqual(t, m.Len(), 8)
	}
	assert.Equal(t, 8, m.Len())
}

func TestManager_Delete(t *testing.T) {
	m, _ := newTestManager(4, time.Minute)

	m.Set("k", "v", 0)
	m.Delete("k")
	m.Delete("k") // absent keys are ignored

	_, err := m.Get("k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestManager_Clear(t *testing.T) {
	m, _ := newTestManager(4, time.Minute)

	m.Set("a", 1, 0)
	m.Set("b", 2, 0)

	m.Clear()
	assert.Equal(t, 0, m.Len())

	// Slots freed by Clear are reusable.
	m.Set("c", 3, 0)
	got, err := m.Get("c")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestManager_Invalidate(t *testing.T) {
	m, _ := newTestManager(8, time.Minute)

	m.Set("findall:activity:all:0:0", 1, 0)
	m.Set("findall:activity:active:0:0", 2, 0)
	m.Set("findall:timeslot:all:0:0", 3, 0)
	m.Set("activity:a1", 4, 0)

	removed := m.Invalidate("findall:activity:*")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, m.Len())

	_, err := m.Get("findall:timeslot:all:0:0")
	assert.NoError(t, err)
	_, err = m.Get("activity:a1")
	assert.NoError(t, err)
}

func TestManager_SweepExpired(t *testing.T) {
	m, now := newTestManager(8, time.Minute)

	m.Set("short", 1, time.Second)
	m.Set("long", 2, time.Hour)

	*now = now.Add(time.Minute)

	assert.Equal(t, 1, m.SweepExpired())
	assert.Equal(t, 1, m.Len())

	_, err := m.Get("long")
	assert.NoError(t, err)
}

func TestManager_SweeperLifecycle(t *testing.T) {
	m := NewManager(8, time.Minute, nil, nil)

	m.StartSweeper(10 * time.Millisecond)
	m.StartSweeper(10 * time.Millisecond) // second start is a no-op
	m.StopSweeper()
	m.StopSweeper() // second stop is a no-op
}

func TestManager_Defaults(t *testing.T) {
	m := NewManager(0, 0, nil, nil)

	assert.Len(t, m.slots, DefaultMaxSize)
	assert.Equal(t, DefaultTTL, m.defaultTTL)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m, _ := newTestManager(16, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%20)
				m.Set(key, n, 0)
				_, _ = m.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, m.Len(), 16)
}

func TestScorePolicy_Victim(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		entries []*Entry
		want    string
	}{
		{
			name: "oldest idle entry loses",
			entries: []*Entry{
				{Key: "fresh", LastAccessed: now.Add(-time.Second)},
				{Key: "stale", LastAccessed: now.Add(-time.Hour)},
			},
			want: "stale",
		},
		{
			name: "access count shields an idle entry",
			entries: []*Entry{
				{Key: "hot", LastAccessed: now.Add(-time.Hour), AccessCount: 59},
				{Key: "cold", LastAccessed: now.Add(-2 * time.Minute)},
			},
			want: "cold",
		},
		{
			name: "single entry",
			entries: []*Entry{
				{Key: "only", LastAccessed: now},
			},
			want: "only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScorePolicy{}.Victim(now, tt.entries))
		})
	}
}
