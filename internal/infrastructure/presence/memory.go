package presence

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryTracker keeps last-seen timestamps in a map guarded by a mutex.
// A background reaper drops entries older than the TTL.
// Suitable for single-instance deployments and tests.
type MemoryTracker struct {
	ttl   time.Duration
	clock func() time.Time

	mu        sync.RWMutex
	lastSeen  map[string]time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryTracker creates a tracker and starts its reaper.
// A non-positive reapInterval disables the reaper; expired entries are then
// only filtered on read.
func NewMemoryTracker(ttl, reapInterval time.Duration) *MemoryTracker {
	return newMemoryTracker(ttl, reapInterval, time.Now)
}

func newMemoryTracker(ttl, reapInterval time.Duration, clock func() time.Time) *MemoryTracker {
	t := &MemoryTracker{
		ttl:      ttl,
		clock:    clock,
		lastSeen: make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}
	if reapInterval > 0 {
		t.wg.Add(1)
		go t.reapLoop(reapInterval)
	}
	return t
}

// Heartbeat records the user as seen now
func (t *MemoryTracker) Heartbeat(ctx context.Context, userID string) error {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.lastSeen[userID] = t.clock()
	t.mu.Unlock()
	return nil
}

// Remove forgets the user
func (t *MemoryTracker) Remove(ctx context.Context, userID string) error {
	t.mu.Lock()
	delete(t.lastSeen, userID)
	t.mu.Unlock()
	return nil
}

// IsOnline reports whether the user has a live heartbeat
func (t *MemoryTracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	t.mu.RLock()
	seen, ok := t.lastSeen[userID]
	t.mu.RUnlock()
	return ok && t.alive(seen, t.clock()), nil
}

// Online lists users with a live heartbeat
func (t *MemoryTracker) Online(ctx context.Context) ([]Presence, error) {
	now := t.clock()

	t.mu.RLock()
	online := make([]Presence, 0, len(t.lastSeen))
	for id, seen := range t.lastSeen {
		if t.alive(seen, now) {
			online = append(online, Presence{UserID: id, LastSeen: seen})
		}
	}
	t.mu.RUnlock()

	sort.Slice(online, func(i, j int) bool { return online[i].UserID < online[j].UserID })
	return online, nil
}

// Close stops the reaper. Safe to call multiple times.
func (t *MemoryTracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
	return nil
}

// Size returns the number of tracked entries, expired ones included
func (t *MemoryTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.lastSeen)
}

func (t *MemoryTracker) alive(seen, now time.Time) bool {
	return now.Sub(seen) < t.ttl
}

func (t *MemoryTracker) reapLoop(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.reap()
		}
	}
}

func (t *MemoryTracker) reap() {
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, seen := range t.lastSeen {
		if !t.alive(seen, now) {
			delete(t.lastSeen, id)
		}
	}
}

var _ Tracker = (*MemoryTracker)(nil)
