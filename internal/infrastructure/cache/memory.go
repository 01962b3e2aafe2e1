package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps idempotency keys in process. Suitable for a single
// instance; expired keys are purged by a background loop.
type MemoryStore struct {
	mu        sync.Mutex
	expiries  map[string]time.Time
	clock     func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryStore creates a store that purges expired keys every purgeInterval.
// A non-positive interval disables the purge loop.
func NewMemoryStore(purgeInterval time.Duration) *MemoryStore {
	return newMemoryStore(purgeInterval, time.Now)
}

func newMemoryStore(purgeInterval time.Duration, clock func() time.Time) *MemoryStore {
	s := &MemoryStore{
		expiries: make(map[string]time.Time),
		clock:    clock,
		stop:     make(chan struct{}),
	}
	if purgeInterval > 0 {
		s.wg.Add(1)
		go s.purgeLoop(purgeInterval)
	}
	return s
}

// Claim holds key until now+ttl unless an unexpired claim exists
func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if expiry, ok := s.expiries[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.expiries[key] = now.Add(ttl)
	return true, nil
}

// Release drops the key
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expiries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the purge loop. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Len returns the number of stored keys, expired or not
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiries)
}

func (s *MemoryStore) purgeLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

func (s *MemoryStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	for key, expiry := range s.expiries {
		if !now.Before(expiry) {
			delete(s.expiries, key)
		}
	}
}

var _ IdempotencyStore = (*MemoryStore)(nil)
