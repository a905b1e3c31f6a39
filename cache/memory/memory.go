package memory

import (
	"context"
	"sync"
	"time"

	"github.com/adeilh/employee-registry/cache"
)

// Store is an in-process cache.Store with lazily evaluated expiry. It is
// the default backend when no Redis address is configured, and doubles as
// a deterministic cache for tests.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || e.expired() {
		return nil, cache.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
