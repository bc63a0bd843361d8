package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It backs the gateway when Redis
// is not configured and doubles as the test implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte

	// now is swappable in tests to simulate TTL expiry.
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	raw, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}

	payload, err := decodeEntry(raw, s.now())
	if err != nil {
		return nil, ErrMiss
	}
	return payload, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	raw, err := encodeEntry(payload, ttl, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// SetClock overrides the store's time source. Tests only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}
