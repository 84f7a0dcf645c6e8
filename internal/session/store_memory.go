package session

import (
	"context"
	"sync"
	"time"

	"credgen/internal/domain"
	"credgen/pkg/platform/sentinel"
)

// MemoryStore is the single-process session store used when Redis is not
// configured. State is deep-copied on the way in and out so callers never
// share memory with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	state     *domain.ApplicationState
	touchedAt time.Time
}

// MemoryOption configures the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-memory store with the given idle TTL. A zero
// TTL disables expiry.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.ApplicationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok || s.expired(entry) {
		return nil, sentinel.ErrNotFound
	}
	return entry.state.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, state *domain.ApplicationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[state.ID] = &memoryEntry{
		state:     state.Clone(),
		touchedAt: s.now(),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) IdleIDs(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, entry := range s.entries {
		if entry.touchedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) expired(entry *memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(entry.touchedAt) > s.ttl
}
