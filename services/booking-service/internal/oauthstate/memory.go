package oauthstate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps states in process; it only works with a single instance.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	shopID    string
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Put(_ context.Context, shopID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	state := newState()
	s.entries[state] = memoryEntry{shopID: shopID, expiresAt: now.Add(s.ttl)}
	return state, nil
}

func (s *MemoryStore) Take(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return "", ErrUnknownState
	}
	delete(s.entries, state)
	if s.now().After(e.expiresAt) {
		return "", ErrUnknownState
	}
	return e.shopID, nil
}
