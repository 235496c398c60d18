package database

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamwears/popular/internal/listing"
)

type memoryEntry struct {
	state     listing.State
	expiresAt time.Time
}

// MemoryScreenStore keeps screen state in process memory. Used when no Redis is configured.
type MemoryScreenStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryScreenStore creates a new in-memory screen store
func NewMemoryScreenStore(ttl time.Duration) *MemoryScreenStore {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryScreenStore{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save stores the state of a screen
func (s *MemoryScreenStore) Save(ctx context.Context, id uuid.UUID, state listing.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = memoryEntry{state: state, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Load retrieves the state of a screen, refreshing its expiry
func (s *MemoryScreenStore) Load(ctx context.Context, id uuid.UUID) (listing.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return listing.State{}, listing.ErrScreenNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return listing.State{}, listing.ErrScreenNotFound
	}

	entry.expiresAt = s.now().Add(s.ttl)
	s.entries[id] = entry
	return entry.state, nil
}

// Delete removes a screen
func (s *MemoryScreenStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
