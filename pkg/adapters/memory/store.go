package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/alf/pkg/domain"
)

// Store implements ports.KnowledgeStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

func clone(snap *domain.Snapshot) *domain.Snapshot {
	c := *snap
	c.Knowledge = slices.Clone(snap.Knowledge)
	c.Counterexamples = make([]domain.Counterexample, len(snap.Counterexamples))
	for i, cex := range snap.Counterexamples {
		c.Counterexamples[i].Word = cex.Word.Clone()
		if cex.Answer != nil {
			a := *cex.Answer
			c.Counterexamples[i].Answer = &a
		}
	}
	if snap.Counterexamples == nil {
		c.Counterexamples = nil
	}
	return &c
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := clone(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return clone(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored sessions in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
