package progress

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
)

type stateKey struct {
	userID    uuid.UUID
	problemID uuid.UUID
}

// MemoryStore is an in-memory Store, used in tests and single-process runs
type MemoryStore struct {
	mu     sync.RWMutex
	states map[stateKey]domain.ProgressState
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[stateKey]domain.ProgressState)}
}

// Get returns a copy of the stored state
func (s *MemoryStore) Get(_ context.Context, userID, problemID uuid.UUID) (*domain.ProgressState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[stateKey{userID, problemID}]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return &state, nil
}

// Save stores a copy of the state
func (s *MemoryStore) Save(_ context.Context, state *domain.ProgressState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[stateKey{state.UserID, state.ProblemID}] = *state
	return nil
}
