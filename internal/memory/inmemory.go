package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultRetainedTurns bounds per-user history in the in-process store. The
// dispatcher only reads a small recent window, so older turns are dropped
// instead of growing without limit for long-lived local runs.
const defaultRetainedTurns = 512

// InMemoryStore keeps a bounded per-user turn history in process memory,
// used for local runs and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	retain int
	turns  map[string][]TurnRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		retain: defaultRetainedTurns,
		turns:  make(map[string][]TurnRecord),
	}
}

func (s *InMemoryStore) SaveTurn(_ context.Context, record TurnRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.turns[record.UserID], record)
	if overflow := len(history) - s.retain; overflow > 0 {
		history = history[overflow:]
	}
	s.turns[record.UserID] = history
	return nil
}

func (s *InMemoryStore) RecentContext(_ context.Context, userID string, limit int) ([]TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.turns[userID]
	if len(history) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}
	out := make([]TurnRecord, limit)
	copy(out, history[len(history)-limit:])
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
