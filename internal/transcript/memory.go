package transcript

import (
	"context"
	"sync"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
)

// MemoryStore holds live transcripts in process memory, scoped per session.
// It is the store of record for in-flight conversations; the durable
// backend receives them at upload time.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Turn
}

// NewMemoryStore creates an empty in-memory transcript store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]domain.Turn),
	}
}

// Append adds turns to the end of the session's transcript.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turns []domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turns...)
	return nil
}

// ReadAll returns a copy of the session's turns in append order.
func (s *MemoryStore) ReadAll(_ context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "transcript_not_found")
	}
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Overwrite replaces the session's transcript wholesale.
func (s *MemoryStore) Overwrite(_ context.Context, sessionID string, turns []domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := make([]domain.Turn, len(turns))
	copy(replaced, turns)
	s.sessions[sessionID] = replaced
	return nil
}
