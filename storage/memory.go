package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexk-dev/compactpg/types"
)

// MemoryStore is an in-memory Store, intended for tests and embedding.
// Sessions are stored by reference: mutations made by the caller between
// GetSession and SaveSession are visible to other readers of the same store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
	events   map[string][]*CompactionEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*types.Session),
		events:   make(map[string][]*CompactionEvent),
	}
}

// GetSession retrieves a session by ID.
func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// SaveSession persists the session, overwriting any previous state.
func (s *MemoryStore) SaveSession(ctx context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	session.UpdatedAt = time.Now()
	s.sessions[session.ID] = session
	return nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *MemoryStore) ListSessions(ctx context.Context) ([]*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*types.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// SaveCompactionEvent records a compaction audit event.
func (s *MemoryStore) SaveCompactionEvent(ctx context.Context, event *CompactionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.events[event.SessionID] = append(s.events[event.SessionID], event)
	return nil
}

// GetCompactionHistory returns a session's compaction events, most recent first.
func (s *MemoryStore) GetCompactionHistory(ctx context.Context, sessionID string) ([]*CompactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[sessionID]
	history := make([]*CompactionEvent, len(events))
	for i, event := range events {
		history[len(events)-1-i] = event
	}
	return history, nil
}
