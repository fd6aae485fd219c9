package history

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	items     []Item
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore keeps session items in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

func (s *MemoryStore) Items(_ context.Context, sessionID string) ([]Item, error) {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.sessions[sessionID]
	if session == nil {
		return []Item{}, nil
	}
	out := make([]Item, 0, len(session.items))
	for _, item := range session.items {
		// hand out copies so callers cannot mutate stored history
		copied, _, err := normalize(item)
		if err != nil {
			continue
		}
		out = append(out, copied)
	}
	return out, nil
}

func (s *MemoryStore) AddItems(_ context.Context, sessionID string, items []Item) error {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	normalized := make([]Item, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		n, _, err := normalize(item)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[sessionID]
	if session == nil {
		session = &memorySession{createdAt: now}
		s.sessions[sessionID] = session
	}
	session.items = append(session.items, normalized...)
	session.updatedAt = now
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Sessions(_ context.Context) ([]SessionSummary, error) {
	s.mu.RLock()
	out := make([]SessionSummary, 0, len(s.sessions))
	for id, session := range s.sessions {
		out = append(out, SessionSummary{
			SessionID: id,
			ItemCount: len(session.items),
			CreatedAt: session.createdAt,
			UpdatedAt: session.updatedAt,
		})
	}
	s.mu.RUnlock()
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
