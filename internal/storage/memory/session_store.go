package memory

import (
	"context"
	"sort"
	"sync"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// SessionStore is an in-memory implementation of storage.SessionStore.
// Stored sessions are deep copies; callers never share state with the store.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[string]*domain.Session),
	}
}

// Save inserts or replaces a session snapshot.
func (s *SessionStore) Save(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sess.ID] = sess.Clone()
	return nil
}

// Get retrieves a session by its ID. Returns ErrNotFound if not exists.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return sess.Clone(), nil
}

// Delete removes a session. Returns ErrNotFound if not exists.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// List returns all session IDs in ascending order.
func (s *SessionStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ storage.SessionStore = (*SessionStore)(nil)
