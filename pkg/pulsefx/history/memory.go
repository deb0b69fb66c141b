package history

import "sync"

// MemoryStore is an in-memory Store implementation, suitable for tests and
// short-lived sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Record
	closed   bool
}

// NewMemoryStore creates an empty in-memory archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Record),
	}
}

// Append implements Store.
func (s *MemoryStore) Append(sessionID string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.sessions[sessionID] = append(s.sessions[sessionID], rec)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(sessionID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	records, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

// DeleteSession implements Store.
func (s *MemoryStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	delete(s.sessions, sessionID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
