package session

import "sync"

// Store keeps sessions keyed by chat ID. Updates for one chat arrive in
// order (the transport guarantees per-chat sequencing), so the mutex only
// guards the map itself, not individual sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for a chat, creating it on first contact.
func (s *Store) Get(chatID int64) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[chatID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		return sess
	}
	sess = NewSession()
	s.sessions[chatID] = sess
	return sess
}

// Reset replaces a chat's session with a fresh one, as on /start.
func (s *Store) Reset(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := NewSession()
	s.sessions[chatID] = sess
	return sess
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
