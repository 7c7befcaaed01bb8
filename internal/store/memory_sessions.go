package store

import (
	"context"
	"sync"
	"time"

	"github.com/publicsquare/intake/internal/domain"
)

// MemorySessionStore is an in-memory session store with the same TTL
// contract as the SQLite one. Suitable for tests and single-process
// deployments that can lose conversation state on restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	ttl      time.Duration
	now      Clock
}

// NewMemorySessionStore creates an in-memory session store. A nil clock
// defaults to time.Now.
func NewMemorySessionStore(ttl time.Duration, now Clock) *MemorySessionStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		now:      now,
	}
}

// Get returns the sender's session, or a fresh greeting session when none
// exists or the stored one has expired.
func (s *MemorySessionStore) Get(_ context.Context, sender string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sender]
	if !ok {
		return domain.NewSession(sender), nil
	}
	if sess.Expired(s.now(), s.ttl) {
		delete(s.sessions, sender)
		return domain.NewSession(sender), nil
	}
	copied := sess
	return &copied, nil
}

// Put stores the session, renewing its TTL.
func (s *MemorySessionStore) Put(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = s.now()
	s.sessions[sess.Sender] = *sess
	return nil
}

// Clear removes the sender's session.
func (s *MemorySessionStore) Clear(_ context.Context, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sender)
	return nil
}
