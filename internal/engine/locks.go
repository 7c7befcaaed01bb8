package engine

import "sync"

// senderLocks serializes processing per sender. Two concurrent messages
// from the same sender must never both read the session, compute a
// transition, and write it back.
type senderLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSenderLocks() *senderLocks {
	return &senderLocks{locks: make(map[string]*lockEntry)}
}

// lock acquires the mutex for one sender and returns its release func.
// Entries are reference counted so idle senders do not accumulate.
func (s *senderLocks) lock(sender string) func() {
	s.mu.Lock()
	entry, ok := s.locks[sender]
	if !ok {
		entry = &lockEntry{}
		s.locks[sender] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		s.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.locks, sender)
		}
		s.mu.Unlock()
	}
}
