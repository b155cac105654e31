package exam

import "sync"

// Slot holds the one active session of a process. Consumers receive the
// Slot by reference rather than reaching for a global.
type Slot struct {
	mu   sync.Mutex
	sess *Session
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Current returns the active session, or nil.
func (s *Slot) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// Replace installs next as the active session and clears the previous one.
func (s *Slot) Replace(next *Session) {
	s.mu.Lock()
	prev := s.sess
	s.sess = next
	s.mu.Unlock()

	if prev != nil && prev != next {
		prev.Clear()
	}
}

// Release empties the slot without touching the session.
func (s *Slot) Release() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sess
	s.sess = nil
	return prev
}
