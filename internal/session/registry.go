package session

import (
	"sync"
	"time"
)

// Registry tracks the active sessions, the admission queue and recent
// disconnects.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint32]*Session
	linked   map[uint32]map[uint32]*Session

	queue []*Session

	disconnects map[uint32]time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[uint32]*Session),
		linked:      make(map[uint32]map[uint32]*Session),
		disconnects: make(map[uint32]time.Time),
	}
}

// Add registers s, returning the session it replaced if any.
func (r *Registry) Add(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.sessions[s.account]
	if old != nil {
		r.unlink(old)
	}
	r.sessions[s.account] = s

	if s.linkedID != 0 {
		m, ok := r.linked[s.linkedID]
		if !ok {
			m = make(map[uint32]*Session)
			r.linked[s.linkedID] = m
		}
		m[s.account] = s
	}
	return old
}

func (r *Registry) unlink(s *Session) {
	if s.linkedID == 0 {
		return
	}
	if m, ok := r.linked[s.linkedID]; ok && m[s.account] == s {
		delete(m, s.account)
		if len(m) == 0 {
			delete(r.linked, s.linkedID)
		}
	}
}

// Get returns the session registered for account.
func (r *Registry) Get(account uint32) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[account]
}

// ByLinkedID returns every session sharing the linked identity.
func (r *Registry) ByLinkedID(linkedID uint32) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.linked[linkedID]))
	for _, s := range r.linked[linkedID] {
		out = append(out, s)
	}
	return out
}

// ByConnectKey returns the session waiting for an instance socket with key.
func (r *Registry) ByConnectKey(key uint64) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.connectKey == key {
			return s
		}
	}
	return nil
}

// Remove unregisters s. A session that has since been replaced is left alone.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.account] != s {
		return false
	}
	delete(r.sessions, s.account)
	r.unlink(s)
	return true
}

// Len returns the number of registered sessions, queued ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the registered sessions.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Enqueue appends s to the admission queue and returns its 1-based position.
func (r *Registry) Enqueue(s *Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.SetQueued(true)
	r.queue = append(r.queue, s)
	return len(r.queue)
}

// QueuePos returns the 1-based queue position of s, or 0 if not queued.
func (r *Registry) QueuePos(s *Session) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, q := range r.queue {
		if q == s {
			return i + 1
		}
	}
	return 0
}

// QueueLen returns the number of queued sessions.
func (r *Registry) QueueLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queue)
}

// RemoveQueued takes s out of the queue. It returns the 0-based index s was
// found at, or -1.
func (r *Registry) RemoveQueued(s *Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.queue {
		if q == s {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			s.SetQueued(false)
			return i
		}
	}
	return -1
}

// PopQueue removes and returns the head of the queue.
func (r *Registry) PopQueue() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil
	}
	s := r.queue[0]
	r.queue = r.queue[1:]
	s.SetQueued(false)
	return s
}

// QueuedFrom returns the queued sessions starting at 0-based index i.
func (r *Registry) QueuedFrom(i int) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.queue) {
		return nil
	}
	out := make([]*Session, len(r.queue)-i)
	copy(out, r.queue[i:])
	return out
}

// RecordDisconnect notes when account last left.
func (r *Registry) RecordDisconnect(account uint32, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnects[account] = at
}

// RecentlyDisconnected reports whether account left within tolerance of now.
// Expired entries are pruned as a side effect.
func (r *Registry) RecentlyDisconnected(account uint32, now time.Time, tolerance time.Duration) bool {
	if tolerance <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for id, at := range r.disconnects {
		if now.Sub(at) >= tolerance {
			delete(r.disconnects, id)
			continue
		}
		if id == account {
			found = true
		}
	}
	return found
}
