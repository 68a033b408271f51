package chat

import (
	"sync"
)

// Registry maps user -> open handles plus the reverse handle -> session
// index for O(1) cleanup. The two indexes are mutated together under one
// lock and therefore stay mutually consistent.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Session // userId -> connId -> session
	byConn map[string]*Session            // connId -> session
	seq    uint64                         // Add order, for AnyHandle
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]*Session),
		byConn: make(map[string]*Session),
	}
}

func (r *Registry) Add(s *Session) {
	if s == nil || s.ConnID == "" || s.UserID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	s.addSeq = r.seq

	m := r.byUser[s.UserID]
	if m == nil {
		m = make(map[string]*Session)
		r.byUser[s.UserID] = m
	}
	m[s.ConnID] = s
	r.byConn[s.ConnID] = s
}

// Remove drops the handle and reports which user owned it and whether that
// user now has zero handles. Unknown handles are a no-op.
func (r *Registry) Remove(connID string) (userID string, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)

	if m := r.byUser[s.UserID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byUser, s.UserID)
			return s.UserID, true
		}
	}
	return s.UserID, false
}

// AnyHandle returns the most recently added live handle for the user, or nil.
func (r *Registry) AnyHandle(userID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest *Session
	for _, s := range r.byUser[userID] {
		if newest == nil || s.addSeq > newest.addSeq {
			newest = s
		}
	}
	return newest
}

func (r *Registry) ListUser(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}

func (r *Registry) ListAll() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.byConn))
	for _, s := range r.byConn {
		out = append(out, s)
	}
	return out
}

func (r *Registry) CountUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}
