package server

import (
	"sync"
	"time"

	"github.com/spigell/mock-interview/internal/interview"
)

// Registry holds the live sessions by ID. Sessions share nothing mutable;
// each one serialises its own transitions.
// With a positive idle TTL, Sweep drops sessions not accessed within it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	idleTTL  time.Duration
	now      func() time.Time
}

type entry struct {
	session  *interview.Session
	lastSeen time.Time
}

// NewRegistry creates an empty Registry. A non-positive idleTTL disables expiry.
func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (r *Registry) Add(s *interview.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = &entry{session: s, lastSeen: r.now()}
}

// Get returns the session and marks it as accessed.
func (r *Registry) Get(id string) (*interview.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.session, true
}

// Delete removes a session and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns their IDs.
func (r *Registry) Sweep() []string {
	if r.idleTTL <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	var expired []string
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// sweepInterval is how often the janitor checks for idle sessions.
func (r *Registry) sweepInterval() time.Duration {
	interval := r.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
