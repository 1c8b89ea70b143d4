package application

import (
	"sync"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

// Registry is the ordered set of live pool sessions. Iteration order is
// registration order and is stable apart from removals.
type Registry struct {
	mu       sync.RWMutex
	sessions []ports.Session
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends session unless a session with the same id is already present.
func (r *Registry) Add(session ports.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.ID() == session.ID() {
			return false
		}
	}
	r.sessions = append(r.sessions, session)
	return true
}

func (r *Registry) Remove(id domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.sessions {
		if existing.ID() != id {
			continue
		}
		sessions := make([]ports.Session, 0, len(r.sessions)-1)
		sessions = append(sessions, r.sessions[:i]...)
		sessions = append(sessions, r.sessions[i+1:]...)
		r.sessions = sessions
		return true
	}
	return false
}

func (r *Registry) Get(id domain.SessionID) (ports.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, existing := range r.sessions {
		if existing.ID() == id {
			return existing, true
		}
	}
	return nil, false
}

// Snapshot returns a copy of the session list safe to iterate without locks.
func (r *Registry) Snapshot() []ports.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]ports.Session(nil), r.sessions...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
