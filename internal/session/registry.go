package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultID names the session used by callers that do not pass one.
const DefaultID = "default"

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Registry holds live sessions keyed by ID.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	windowSize  int
	idleTimeout time.Duration
	now         func() time.Time

	// OnChange, if set, is called with the number of live sessions after
	// each create, delete or prune.
	OnChange func(active int)
}

// NewRegistry creates a registry holding the default session.
// Sessions idle for longer than idleTimeout are removed by Prune;
// a zero timeout disables pruning.
func NewRegistry(windowSize int, idleTimeout time.Duration) *Registry {
	r := &Registry{
		sessions:    make(map[string]*Session),
		windowSize:  windowSize,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
	r.sessions[DefaultID] = r.newSession(DefaultID)
	return r
}

func (r *Registry) newSession(id string) *Session {
	s := New(id, r.windowSize)
	s.now = r.now
	s.lastSeen = r.now()
	return s
}

// Default returns the shared default session.
func (r *Registry) Default() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[DefaultID]
}

// Create starts a new session with a random ID.
func (r *Registry) Create() *Session {
	s := r.newSession(uuid.NewString())

	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.notify(n)
	log.WithField("session", s.ID()).Debug("session created")
	return s
}

// Get looks up a session by ID. An empty ID returns the default session.
func (r *Registry) Get(id string) (*Session, error) {
	if id == "" {
		return r.Default(), nil
	}

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a session. The default session is reset instead of removed.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	if _, ok := r.sessions[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if id == DefaultID {
		r.sessions[DefaultID] = r.newSession(DefaultID)
	} else {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	r.notify(n)
	return nil
}

// Len returns the number of live sessions, the default one included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune removes sessions idle for longer than the idle timeout and returns
// how many were removed. The default session is never pruned.
func (r *Registry) Prune() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if id == DefaultID {
			continue
		}
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		log.WithField("removed", removed).Info("pruned idle sessions")
		r.notify(n)
	}
	return removed
}

// Run prunes idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}

func (r *Registry) notify(n int) {
	if r.OnChange != nil {
		r.OnChange(n)
	}
}
