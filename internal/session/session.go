// Package session owns the per-user smoothing window and exercise state.
package session

import (
	"sync"
	"time"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/smoothing"
)

// Update is the outcome of observing one raw label.
type Update struct {
	// Confirmed is the plurality label after the push.
	Confirmed string
	// Label is the decoded confirmed label; Mapped is false when the label
	// is outside the table and no transition happened.
	Label  exercise.Label
	Mapped bool
	// Exercise is the exercise to display for the confirmed label.
	Exercise     exercise.Exercise
	RepCount     int
	RepCompleted bool
	FormScore    int
	Feedback     string
}

// Session serializes label observation for one logical user.
type Session struct {
	id string

	mu       sync.Mutex
	window   *smoothing.Window
	tracker  *exercise.Tracker
	lastSeen time.Time
	now      func() time.Time
}

// New creates a session with a smoothing window of windowSize labels.
func New(id string, windowSize int) *Session {
	return &Session{
		id:       id,
		window:   smoothing.NewWindow(windowSize),
		tracker:  exercise.NewTracker(),
		now:      time.Now,
		lastSeen: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Observe pushes a raw label, takes the plurality, applies the transition
// and scores the window as one atomic step.
func (s *Session) Observe(raw string) Update {
	u, _ := s.ObserveWith(raw, nil)
	return u
}

// ObserveWith is Observe with a follow-up step run under the session lock.
// The new window and exercise state are committed only when finish returns
// nil; on error the session is left as it was before the call.
func (s *Session) ObserveWith(raw string, finish func(Update) error) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()

	window := s.window.Clone()
	tracker := s.tracker.Clone()

	confirmed := window.Push(raw)
	u := Update{
		Confirmed: confirmed,
		Exercise:  exercise.Resolve(confirmed),
		Feedback:  exercise.GenericFeedback,
	}

	if l, ok := exercise.ParseLabel(confirmed); ok {
		u.Label, u.Mapped = l, true
		u.RepCompleted = tracker.Apply(l)
		u.Feedback = exercise.Feedback(l)
	}

	u.RepCount = tracker.Count(u.Exercise)
	u.FormScore = exercise.FormScore(window.Len(), window.Last(10))

	if finish != nil {
		if err := finish(u); err != nil {
			return u, err
		}
	}
	s.window, s.tracker = window, tracker
	return u, nil
}

// Reset zeroes one exercise. The smoothing window is left as is.
func (s *Session) Reset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return s.tracker.Reset(name)
}

// Stats returns a snapshot of the exercise counters.
func (s *Session) Stats() exercise.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Stats()
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// WindowLen returns the number of labels currently held.
func (s *Session) WindowLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.Len()
}
