package exercise

import "fmt"

// State is the phase and repetition count of one exercise.
type State struct {
	Phase Phase `json:"phase"`
	Count int   `json:"count"`
}

func initialState() State { return State{Phase: Down} }

// Tracker advances per-exercise state from confirmed labels.
// It is not safe for concurrent use.
type Tracker struct {
	states map[Exercise]State
}

// NewTracker returns a tracker with every exercise down at zero.
func NewTracker() *Tracker {
	t := &Tracker{states: make(map[Exercise]State, len(All))}
	for _, e := range All {
		t.states[e] = initialState()
	}
	return t
}

// Apply stores the label's phase for its exercise and reports whether an
// up to down transition completed a repetition.
func (t *Tracker) Apply(l Label) bool {
	prev, ok := t.states[l.Exercise]
	if !ok {
		return false
	}

	next := State{Phase: l.Phase, Count: prev.Count}
	completed := prev.Phase == Up && l.Phase == Down
	if completed {
		next.Count++
	}
	t.states[l.Exercise] = next
	return completed
}

// Clone returns an independent copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	c := &Tracker{states: make(map[Exercise]State, len(t.states))}
	for e, st := range t.states {
		c.states[e] = st
	}
	return c
}

// State returns the current state of e. Untracked exercises report the zero State.
func (t *Tracker) State(e Exercise) State {
	return t.states[e]
}

// Count returns the repetition count of e.
func (t *Tracker) Count(e Exercise) int {
	return t.states[e].Count
}

// Reset puts the named exercise back to down at zero.
func (t *Tracker) Reset(name string) error {
	e, ok := Parse(name)
	if !ok {
		return fmt.Errorf("reset %q: %w", name, ErrUnknownExercise)
	}
	t.states[e] = initialState()
	return nil
}

// Stats is a snapshot of all counters.
type Stats struct {
	Counters  map[string]int    `json:"counters"`
	States    map[string]string `json:"states"`
	TotalReps int               `json:"total_reps"`
}

// Stats returns a copy of the counters and phases with their total.
func (t *Tracker) Stats() Stats {
	s := Stats{
		Counters: make(map[string]int, len(t.states)),
		States:   make(map[string]string, len(t.states)),
	}
	for e, st := range t.states {
		s.Counters[string(e)] = st.Count
		s.States[string(e)] = string(st.Phase)
		s.TotalReps += st.Count
	}
	return s
}
