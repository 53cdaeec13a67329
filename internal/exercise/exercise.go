// Package exercise holds the exercise set, the label table, and the per-exercise
// phase/repetition state machine.
package exercise

import (
	"errors"
	"strings"
)

// Exercise names a tracked exercise.
type Exercise string

const (
	Pushups      Exercise = "pushups"
	Squats       Exercise = "squats"
	Situps       Exercise = "situps"
	JumpingJacks Exercise = "jumping_jacks"
	Pullups      Exercise = "pullups"

	// Unknown is displayed when a label names none of the tracked exercises.
	Unknown Exercise = "unknown"
)

// All lists the tracked exercises in display and matching order.
var All = []Exercise{Pushups, Squats, Situps, JumpingJacks, Pullups}

// Phase is one half of a repetition cycle.
type Phase string

const (
	Up   Phase = "up"
	Down Phase = "down"
)

// ErrUnknownExercise is returned for names outside the tracked set.
var ErrUnknownExercise = errors.New("unknown exercise")

// Parse returns the tracked exercise with the given name.
func Parse(name string) (Exercise, bool) {
	for _, e := range All {
		if string(e) == name {
			return e, true
		}
	}
	return "", false
}

// Label is a decoded classifier label.
type Label struct {
	Exercise Exercise
	Phase    Phase
}

// String returns the canonical "{exercise}_{phase}" form.
func (l Label) String() string {
	return string(l.Exercise) + "_" + string(l.Phase)
}

// labels maps raw classifier output to its decoded pair. "situp_down" is the
// spelling the shipped label encoder uses for the situps down phase.
var labels = func() map[string]Label {
	m := make(map[string]Label, 2*len(All)+1)
	for _, e := range All {
		m[string(e)+"_up"] = Label{e, Up}
		m[string(e)+"_down"] = Label{e, Down}
	}
	m["situp_down"] = Label{Situps, Down}
	return m
}()

// ParseLabel decodes a raw label. ok is false for unmapped labels.
func ParseLabel(raw string) (l Label, ok bool) {
	l, ok = labels[raw]
	return l, ok
}

// Match returns the first tracked exercise whose name occurs in raw,
// or Unknown.
func Match(raw string) Exercise {
	for _, e := range All {
		if strings.Contains(raw, string(e)) {
			return e
		}
	}
	return Unknown
}

// Resolve returns the exercise to display for a confirmed label: the decoded
// exercise when the label is mapped, otherwise a substring match.
func Resolve(raw string) Exercise {
	if l, ok := ParseLabel(raw); ok {
		return l.Exercise
	}
	return Match(raw)
}
