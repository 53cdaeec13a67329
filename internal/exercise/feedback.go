package exercise

// Guidance is the static coaching text for one exercise.
type Guidance struct {
	Up       string
	Down     string
	FormTips []string
}

const (
	// GenericFeedback is shown for labels outside the tracked set.
	GenericFeedback = "Keep going! Maintain good form."

	// FallbackFeedback is shown when no trained classifier is loaded.
	FallbackFeedback = "Pose detected - ML model not available"
)

var guidance = map[Exercise]Guidance{
	Pushups: {
		Up:       "Great form! Keep your back straight and lower slowly.",
		Down:     "Lower your body until your chest nearly touches the ground.",
		FormTips: []string{"Keep your core tight", "Maintain a straight line from head to heels", "Breathe steadily"},
	},
	Squats: {
		Up:       "Excellent depth! Keep your chest up and knees behind toes.",
		Down:     "Lower until your thighs are parallel to the ground.",
		FormTips: []string{"Keep your chest up", "Knees behind toes", "Weight in your heels"},
	},
	Situps: {
		Up:       "Good control! Keep your feet flat and engage your core.",
		Down:     "Lower your upper body back to the starting position.",
		FormTips: []string{"Keep your feet flat", "Engage your core", "Don't pull on your neck"},
	},
	JumpingJacks: {
		Up:       "Great rhythm! Keep your arms and legs coordinated.",
		Down:     "Jump back to starting position with control.",
		FormTips: []string{"Land softly", "Keep your core engaged", "Maintain rhythm"},
	},
	Pullups: {
		Up:       "Excellent pull! Keep your shoulders back and chest up.",
		Down:     "Lower yourself with control to full extension.",
		FormTips: []string{"Keep your core tight", "Pull with your back muscles", "Full range of motion"},
	},
}

// Feedback returns the guidance line for a decoded label.
func Feedback(l Label) string {
	g, ok := guidance[l.Exercise]
	if !ok {
		return GenericFeedback
	}
	switch l.Phase {
	case Up:
		return g.Up
	case Down:
		return g.Down
	}
	return GenericFeedback
}

// FormTips returns the form tips for e, or nil for untracked exercises.
func FormTips(e Exercise) []string {
	g, ok := guidance[e]
	if !ok {
		return nil
	}
	tips := make([]string, len(g.FormTips))
	copy(tips, g.FormTips)
	return tips
}
