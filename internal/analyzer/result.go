package analyzer

import (
	"encoding/json"

	"github.com/ayusman/repcount/internal/pose"
)

// Frame outcomes reported to the Recorder.
const (
	OutcomeSuccess      = "success"
	OutcomeFallback     = "fallback"
	OutcomeNoDetection  = "no_detection"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"
)

// Result is the outcome of analyzing one frame. A failed Result marshals to
// {"success": false, "error": "..."} only.
type Result struct {
	Success        bool                    `json:"success"`
	ExerciseType   string                  `json:"exercise_type"`
	CurrentState   string                  `json:"current_state"`
	RepCount       int                     `json:"rep_count"`
	Feedback       string                  `json:"feedback"`
	FormScore      int                     `json:"form_score"`
	AnnotatedImage string                  `json:"annotated_image"`
	Keypoints      map[string]pose.Point3D `json:"keypoints"`

	// Err is set on failure.
	Err error `json:"-"`

	outcome string
}

// Failure builds a failed Result.
func Failure(err error) *Result {
	return &Result{Err: err, outcome: outcomeFor(err)}
}

// Outcome names how the frame was handled.
func (r *Result) Outcome() string { return r.outcome }

// Error returns the failure message, or "" on success.
func (r *Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type failurePayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	if !r.Success {
		msg := r.Error()
		if msg == "" {
			msg = "analysis failed"
		}
		return json.Marshal(failurePayload{Success: false, Error: msg})
	}

	type plain Result
	return json.Marshal((*plain)(r))
}
