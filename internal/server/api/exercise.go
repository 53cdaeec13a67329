package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/analyzer"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/session"
)

// ExerciseHandler serves frame analysis, counter resets and stats.
type ExerciseHandler struct {
	analyzer *analyzer.Analyzer
	sessions *session.Registry
	timeout  time.Duration
	maxBody  int64
}

// NewExerciseHandler creates an ExerciseHandler. A zero timeout leaves the
// request context as is.
func NewExerciseHandler(a *analyzer.Analyzer, sessions *session.Registry, timeout time.Duration, maxBody int64) *ExerciseHandler {
	return &ExerciseHandler{
		analyzer: a,
		sessions: sessions,
		timeout:  timeout,
		maxBody:  maxBody,
	}
}

type analyzeRequest struct {
	Image        string `json:"image"`
	ExerciseType string `json:"exercise_type"`
	SessionID    string `json:"session_id"`
}

type resetRequest struct {
	ExerciseType string `json:"exercise_type"`
	SessionID    string `json:"session_id"`
}

// Analyze handles POST /api/exercise/analyze. Analysis failures are reported
// in the body with status 200.
func (h *ExerciseHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, ok := h.session(w, req.SessionID)
	if !ok {
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res := h.analyzer.Analyze(ctx, s, req.Image, req.ExerciseType)
	if !res.Success {
		log.WithFields(log.Fields{
			"session": s.ID(),
			"outcome": res.Outcome(),
		}).Debugf("analysis failed: %s", res.Error())
	}
	writeJSON(w, http.StatusOK, res)
}

// Reset handles POST /api/exercise/reset.
func (h *ExerciseHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExerciseType == "" {
		req.ExerciseType = analyzer.DefaultExercise
	}

	s, ok := h.session(w, req.SessionID)
	if !ok {
		return
	}

	if err := s.Reset(req.ExerciseType); err != nil {
		if errors.Is(err, exercise.ErrUnknownExercise) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("%s counter reset", req.ExerciseType),
	})
}

type statsResponse struct {
	exercise.Stats
	FormTips map[string][]string `json:"form_tips"`
}

// Stats handles GET /api/exercise/stats. The reply carries the form tips of
// every tracked exercise next to the counters.
func (h *ExerciseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r.URL.Query().Get("session_id"))
	if !ok {
		return
	}

	tips := make(map[string][]string, len(exercise.All))
	for _, e := range exercise.All {
		tips[string(e)] = exercise.FormTips(e)
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: s.Stats(), FormTips: tips})
}

// session resolves id, writing a 404 when it is unknown.
func (h *ExerciseHandler) session(w http.ResponseWriter, id string) (*session.Session, bool) {
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return s, true
}
