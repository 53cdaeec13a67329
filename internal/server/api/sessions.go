package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/repcount/internal/session"
)

// SessionsHandler creates and deletes counting sessions.
type SessionsHandler struct {
	sessions *session.Registry
}

// NewSessionsHandler creates a new SessionsHandler with the given registry.
func NewSessionsHandler(sessions *session.Registry) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

// Create handles POST /api/exercise/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: s.ID()})
}

// Delete handles DELETE /api/exercise/sessions/{id}.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
