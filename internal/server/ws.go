package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/analyzer"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const writeWait = 10 * time.Second

// Stream message types.
const (
	msgSession = "session"
	msgFrame   = "frame"
	msgResult  = "result"
	msgReset   = "reset"
	msgError   = "error"
)

type streamRequest struct {
	Type         string `json:"type"`
	Image        string `json:"image"`
	ExerciseType string `json:"exercise_type"`
}

type streamReply struct {
	Type      string           `json:"type"`
	SessionID string           `json:"session_id,omitempty"`
	Success   *bool            `json:"success,omitempty"`
	Message   string           `json:"message,omitempty"`
	Error     string           `json:"error,omitempty"`
	Result    *analyzer.Result `json:"result,omitempty"`
}

// StreamHandler analyzes frames sent over a WebSocket. Each connection gets
// its own session, removed when the connection closes.
type StreamHandler struct {
	analyzer *analyzer.Analyzer
	sessions *session.Registry
	metrics  *metrics.Manager
	timeout  time.Duration
	maxBody  int64
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(a *analyzer.Analyzer, sessions *session.Registry, m *metrics.Manager, timeout time.Duration, maxBody int64) *StreamHandler {
	return &StreamHandler{
		analyzer: a,
		sessions: sessions,
		metrics:  m,
		timeout:  timeout,
		maxBody:  maxBody,
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()
	if h.maxBody > 0 {
		conn.SetReadLimit(h.maxBody)
	}

	s := h.sessions.Create()
	defer func() {
		if err := h.sessions.Delete(s.ID()); err != nil {
			log.WithError(err).Debug("remove stream session")
		}
	}()

	if h.metrics != nil {
		h.metrics.GaugeStreams.Inc()
		defer h.metrics.GaugeStreams.Dec()
	}

	logger := log.WithField("session", s.ID())
	logger.Debug("stream opened")
	defer logger.Debug("stream closed")

	if err := h.write(conn, streamReply{Type: msgSession, SessionID: s.ID()}); err != nil {
		return
	}

	for {
		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Debug("stream read")
			}
			return
		}

		if err := h.write(conn, h.handle(r.Context(), s, req)); err != nil {
			logger.WithError(err).Debug("stream write")
			return
		}
	}
}

func (h *StreamHandler) handle(ctx context.Context, s *session.Session, req streamRequest) streamReply {
	switch req.Type {
	case msgFrame:
		if h.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.timeout)
			defer cancel()
		}
		return streamReply{Type: msgResult, Result: h.analyzer.Analyze(ctx, s, req.Image, req.ExerciseType)}

	case msgReset:
		name := req.ExerciseType
		if name == "" {
			name = analyzer.DefaultExercise
		}
		ok := true
		if err := s.Reset(name); err != nil {
			ok = false
			return streamReply{Type: msgReset, Success: &ok, Error: err.Error()}
		}
		return streamReply{Type: msgReset, Success: &ok, Message: name + " counter reset"}

	default:
		return streamReply{Type: msgError, Error: "unknown message type: " + req.Type}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, reply streamReply) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(reply)
}
