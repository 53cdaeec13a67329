// Package server provides the HTTP server for the repetition tracking service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/analyzer"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/server/api"
	"github.com/ayusman/repcount/internal/session"
)

// Config holds the server configuration.
type Config struct {
	StaticDir      string
	Analyzer       *analyzer.Analyzer
	Sessions       *session.Registry
	Metrics        *metrics.Manager
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server represents the HTTP server for the repcount service.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(PanicRecovery(s.config.Metrics))
	if s.config.Metrics != nil {
		r.Use(RequestMetrics(s.config.Metrics))
		r.Handle("/metrics", s.config.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.Use(LogRequest())

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	// Exercise endpoints need both an analyzer and a session registry
	if s.config.Analyzer != nil && s.config.Sessions != nil {
		exerciseHandler := api.NewExerciseHandler(s.config.Analyzer, s.config.Sessions, s.config.RequestTimeout, s.config.MaxBodyBytes)
		sessionsHandler := api.NewSessionsHandler(s.config.Sessions)

		ex := r.PathPrefix("/api/exercise").Subrouter()
		ex.HandleFunc("/analyze", exerciseHandler.Analyze).Methods(http.MethodPost)
		ex.HandleFunc("/reset", exerciseHandler.Reset).Methods(http.MethodPost)
		ex.HandleFunc("/stats", exerciseHandler.Stats).Methods(http.MethodGet)
		ex.HandleFunc("/sessions", sessionsHandler.Create).Methods(http.MethodPost)
		ex.HandleFunc("/sessions/{id}", sessionsHandler.Delete).Methods(http.MethodDelete)

		streamHandler := NewStreamHandler(s.config.Analyzer, s.config.Sessions, s.config.Metrics, s.config.RequestTimeout, s.config.MaxBodyBytes)
		ex.Handle("/stream", streamHandler).Methods(http.MethodGet)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Analyzer != nil {
		response["model_loaded"] = !s.config.Analyzer.Fallback()
	}
	if s.config.Sessions != nil {
		response["sessions"] = s.config.Sessions.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()
	log.Infof("listening on %s", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
