// Package app wires the repcount components together and runs them.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/analyzer"
	"github.com/ayusman/repcount/internal/classifier"
	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/server"
	"github.com/ayusman/repcount/internal/session"
)

// ShutdownTimeout bounds the graceful HTTP shutdown.
const ShutdownTimeout = 10 * time.Second

// Activity is the latest completed rep seen by the service.
type Activity struct {
	Exercise string
	Reps     int
	At       time.Time
}

// App owns the long-lived components of the service.
type App struct {
	config     *config.Config
	metrics    *metrics.Manager
	detector   detector.Detector
	classifier classifier.Classifier
	sessions   *session.Registry
	analyzer   *analyzer.Analyzer
	server     *server.Server

	mu         sync.RWMutex
	activity   Activity
	onActivity func(Activity)
}

// Option configures an App.
type Option func(*App)

// WithDetector replaces the MediaPipe backend.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithMetrics sets the metrics manager. Without it a default manager is
// created when metrics are enabled in the config.
func WithMetrics(m *metrics.Manager) Option {
	return func(a *App) { a.metrics = m }
}

// New builds the component graph described by cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.metrics == nil && cfg.MetricsEnabled {
		a.metrics = metrics.NewDefaultManager()
	}

	if a.detector == nil {
		d, err := detector.NewMediaPipeDetector(detector.Config{
			MinConfidence:   cfg.MinDetectionConfidence,
			MinTrackingConf: cfg.MinTrackingConfidence,
			IdleTimeout:     cfg.DetectorIdleTimeout,
			ScriptPath:      cfg.DetectorScript,
			PythonPath:      cfg.DetectorPython,
		})
		if err != nil {
			return nil, fmt.Errorf("pose detector: %w", err)
		}
		a.detector = d
	}

	a.classifier = classifier.LoadOrFallback(cfg.ModelDir)

	a.sessions = session.NewRegistry(cfg.WindowSize, cfg.SessionIdleTimeout)
	if a.metrics != nil {
		a.sessions.OnChange = a.metrics.SetSessions
		a.metrics.SetSessions(a.sessions.Len())
	}

	a.analyzer = analyzer.New(a.detector, a.classifier,
		analyzer.WithRecorder(a),
		analyzer.WithNormalizer(pose.Normalizer{TorsoSizeMultiplier: cfg.TorsoSizeMultiplier}),
	)

	a.server = server.New(server.Config{
		StaticDir:      cfg.StaticDir,
		Analyzer:       a.analyzer,
		Sessions:       a.sessions,
		Metrics:        a.metrics,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})
	return a, nil
}

// Frame implements analyzer.Recorder.
func (a *App) Frame(outcome string, elapsed time.Duration) {
	if a.metrics != nil {
		a.metrics.Frame(outcome, elapsed)
	}
}

// Rep implements analyzer.Recorder.
func (a *App) Rep(exercise string) {
	if a.metrics != nil {
		a.metrics.Rep(exercise)
	}

	a.mu.Lock()
	a.activity = Activity{
		Exercise: exercise,
		Reps:     a.activity.Reps + 1,
		At:       time.Now(),
	}
	act, fn := a.activity, a.onActivity
	a.mu.Unlock()

	if fn != nil {
		fn(act)
	}
}

// OnActivity registers fn to be called after every completed rep.
func (a *App) OnActivity(fn func(Activity)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onActivity = fn
}

// LastActivity returns the latest completed rep.
func (a *App) LastActivity() Activity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.activity
}

// Run serves HTTP and prunes idle sessions until ctx is cancelled, then
// shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sessions.Run(ctx, a.config.SessionPruneInterval)
	}()

	if a.classifier.Fallback() {
		log.Warn("running without a trained model: poses are detected but reps are not counted")
	}

	if a.metrics != nil {
		a.metrics.GaugeLifeSignal.Set(1)
		defer a.metrics.GaugeLifeSignal.Set(0)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe(a.config.Addr())
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			err = fmt.Errorf("http server: %w", err)
		}
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer done()
	if serr := a.server.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, fmt.Errorf("shutdown: %w", serr))
	}
	wg.Wait()

	if cerr := a.detector.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close detector: %w", cerr))
	}
	log.Info("stopped")
	return err
}

// ResetDefault zeroes every counter of the default session and clears the
// last activity.
func (a *App) ResetDefault() error {
	a.mu.Lock()
	a.activity = Activity{}
	a.mu.Unlock()

	s := a.sessions.Default()
	var errs []error
	for name := range s.Stats().Counters {
		errs = append(errs, s.Reset(name))
	}
	return errors.Join(errs...)
}

// Sessions returns the session registry.
func (a *App) Sessions() *session.Registry {
	return a.sessions
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Fallback reports whether no trained model is loaded.
func (a *App) Fallback() bool {
	return a.classifier.Fallback()
}
