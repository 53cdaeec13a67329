// Package metrics defines the Prometheus instruments of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterFrames             *prometheus.CounterVec
	CounterReps               *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter

	// gauges
	GaugeSessions   prometheus.Gauge
	GaugeStreams    prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistAnalyzeDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

func NewTestManager() *Manager {
	return NewManager("repcount", "test", prometheus.NewRegistry())
}

// NewDefaultManager registers on a fresh registry together with the Go
// runtime and process collectors.
func NewDefaultManager() *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewManager("repcount", "server", reg)
}

func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"route", "method", "status"})
	counterFrames := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames",
		Help:      "The total number of analyzed frames by outcome",
	}, []string{"outcome"})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of completed repetitions by exercise",
	}, []string{"exercise"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})

	gaugeSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions",
		Help:      "Current number of live sessions",
	})
	gaugeStreams := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "streams",
		Help:      "Current number of open websocket streams",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histReqDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds",
	})
	histAnalyzeDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
		Name:      "analyze_duration_seconds",
		Help:      "Duration of a single frame analysis in seconds",
	})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterFrames:             counterFrames,
		CounterReps:               counterReps,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		GaugeSessions:             gaugeSessions,
		GaugeStreams:              gaugeStreams,
		GaugeLifeSignal:           gaugeLifeSignal,
		HistRequestDuration:       histReqDuration,
		HistAnalyzeDuration:       histAnalyzeDuration,
		gatherer:                  reg,
	}
}

// Frame records one analyzed frame.
func (m *Manager) Frame(outcome string, elapsed time.Duration) {
	m.CounterFrames.WithLabelValues(outcome).Inc()
	m.HistAnalyzeDuration.Observe(elapsed.Seconds())
}

// Rep records one completed repetition.
func (m *Manager) Rep(exercise string) {
	m.CounterReps.WithLabelValues(exercise).Inc()
}

// SetSessions updates the live session gauge.
func (m *Manager) SetSessions(n int) {
	m.GaugeSessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
