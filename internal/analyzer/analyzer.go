// Package analyzer runs one frame through detection, classification,
// smoothing and counting, and assembles the result payload.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/classifier"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/feature"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/render"
	"github.com/ayusman/repcount/internal/session"
)

// DefaultExercise is used when a request names no exercise.
const DefaultExercise = "pushups"

// Recorder receives per-frame telemetry.
type Recorder interface {
	Frame(outcome string, elapsed time.Duration)
	Rep(exercise string)
}

type nopRecorder struct{}

func (nopRecorder) Frame(string, time.Duration) {}
func (nopRecorder) Rep(string)                  {}

// Analyzer is safe for concurrent use; per-user state lives in the session.
type Analyzer struct {
	detector   detector.Detector
	classifier classifier.Classifier
	normalizer pose.Normalizer
	embedder   *feature.Embedder
	recorder   Recorder
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRecorder reports frame outcomes and completed reps to r.
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithNormalizer overrides the landmark normalizer.
func WithNormalizer(n pose.Normalizer) Option {
	return func(a *Analyzer) { a.normalizer = n }
}

// New creates an Analyzer over a detector and a classifier.
func New(d detector.Detector, c classifier.Classifier, opts ...Option) *Analyzer {
	if c == nil {
		c = classifier.NewFallback()
	}
	a := &Analyzer{
		detector:   d,
		classifier: c,
		normalizer: pose.NewNormalizer(),
		embedder:   feature.NewEmbedder(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fallback reports whether the analyzer runs without a trained classifier.
func (a *Analyzer) Fallback() bool { return a.classifier.Fallback() }

// Analyze processes one base64 image for the given session. It never
// returns nil and never panics; failures come back as a failed Result.
func (a *Analyzer) Analyze(ctx context.Context, s *session.Session, image, exerciseType string) (res *Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("exercise analysis panicked")
			res = Failure(fmt.Errorf("analysis failed: %v", r))
		}
		a.recorder.Frame(res.outcome, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return Failure(err)
	}
	if s == nil {
		return Failure(errors.New("no session"))
	}
	if exerciseType == "" {
		exerciseType = DefaultExercise
	}

	frame, err := DecodeImage(image)
	if err != nil {
		return Failure(err)
	}
	defer frame.Close()

	points, err := a.detect(ctx, &frame)
	if err != nil {
		return Failure(err)
	}

	sample, err := pose.NewSample(points)
	if err != nil {
		return Failure(err)
	}

	if a.classifier.Fallback() {
		return a.fallback(frame, sample, exerciseType)
	}

	normalized, err := a.normalizer.Normalize(sample)
	if err != nil {
		return Failure(err)
	}

	label, err := classifier.Classify(a.classifier, a.embedder.Embed(normalized))
	if err != nil {
		log.WithError(err).Warn("classification failed, returning fallback result")
		return a.fallback(frame, sample, exerciseType)
	}

	// The frame only counts once its overlay has been rendered and encoded.
	var encoded string
	u, err := s.ObserveWith(label, func(u session.Update) error {
		var err error
		encoded, err = a.annotate(frame, sample, render.CounterText(string(u.Exercise), u.RepCount), u.Confirmed)
		return err
	})
	if err != nil {
		return Failure(err)
	}

	if u.RepCompleted {
		a.recorder.Rep(string(u.Exercise))
		log.WithFields(log.Fields{
			"session":  s.ID(),
			"exercise": u.Exercise,
			"reps":     u.RepCount,
		}).Debug("rep completed")
	}

	return &Result{
		Success:        true,
		ExerciseType:   string(u.Exercise),
		CurrentState:   u.Confirmed,
		RepCount:       u.RepCount,
		Feedback:       u.Feedback,
		FormScore:      u.FormScore,
		AnnotatedImage: encoded,
		Keypoints:      sample.Keypoints(),
		outcome:        OutcomeSuccess,
	}
}

// detect holds a detector handle for the duration of one detection.
func (a *Analyzer) detect(ctx context.Context, frame *gocv.Mat) ([]pose.Point3D, error) {
	h, err := a.detector.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire detector: %w", err)
	}
	defer h.Release()

	return h.Detect(frame)
}

// fallback reports a detected pose without touching session state.
func (a *Analyzer) fallback(frame gocv.Mat, sample *pose.Sample, exerciseType string) *Result {
	encoded, err := a.annotate(frame, sample, render.CounterText(exerciseType, 0), exerciseType+"_"+classifier.FallbackLabel)
	if err != nil {
		return Failure(err)
	}

	return &Result{
		Success:        true,
		ExerciseType:   exerciseType,
		CurrentState:   classifier.FallbackLabel,
		RepCount:       0,
		Feedback:       exercise.FallbackFeedback,
		FormScore:      exercise.FallbackFormScore,
		AnnotatedImage: encoded,
		Keypoints:      sample.Keypoints(),
		outcome:        OutcomeFallback,
	}
}

func (a *Analyzer) annotate(frame gocv.Mat, sample *pose.Sample, counter, label string) (string, error) {
	annotated := render.Annotate(frame, sample.Points[:], counter, label)
	defer annotated.Close()
	return EncodeImage(annotated)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrInputDecode):
		return OutcomeInvalidInput
	case errors.Is(err, detector.ErrNoDetection):
		return OutcomeNoDetection
	default:
		return OutcomeError
	}
}
