// Package detector adapts body-landmark detection backends.
package detector

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/pose"
)

// ErrNoDetection is returned when the backend finds no body in the frame.
var ErrNoDetection = errors.New("no pose detected")

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("detector closed")

// Detector hands out scoped access to a detection backend.
type Detector interface {
	// Acquire blocks until the backend is available or ctx is done.
	// Every successful Acquire must be paired with Handle.Release.
	Acquire(ctx context.Context) (Handle, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Handle is exclusive access to the backend for one analysis call.
type Handle interface {
	// Detect returns the raw landmarks found in frame, in topology order.
	// The slice length is whatever the backend produced; callers validate it.
	// Returns ErrNoDetection when no body is found.
	Detect(frame *gocv.Mat) ([]pose.Point3D, error)

	// Release returns the backend. Calling it more than once is a no-op.
	Release()
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleTimeout stops the backend process after this long without use.
	IdleTimeout time.Duration

	// ScriptPath overrides the pose service script lookup.
	ScriptPath string

	// PythonPath overrides the interpreter lookup.
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
