package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results and counts handle use.
type MockDetector struct {
	mu       sync.Mutex
	results  [][]pose.Point3D
	next     int
	err      error
	acquired int
	released int
	detects  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetLandmarks makes every Detect call return points.
func (m *MockDetector) SetLandmarks(points []pose.Point3D) {
	m.SetSequence(points)
}

// SetSequence makes successive Detect calls return each entry in turn,
// repeating the last one once exhausted. A nil entry yields ErrNoDetection.
func (m *MockDetector) SetSequence(results ...[]pose.Point3D) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Acquire always succeeds unless ctx is already done.
func (m *MockDetector) Acquire(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.acquired++
	m.mu.Unlock()
	return &mockHandle{m: m}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Acquired returns how many handles were handed out.
func (m *MockDetector) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// Released returns how many handles were released.
func (m *MockDetector) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Detections returns how many Detect calls were made.
func (m *MockDetector) Detections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detects
}

type mockHandle struct {
	m    *MockDetector
	once sync.Once
}

func (h *mockHandle) Detect(frame *gocv.Mat) ([]pose.Point3D, error) {
	m := h.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detects++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.results) == 0 {
		return nil, ErrNoDetection
	}

	i := m.next
	if i >= len(m.results) {
		i = len(m.results) - 1
	} else {
		m.next++
	}
	if m.results[i] == nil {
		return nil, ErrNoDetection
	}

	out := make([]pose.Point3D, len(m.results[i]))
	copy(out, m.results[i])
	return out, nil
}

func (h *mockHandle) Release() {
	h.once.Do(func() {
		h.m.mu.Lock()
		h.m.released++
		h.m.mu.Unlock()
	})
}

// standingLandmarks returns a front-facing standing body in image coordinates.
func standingLandmarks() []pose.Point3D {
	points := make([]pose.Point3D, pose.NumLandmarks)

	// Face
	points[pose.Nose] = pose.Point3D{X: 0.50, Y: 0.15, Z: -0.10}
	points[pose.LeftEyeInner] = pose.Point3D{X: 0.52, Y: 0.13, Z: -0.09}
	points[pose.LeftEye] = pose.Point3D{X: 0.53, Y: 0.13, Z: -0.09}
	points[pose.LeftEyeOuter] = pose.Point3D{X: 0.54, Y: 0.13, Z: -0.09}
	points[pose.RightEyeInner] = pose.Point3D{X: 0.48, Y: 0.13, Z: -0.09}
	points[pose.RightEye] = pose.Point3D{X: 0.47, Y: 0.13, Z: -0.09}
	points[pose.RightEyeOuter] = pose.Point3D{X: 0.46, Y: 0.13, Z: -0.09}
	points[pose.LeftEar] = pose.Point3D{X: 0.56, Y: 0.14, Z: -0.05}
	points[pose.RightEar] = pose.Point3D{X: 0.44, Y: 0.14, Z: -0.05}
	points[pose.MouthLeft] = pose.Point3D{X: 0.52, Y: 0.18, Z: -0.09}
	points[pose.MouthRight] = pose.Point3D{X: 0.48, Y: 0.18, Z: -0.09}

	// Torso
	points[pose.LeftShoulder] = pose.Point3D{X: 0.58, Y: 0.30}
	points[pose.RightShoulder] = pose.Point3D{X: 0.42, Y: 0.30}
	points[pose.LeftHip] = pose.Point3D{X: 0.55, Y: 0.55}
	points[pose.RightHip] = pose.Point3D{X: 0.45, Y: 0.55}

	// Legs
	points[pose.LeftKnee] = pose.Point3D{X: 0.55, Y: 0.72}
	points[pose.RightKnee] = pose.Point3D{X: 0.45, Y: 0.72}
	points[pose.LeftAnkle] = pose.Point3D{X: 0.55, Y: 0.88}
	points[pose.RightAnkle] = pose.Point3D{X: 0.45, Y: 0.88}
	points[pose.LeftHeel] = pose.Point3D{X: 0.55, Y: 0.90, Z: 0.02}
	points[pose.RightHeel] = pose.Point3D{X: 0.45, Y: 0.90, Z: 0.02}
	points[pose.LeftFootIndex] = pose.Point3D{X: 0.56, Y: 0.92, Z: -0.04}
	points[pose.RightFootIndex] = pose.Point3D{X: 0.44, Y: 0.92, Z: -0.04}

	// Elbows hang below the shoulders
	points[pose.LeftElbow] = pose.Point3D{X: 0.58, Y: 0.42}
	points[pose.RightElbow] = pose.Point3D{X: 0.42, Y: 0.42}

	return points
}

// setHands places wrists and the hand points around them.
func setHands(points []pose.Point3D, left, right pose.Point3D) {
	points[pose.LeftWrist] = left
	points[pose.RightWrist] = right
	points[pose.LeftPinky] = pose.Point3D{X: left.X + 0.01, Y: left.Y + 0.02, Z: left.Z}
	points[pose.RightPinky] = pose.Point3D{X: right.X - 0.01, Y: right.Y + 0.02, Z: right.Z}
	points[pose.LeftIndex] = pose.Point3D{X: left.X, Y: left.Y + 0.03, Z: left.Z}
	points[pose.RightIndex] = pose.Point3D{X: right.X, Y: right.Y + 0.03, Z: right.Z}
	points[pose.LeftThumb] = pose.Point3D{X: left.X - 0.01, Y: left.Y + 0.02, Z: left.Z}
	points[pose.RightThumb] = pose.Point3D{X: right.X + 0.01, Y: right.Y + 0.02, Z: right.Z}
}

// ArmsExtendedLandmarks returns a 33-point pose with both arms hanging
// straight, giving elbow angles of 180 degrees.
func ArmsExtendedLandmarks() []pose.Point3D {
	points := standingLandmarks()
	setHands(points, pose.Point3D{X: 0.58, Y: 0.54}, pose.Point3D{X: 0.42, Y: 0.54})
	return points
}

// ArmsBentLandmarks returns a 33-point pose with forearms held out
// sideways, giving elbow angles of 90 degrees.
func ArmsBentLandmarks() []pose.Point3D {
	points := standingLandmarks()
	setHands(points, pose.Point3D{X: 0.68, Y: 0.42}, pose.Point3D{X: 0.32, Y: 0.42})
	return points
}
