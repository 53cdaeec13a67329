package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayusman/repcount/internal/pose"
)

func TestParseResponse(t *testing.T) {
	t.Run("landmarks", func(t *testing.T) {
		points, err := parseResponse([]byte(`{"landmarks":[{"x":0.1,"y":0.2,"z":-0.3},{"x":1,"y":1,"z":0}]}` + "\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(points) != 2 {
			t.Fatalf("expected 2 points, got %d", len(points))
		}
		if points[0] != (pose.Point3D{X: 0.1, Y: 0.2, Z: -0.3}) {
			t.Errorf("unexpected first point %+v", points[0])
		}
	})

	t.Run("no body", func(t *testing.T) {
		for _, line := range []string{`{"landmarks":[]}`, `{"landmarks":null}`, `{}`} {
			_, err := parseResponse([]byte(line))
			if !errors.Is(err, ErrNoDetection) {
				t.Errorf("%s: expected ErrNoDetection, got %v", line, err)
			}
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"error":"bad frame"}`))
		if err == nil || errors.Is(err, ErrNoDetection) {
			t.Errorf("expected service error, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := parseResponse([]byte("not json\n")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestMediaPipeDetector_AcquireSerializes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScriptPath = "unused.py"
	cfg.PythonPath = "python3"

	d, err := NewMediaPipeDetector(cfg)
	if err != nil {
		t.Fatalf("NewMediaPipeDetector: %v", err)
	}

	h, err := d.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Acquire should wait for release, got %v", err)
	}

	h.Release()
	h.Release() // idempotent

	h2, err := d.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	h2.Release()

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := d.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMediaPipeDetector_EmptyFrame(t *testing.T) {
	d, err := NewMediaPipeDetector(Config{ScriptPath: "unused.py", PythonPath: "python3"})
	if err != nil {
		t.Fatalf("NewMediaPipeDetector: %v", err)
	}
	defer d.Close()

	h, err := d.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer h.Release()

	if _, err := h.Detect(nil); err == nil {
		t.Error("expected error for nil frame")
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()

	t.Run("no landmarks configured", func(t *testing.T) {
		h, err := m.Acquire(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		defer h.Release()

		if _, err := h.Detect(nil); !errors.Is(err, ErrNoDetection) {
			t.Errorf("expected ErrNoDetection, got %v", err)
		}
	})

	t.Run("sequence repeats last", func(t *testing.T) {
		m.SetSequence(ArmsExtendedLandmarks(), nil, ArmsBentLandmarks())
		h, _ := m.Acquire(context.Background())
		defer h.Release()

		first, err := h.Detect(nil)
		if err != nil || len(first) != pose.NumLandmarks {
			t.Fatalf("first detect: %d points, err %v", len(first), err)
		}
		if _, err := h.Detect(nil); !errors.Is(err, ErrNoDetection) {
			t.Errorf("nil entry should be ErrNoDetection, got %v", err)
		}
		for i := 0; i < 2; i++ {
			got, err := h.Detect(nil)
			if err != nil {
				t.Fatal(err)
			}
			if got[pose.LeftWrist] != ArmsBentLandmarks()[pose.LeftWrist] {
				t.Errorf("call %d: expected bent arms", i)
			}
		}
	})

	t.Run("error", func(t *testing.T) {
		boom := errors.New("boom")
		m.SetError(boom)
		defer m.SetError(nil)

		h, _ := m.Acquire(context.Background())
		defer h.Release()
		if _, err := h.Detect(nil); !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := m.Acquire(ctx); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	if m.Acquired() != m.Released() {
		t.Errorf("acquired %d handles, released %d", m.Acquired(), m.Released())
	}
}

func TestFixtures(t *testing.T) {
	for name, points := range map[string][]pose.Point3D{
		"extended": ArmsExtendedLandmarks(),
		"bent":     ArmsBentLandmarks(),
	} {
		t.Run(name, func(t *testing.T) {
			s, err := pose.NewSample(points)
			if err != nil {
				t.Fatalf("NewSample: %v", err)
			}
			if _, err := pose.NewNormalizer().Normalize(s); err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			for i, p := range points {
				if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
					t.Errorf("landmark %d out of frame: %+v", i, p)
				}
			}
		})
	}
}
