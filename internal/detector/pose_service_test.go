package detector

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/testutil"
)

// stubMediaPipe stands in for the mediapipe package: every frame has no body.
const stubMediaPipe = `import types


class _Result:
    pose_landmarks = None


class _Pose:
    def __init__(self, **kwargs):
        pass

    def __enter__(self):
        return self

    def __exit__(self, *exc):
        return False

    def process(self, frame):
        return _Result()


solutions = types.SimpleNamespace(pose=types.SimpleNamespace(Pose=_Pose))
`

// poseServiceEnv prepares a PYTHONPATH holding the mediapipe stub and
// returns the script path. It skips when python3 with cv2 and numpy is missing.
func poseServiceEnv(t *testing.T) string {
	t.Helper()

	if err := exec.Command("python3", "-c", "import cv2, numpy").Run(); err != nil {
		t.Skipf("python3 with cv2 and numpy not available: %v", err)
	}

	script, err := filepath.Abs(filepath.Join("..", "..", "scripts", scriptName))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(script); err != nil {
		t.Fatalf("pose service script: %v", err)
	}

	stub := filepath.Join(t.TempDir(), "mediapipe")
	if err := os.MkdirAll(stub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stub, "__init__.py"), []byte(stubMediaPipe), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PYTHONPATH", filepath.Dir(stub))
	return script
}

func writeFrame(t *testing.T, w *bufio.Writer, data []byte) {
	t.Helper()
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
}

func TestPoseService_UndecodableFrameKeepsRunning(t *testing.T) {
	script := poseServiceEnv(t)

	cmd := exec.Command("python3", script)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}

	in := bufio.NewWriter(stdin)
	out := bufio.NewReader(stdout)

	writeFrame(t, in, []byte("definitely not a jpeg"))
	line, err := out.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read reply to bad frame: %v", err)
	}
	if _, err := parseResponse(line); err == nil || errors.Is(err, ErrNoDetection) {
		t.Errorf("bad frame: expected service error, got %v (%s)", err, line)
	}

	jpeg, err := base64.StdEncoding.DecodeString(testutil.FrameBase64(t))
	if err != nil {
		t.Fatal(err)
	}
	writeFrame(t, in, jpeg)
	line, err = out.ReadBytes('\n')
	if err != nil {
		t.Fatalf("service stopped after a bad frame: %v", err)
	}
	if _, err := parseResponse(line); !errors.Is(err, ErrNoDetection) {
		t.Errorf("good frame: expected ErrNoDetection, got %v (%s)", err, line)
	}

	stdin.Close()
	if err := cmd.Wait(); err != nil {
		t.Errorf("service exit: %v", err)
	}
}

func TestMediaPipeDetector_PoseService(t *testing.T) {
	script := poseServiceEnv(t)

	d, err := NewMediaPipeDetector(Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ScriptPath:      script,
		PythonPath:      "python3",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 2; i++ {
		h, err := d.Acquire(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		_, err = h.Detect(&frame)
		h.Release()
		if !errors.Is(err, ErrNoDetection) {
			t.Fatalf("detect %d: expected ErrNoDetection, got %v", i, err)
		}
	}
}
