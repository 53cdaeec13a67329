package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/pose"
)

const scriptName = "pose_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// One handle is outstanding at a time; the process is shared between calls.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	pythonPath string

	// sem holds a token while a handle is outstanding.
	sem    chan struct{}
	closed chan struct{}
	once   sync.Once

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findPoseScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", scriptName)
	}

	pythonPath := config.PythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		pythonPath: pythonPath,
		sem:        make(chan struct{}, 1),
		closed:     make(chan struct{}),
	}, nil
}

// Acquire waits for exclusive use of the subprocess.
func (d *MediaPipeDetector) Acquire(ctx context.Context) (Handle, error) {
	select {
	case <-d.closed:
		return nil, ErrClosed
	default:
	}

	select {
	case d.sem <- struct{}{}:
	case <-d.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	d.mu.Lock()
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.mu.Unlock()

	return &mediapipeHandle{d: d}, nil
}

// Close shuts down the Python process. Outstanding handles stay valid until released.
func (d *MediaPipeDetector) Close() error {
	d.once.Do(func() { close(d.closed) })

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

type mediapipeHandle struct {
	d    *MediaPipeDetector
	once sync.Once
}

func (h *mediapipeHandle) Detect(frame *gocv.Mat) ([]pose.Point3D, error) {
	return h.d.detect(frame)
}

func (h *mediapipeHandle) Release() {
	h.once.Do(func() {
		h.d.mu.Lock()
		h.d.resetIdleTimer()
		h.d.mu.Unlock()
		<-h.d.sem
	})
}

func (d *MediaPipeDetector) detect(frame *gocv.Mat) ([]pose.Point3D, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("detect: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		d.abort()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.abort()
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.abort()
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseResponse(line)
}

// parseResponse decodes one service reply line.
func parseResponse(line []byte) ([]pose.Point3D, error) {
	var response struct {
		Landmarks []pose.Point3D `json:"landmarks"`
		Error     string         `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("pose service: %s", response.Error)
	}
	if len(response.Landmarks) == 0 {
		return nil, ErrNoDetection
	}
	return response.Landmarks, nil
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.pythonPath, d.scriptPath,
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	log.WithField("pid", d.cmd.Process.Pid).Info("pose service started")

	return nil
}

// abort kills a process whose pipe is in an unknown state so the next call restarts it.
func (d *MediaPipeDetector) abort() {
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	if err := d.shutdown(); err != nil {
		log.WithError(err).Debug("pose service exited")
	}
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

// resetIdleTimer must be called with mu held.
func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	if d.config.IdleTimeout <= 0 || !d.started {
		return
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		// Skip if a handle is outstanding; its Release re-arms the timer.
		select {
		case d.sem <- struct{}{}:
		default:
			return
		}
		defer func() { <-d.sem }()

		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			log.WithError(err).Debug("pose service idle shutdown")
		}
	})
}

func findPoseScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".repcount", "scripts", scriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".repcount/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
