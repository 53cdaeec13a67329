package render

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/pose"
)

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"pushups":       "Pushups",
		"jumping_jacks": "Jumping_Jacks",
		"unknown":       "Unknown",
		"PULLUPS":       "Pullups",
		"pushup2x":      "Pushup2X",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), in)
	}
}

func TestCounterText(t *testing.T) {
	assert.Equal(t, "Jumping_Jacks: 3", CounterText("jumping_jacks", 3))
	assert.Equal(t, "Pushups: 0", CounterText("pushups", 0))
}

func TestToPixel(t *testing.T) {
	pt, ok := toPixel(pose.Point3D{X: 0.5, Y: 0.25}, 640, 480)
	require.True(t, ok)
	assert.Equal(t, image.Pt(320, 120), pt)

	pt, ok = toPixel(pose.Point3D{X: 1, Y: 1}, 640, 480)
	require.True(t, ok)
	assert.Equal(t, image.Pt(639, 479), pt)

	_, ok = toPixel(pose.Point3D{X: -0.1, Y: 0.5}, 640, 480)
	assert.False(t, ok)
	_, ok = toPixel(pose.Point3D{X: 0.5, Y: 1.2}, 640, 480)
	assert.False(t, ok)
}

func TestAnnotate(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	out := Annotate(frame, detector.ArmsExtendedLandmarks(), CounterText("pushups", 1), "pushups_up")
	defer out.Close()

	require.False(t, out.Empty())
	assert.Equal(t, frame.Rows(), out.Rows())
	assert.Equal(t, frame.Cols(), out.Cols())

	// Left hip (352,264) to left knee (352,345) is a vertical connection.
	px := out.GetVecbAt(305, 352)
	assert.Equal(t, []uint8{ConnectionColor.B, ConnectionColor.G, ConnectionColor.R}, []uint8{px[0], px[1], px[2]})

	// The source frame is untouched.
	src := frame.GetVecbAt(305, 352)
	assert.Equal(t, []uint8{0, 0, 0}, []uint8{src[0], src[1], src[2]})
}

func TestSkeleton_EmptyFrame(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	assert.NotPanics(t, func() {
		Skeleton(&empty, detector.ArmsBentLandmarks())
		Text(&empty, "Pushups: 0", "pushups_down")
	})
}
