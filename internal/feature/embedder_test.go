package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/repcount/internal/pose"
)

func armsSample(bent bool) *pose.Sample {
	s := &pose.Sample{}
	for i := range s.Points {
		s.Points[i] = pose.Point3D{X: 0.5, Y: 0.2 + float64(i)*0.01}
	}
	s.Points[pose.LeftShoulder] = pose.Point3D{X: 0.58, Y: 0.30}
	s.Points[pose.RightShoulder] = pose.Point3D{X: 0.42, Y: 0.30}
	s.Points[pose.LeftElbow] = pose.Point3D{X: 0.58, Y: 0.42}
	s.Points[pose.RightElbow] = pose.Point3D{X: 0.42, Y: 0.42}
	if bent {
		s.Points[pose.LeftWrist] = pose.Point3D{X: 0.68, Y: 0.42}
		s.Points[pose.RightWrist] = pose.Point3D{X: 0.32, Y: 0.42}
	} else {
		s.Points[pose.LeftWrist] = pose.Point3D{X: 0.58, Y: 0.54}
		s.Points[pose.RightWrist] = pose.Point3D{X: 0.42, Y: 0.54}
	}
	s.Points[pose.LeftHip] = pose.Point3D{X: 0.55, Y: 0.55}
	s.Points[pose.RightHip] = pose.Point3D{X: 0.45, Y: 0.55}
	s.Points[pose.LeftKnee] = pose.Point3D{X: 0.55, Y: 0.72}
	s.Points[pose.RightKnee] = pose.Point3D{X: 0.45, Y: 0.72}
	s.Points[pose.LeftAnkle] = pose.Point3D{X: 0.55, Y: 0.88}
	s.Points[pose.RightAnkle] = pose.Point3D{X: 0.45, Y: 0.88}
	return s
}

func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c r3.Vec
		want    float64
	}{
		{"right angle", r3.Vec{X: 1}, r3.Vec{}, r3.Vec{Y: 1}, 90},
		{"straight line", r3.Vec{X: -1}, r3.Vec{}, r3.Vec{X: 2}, 180},
		{"same direction", r3.Vec{X: 1}, r3.Vec{}, r3.Vec{X: 3}, 0},
		{"forty five", r3.Vec{X: 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1}, 45},
		{"zero length ray", r3.Vec{}, r3.Vec{}, r3.Vec{X: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b, tt.c)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.False(t, math.IsNaN(got))
		})
	}

	t.Run("clips floating point drift", func(t *testing.T) {
		a := r3.Vec{X: 1e-8, Y: 1}
		c := r3.Vec{X: 1e-8, Y: 1 + 1e-15}
		got := Angle(a, r3.Vec{}, c)
		assert.False(t, math.IsNaN(got))
		assert.InDelta(t, 0, got, 1e-4)
	})
}

func TestEmbedder_Embed(t *testing.T) {
	e := NewEmbedder()
	n := pose.NewNormalizer()

	t.Run("length is fixed", func(t *testing.T) {
		normalized, err := n.Normalize(armsSample(false))
		require.NoError(t, err)

		v := e.Embed(normalized)
		assert.Len(t, v.Slice(), 21)
	})

	t.Run("elbow angles follow arm shape", func(t *testing.T) {
		straight, err := n.Normalize(armsSample(false))
		require.NoError(t, err)
		bent, err := n.Normalize(armsSample(true))
		require.NoError(t, err)

		vs := e.Embed(straight)
		vb := e.Embed(bent)

		assert.InDelta(t, 180, vs[NumDistances+5], 1e-6)
		assert.InDelta(t, 180, vs[NumDistances+6], 1e-6)
		assert.InDelta(t, 90, vb[NumDistances+5], 1e-6)
		assert.InDelta(t, 90, vb[NumDistances+6], 1e-6)
	})

	t.Run("unknown landmark names yield zero", func(t *testing.T) {
		normalized, err := n.Normalize(armsSample(false))
		require.NoError(t, err)

		v := e.Embed(normalized)
		assert.Zero(t, v[NumDistances+2])
	})

	t.Run("distances are symmetric for a symmetric pose", func(t *testing.T) {
		normalized, err := n.Normalize(armsSample(false))
		require.NoError(t, err)

		v := e.Embed(normalized)
		assert.InDelta(t, v[0], v[1], 1e-9)
		assert.InDelta(t, v[2], v[3], 1e-9)
		assert.Greater(t, v[10], 0.0)
	})

	t.Run("nil sample is all zeros", func(t *testing.T) {
		assert.Equal(t, Vector{}, e.Embed(nil))
	})
}
