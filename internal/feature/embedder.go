// Package feature turns a normalized pose into the geometric descriptor consumed by the classifier.
package feature

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/repcount/internal/pose"
)

// Descriptor layout.
const (
	NumDistances = 14
	NumAngles    = 7
	Size         = NumDistances + NumAngles
)

// Vector is the fixed-order descriptor: distances first, then angles in degrees.
type Vector [Size]float64

// Slice returns the vector as a slice, for callers that want one record.
func (v Vector) Slice() []float64 {
	return v[:]
}

type pair struct{ from, to string }

type triple struct{ from, mid, to string }

// The order matches the columns the classifier was trained on.
var distancePairs = [NumDistances]pair{
	{"left_shoulder", "left_wrist"},
	{"right_shoulder", "right_wrist"},
	{"left_hip", "left_ankle"},
	{"right_hip", "right_ankle"},
	{"left_hip", "left_wrist"},
	{"right_hip", "right_wrist"},
	{"left_shoulder", "left_ankle"},
	{"right_shoulder", "right_ankle"},
	{"left_hip", "right_wrist"},
	{"right_hip", "left_wrist"},
	{"left_elbow", "right_elbow"},
	{"left_knee", "right_knee"},
	{"left_wrist", "right_wrist"},
	{"left_ankle", "right_ankle"},
}

// mid_hip is not a detector landmark, so the knee-hip-knee column is always the
// zero placeholder; the shipped model was trained with it that way.
var angleTriples = [NumAngles]triple{
	{"right_elbow", "right_shoulder", "right_hip"},
	{"left_elbow", "left_shoulder", "left_hip"},
	{"right_knee", "mid_hip", "left_knee"},
	{"right_hip", "right_knee", "right_ankle"},
	{"left_hip", "left_knee", "left_ankle"},
	{"right_wrist", "right_elbow", "right_shoulder"},
	{"left_wrist", "left_elbow", "left_shoulder"},
}

// Embedder computes descriptors from normalized poses.
type Embedder struct{}

// NewEmbedder creates a new Embedder instance.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// Embed computes the descriptor. Landmarks missing from the topology produce a
// zero entry rather than an error.
func (e *Embedder) Embed(s *pose.Sample) Vector {
	var v Vector
	if s == nil {
		return v
	}

	for i, p := range distancePairs {
		v[i] = distanceByNames(s, p.from, p.to)
	}
	for i, t := range angleTriples {
		v[NumDistances+i] = angleByNames(s, t.from, t.mid, t.to)
	}

	return v
}

func distanceByNames(s *pose.Sample, from, to string) float64 {
	a, ok := s.Lookup(from)
	if !ok {
		return 0
	}
	b, ok := s.Lookup(to)
	if !ok {
		return 0
	}
	return r3.Norm(r3.Sub(a.Vec(), b.Vec()))
}

func angleByNames(s *pose.Sample, from, mid, to string) float64 {
	a, ok := s.Lookup(from)
	if !ok {
		return 0
	}
	b, ok := s.Lookup(mid)
	if !ok {
		return 0
	}
	c, ok := s.Lookup(to)
	if !ok {
		return 0
	}
	return Angle(a.Vec(), b.Vec(), c.Vec())
}

// Angle returns the angle at b between the rays b->a and b->c, in degrees.
// The cosine is clipped to [-1, 1]; a zero-length ray yields 0.
func Angle(a, b, c r3.Vec) float64 {
	v1 := r3.Sub(a, b)
	v2 := r3.Sub(c, b)

	norms := r3.Norm(v1) * r3.Norm(v2)
	if norms == 0 {
		return 0
	}

	cos := r3.Dot(v1, v2) / norms
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}
