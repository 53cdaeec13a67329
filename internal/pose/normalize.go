package pose

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultTorsoSizeMultiplier scales the widest x/y extent into the pose size.
	DefaultTorsoSizeMultiplier = 2.5
	// UnitSize is the size a normalized pose is scaled to.
	UnitSize = 100.0

	minPoseSize = 1e-12
)

// ErrDegeneratePose is returned when all landmarks collapse onto the pose center.
var ErrDegeneratePose = errors.New("degenerate pose: landmarks have no spatial extent")

// Normalizer removes translation and scale from a pose sample.
type Normalizer struct {
	TorsoSizeMultiplier float64
}

// NewNormalizer creates a Normalizer with the default torso multiplier.
func NewNormalizer() Normalizer {
	return Normalizer{TorsoSizeMultiplier: DefaultTorsoSizeMultiplier}
}

// Normalize returns a new Sample with the hip midpoint at the origin, scaled so
// the pose size maps to UnitSize. The input is not modified.
func (n Normalizer) Normalize(s *Sample) (*Sample, error) {
	if s == nil {
		return nil, ErrShapeMismatch
	}

	center := Center(s)

	normalized := &Sample{}
	for i, p := range s.Points {
		normalized.Points[i] = fromVec(r3.Sub(p.Vec(), center))
	}

	size := n.Size(normalized)
	if size < minPoseSize || math.IsNaN(size) {
		return nil, ErrDegeneratePose
	}

	scale := UnitSize / size
	for i, p := range normalized.Points {
		normalized.Points[i] = fromVec(r3.Scale(scale, p.Vec()))
	}

	return normalized, nil
}

// Center is the midpoint between the two hips.
func Center(s *Sample) r3.Vec {
	return r3.Scale(0.5, r3.Add(s.Points[LeftHip].Vec(), s.Points[RightHip].Vec()))
}

// Size is the larger of the multiplied and the raw maximum x/y distance from the
// hip center.
func (n Normalizer) Size(s *Sample) float64 {
	center := Center(s)
	center.Z = 0

	dists := make([]float64, NumLandmarks)
	for i, p := range s.Points {
		p.Z = 0
		dists[i] = r3.Norm(r3.Sub(p.Vec(), center))
	}
	maxDist := floats.Max(dists)

	return math.Max(maxDist*n.TorsoSizeMultiplier, maxDist)
}
