// Package pose provides the body landmark topology and pose normalization.
package pose

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// LandmarkNames lists the landmark names in topology order.
var LandmarkNames = [NumLandmarks]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky_1", "right_pinky_1",
	"left_index_1", "right_index_1", "left_thumb_2", "right_thumb_2",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

var nameIndex = func() map[string]int {
	m := make(map[string]int, NumLandmarks)
	for i, name := range LandmarkNames {
		m[name] = i
	}
	return m
}()

// IndexOf returns the topology index of a named landmark.
func IndexOf(name string) (int, bool) {
	i, ok := nameIndex[name]
	return i, ok
}

// ErrShapeMismatch is returned when a detection does not carry exactly NumLandmarks points.
var ErrShapeMismatch = errors.New("invalid pose landmarks shape")

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec converts the point to a gonum vector.
func (p Point3D) Vec() r3.Vec {
	return r3.Vec(p)
}

func fromVec(v r3.Vec) Point3D {
	return Point3D(v)
}

// Sample is one frame's full set of body landmarks.
type Sample struct {
	Points [NumLandmarks]Point3D `json:"points"`
}

// NewSample validates the detector output and copies it into a Sample.
func NewSample(points []Point3D) (*Sample, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d landmarks, want %d", ErrShapeMismatch, len(points), NumLandmarks)
	}
	s := &Sample{}
	copy(s.Points[:], points)
	return s, nil
}

// Lookup returns the named landmark. Names outside the topology report false.
func (s *Sample) Lookup(name string) (Point3D, bool) {
	i, ok := IndexOf(name)
	if !ok {
		return Point3D{}, false
	}
	return s.Points[i], true
}

// KeypointNames is the 17-point subset reported to clients.
var KeypointNames = [17]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// Keypoints returns the named keypoint subset with raw coordinates.
func (s *Sample) Keypoints() map[string]Point3D {
	kp := make(map[string]Point3D, len(KeypointNames))
	for _, name := range KeypointNames {
		if p, ok := s.Lookup(name); ok {
			kp[name] = p
		}
	}
	return kp
}

// Connections are the skeleton edges drawn between landmarks.
var Connections = [][2]int{
	{Nose, LeftEyeInner}, {LeftEyeInner, LeftEye}, {LeftEye, LeftEyeOuter}, {LeftEyeOuter, LeftEar},
	{Nose, RightEyeInner}, {RightEyeInner, RightEye}, {RightEye, RightEyeOuter}, {RightEyeOuter, RightEar},
	{MouthLeft, MouthRight},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow}, {LeftElbow, LeftWrist},
	{LeftWrist, LeftPinky}, {LeftWrist, LeftIndex}, {LeftWrist, LeftThumb}, {LeftPinky, LeftIndex},
	{RightShoulder, RightElbow}, {RightElbow, RightWrist},
	{RightWrist, RightPinky}, {RightWrist, RightIndex}, {RightWrist, RightThumb}, {RightPinky, RightIndex},
	{LeftShoulder, LeftHip}, {RightShoulder, RightHip}, {LeftHip, RightHip},
	{LeftHip, LeftKnee}, {RightHip, RightKnee},
	{LeftKnee, LeftAnkle}, {RightKnee, RightAnkle},
	{LeftAnkle, LeftHeel}, {RightAnkle, RightHeel},
	{LeftHeel, LeftFootIndex}, {RightHeel, RightFootIndex},
	{LeftAnkle, LeftFootIndex}, {RightAnkle, RightFootIndex},
}
