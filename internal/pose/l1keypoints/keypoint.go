package l1keypoints

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrWrongKeypointCount is returned by NewFrame when the detector output
// does not carry exactly NumLandmarks keypoints.
var ErrWrongKeypointCount = errors.New("frame must carry exactly 33 keypoints")

// Vec3 is a 3D position or displacement in detector coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length. A zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Norm()
}

// Keypoint is one detected landmark: position plus detection confidence.
// Keypoints are plain values; copy them freely.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Position returns the keypoint coordinates as a Vec3.
func (k Keypoint) Position() Vec3 {
	return Vec3{X: k.X, Y: k.Y, Z: k.Z}
}

// WithPosition returns a copy of k moved to p, keeping its visibility.
func (k Keypoint) WithPosition(p Vec3) Keypoint {
	return Keypoint{X: p.X, Y: p.Y, Z: p.Z, Visibility: k.Visibility}
}

// Pose is the fixed-size keypoint array carried by every frame.
type Pose [NumLandmarks]Keypoint

// Frame is one detector output. Detected is false when the detector
// found no person in this frame; Pose is then the zero value.
type Frame struct {
	Timestamp time.Duration
	Detected  bool
	Pose      Pose
}

// NewFrame builds a Frame from a detector keypoint slice. A nil slice
// yields a no-pose frame.
func NewFrame(ts time.Duration, keypoints []Keypoint) (Frame, error) {
	if keypoints == nil {
		return Frame{Timestamp: ts}, nil
	}
	if len(keypoints) != NumLandmarks {
		return Frame{}, fmt.Errorf("%w: got %d", ErrWrongKeypointCount, len(keypoints))
	}
	f := Frame{Timestamp: ts, Detected: true}
	copy(f.Pose[:], keypoints)
	return f, nil
}

// HasPose reports whether the detector found a person in this frame.
func (f Frame) HasPose() bool {
	return f.Detected
}

// Seconds returns the frame timestamp in seconds.
func (f Frame) Seconds() float64 {
	return f.Timestamp.Seconds()
}
