package l3kinematics

import (
	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
)

// motionSample is one timestamped smoothed position.
type motionSample struct {
	pos l1keypoints.Vec3
	t   float64 // seconds
}

// MotionAnalyzer keeps a bounded, timestamped position history per
// landmark and derives velocity (units/s) and acceleration (units/s²)
// from the newest samples.
//
// Not safe for concurrent use.
type MotionAnalyzer struct {
	history [l1keypoints.NumLandmarks]l1keypoints.Ring[motionSample]
}

// NewMotionAnalyzer returns an analyzer holding windowSize samples per
// landmark. Windows below 3 never yield accelerations.
func NewMotionAnalyzer(windowSize int) *MotionAnalyzer {
	if windowSize < 1 {
		windowSize = 1
	}
	m := &MotionAnalyzer{}
	for i := range m.history {
		m.history[i] = l1keypoints.NewRing[motionSample](windowSize)
	}
	return m
}

// Update records the smoothed pose observed at t seconds.
func (m *MotionAnalyzer) Update(pose l1keypoints.Pose, t float64) {
	for i, kp := range pose {
		m.history[i].Push(motionSample{pos: kp.Position(), t: t})
	}
}

// Reset drops all history.
func (m *MotionAnalyzer) Reset() {
	for i := range m.history {
		m.history[i].Clear()
	}
}

// Velocity returns (p2-p1)/(t2-t1), or the zero vector when t2-t1 ≤ 0.
func Velocity(p1, p2 l1keypoints.Vec3, t1, t2 float64) l1keypoints.Vec3 {
	dt := t2 - t1
	if dt <= 0 {
		return l1keypoints.Vec3{}
	}
	return p2.Sub(p1).Scale(1 / dt)
}

// Acceleration returns (v2-v1)/dt, or the zero vector when dt ≤ 0.
func Acceleration(v1, v2 l1keypoints.Vec3, dt float64) l1keypoints.Vec3 {
	if dt <= 0 {
		return l1keypoints.Vec3{}
	}
	return v2.Sub(v1).Scale(1 / dt)
}

// Velocities returns the latest velocity of every landmark with at least
// two samples.
func (m *MotionAnalyzer) Velocities() map[l1keypoints.Landmark]l1keypoints.Vec3 {
	out := make(map[l1keypoints.Landmark]l1keypoints.Vec3)
	for i := range m.history {
		h := &m.history[i]
		if h.Len() < 2 {
			continue
		}
		prev, last := h.At(-2), h.At(-1)
		out[l1keypoints.Landmark(i)] = Velocity(prev.pos, last.pos, prev.t, last.t)
	}
	return out
}

// Accelerations returns the latest acceleration of every landmark with at
// least three samples. The velocity change is divided by the interval
// between the two newest samples.
func (m *MotionAnalyzer) Accelerations() map[l1keypoints.Landmark]l1keypoints.Vec3 {
	out := make(map[l1keypoints.Landmark]l1keypoints.Vec3)
	for i := range m.history {
		h := &m.history[i]
		if h.Len() < 3 {
			continue
		}
		s0, s1, s2 := h.At(-3), h.At(-2), h.At(-1)
		vPrior := Velocity(s0.pos, s1.pos, s0.t, s1.t)
		vLatest := Velocity(s1.pos, s2.pos, s1.t, s2.t)
		out[l1keypoints.Landmark(i)] = Acceleration(vPrior, vLatest, s2.t-s1.t)
	}
	return out
}

// AverageSpeed returns the mean velocity magnitude over the given map,
// or zero when it is empty.
func AverageSpeed(velocities map[l1keypoints.Landmark]l1keypoints.Vec3) float64 {
	if len(velocities) == 0 {
		return 0
	}
	var sum float64
	for _, v := range velocities {
		sum += v.Norm()
	}
	return sum / float64(len(velocities))
}
