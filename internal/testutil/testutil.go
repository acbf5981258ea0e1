// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic pose builders so the layer packages
// can drive joints to exact angles without a detector.
package testutil

import (
	"math"
	"time"

	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
)

// Visible is the visibility assigned to fixture landmarks.
const Visible = 0.95

// Fixture segment lengths in normalized image units.
const (
	thighLength   = 0.20
	shankLength   = 0.20
	upperArmLen   = 0.15
	forearmLength = 0.15
)

// StandingPose returns an upright front-facing pose with straight arms
// hanging down and straight legs.
func StandingPose() l1keypoints.Pose {
	return PoseWithAngles(180, 180)
}

// PoseWithKneeAngle returns a pose whose knees are bent to kneeDeg and
// whose elbows are straight.
func PoseWithKneeAngle(kneeDeg float64) l1keypoints.Pose {
	return PoseWithAngles(180, kneeDeg)
}

// PoseWithElbowAngle returns a pose whose elbows are bent to elbowDeg and
// whose knees are straight.
func PoseWithElbowAngle(elbowDeg float64) l1keypoints.Pose {
	return PoseWithAngles(elbowDeg, 180)
}

// PoseWithAngles builds a pose with both elbows at elbowDeg and both knees
// at kneeDeg. Every landmark is fully visible.
func PoseWithAngles(elbowDeg, kneeDeg float64) l1keypoints.Pose {
	var p l1keypoints.Pose
	set := func(l l1keypoints.Landmark, v l1keypoints.Vec3) {
		p[l] = l1keypoints.Keypoint{X: v.X, Y: v.Y, Z: v.Z, Visibility: Visible}
	}

	head := l1keypoints.Vec3{X: 0.5, Y: 0.15}
	for l := l1keypoints.Nose; l <= l1keypoints.MouthRight; l++ {
		set(l, head)
	}
	set(l1keypoints.LeftEye, head.Add(l1keypoints.Vec3{X: 0.02, Y: -0.02}))
	set(l1keypoints.RightEye, head.Add(l1keypoints.Vec3{X: -0.02, Y: -0.02}))

	for _, side := range []struct {
		sign                              float64
		shoulder, elbow, wrist            l1keypoints.Landmark
		pinky, index, thumb               l1keypoints.Landmark
		hip, knee, ankle, heel, footIndex l1keypoints.Landmark
	}{
		{1, l1keypoints.LeftShoulder, l1keypoints.LeftElbow, l1keypoints.LeftWrist,
			l1keypoints.LeftPinky, l1keypoints.LeftIndex, l1keypoints.LeftThumb,
			l1keypoints.LeftHip, l1keypoints.LeftKnee, l1keypoints.LeftAnkle, l1keypoints.LeftHeel, l1keypoints.LeftFootIndex},
		{-1, l1keypoints.RightShoulder, l1keypoints.RightElbow, l1keypoints.RightWrist,
			l1keypoints.RightPinky, l1keypoints.RightIndex, l1keypoints.RightThumb,
			l1keypoints.RightHip, l1keypoints.RightKnee, l1keypoints.RightAnkle, l1keypoints.RightHeel, l1keypoints.RightFootIndex},
	} {
		shoulder := l1keypoints.Vec3{X: 0.5 + side.sign*0.1, Y: 0.3}
		elbow := shoulder.Add(l1keypoints.Vec3{Y: upperArmLen})
		wrist := elbow.Add(bend(elbowDeg, side.sign).Scale(forearmLength))
		set(side.shoulder, shoulder)
		set(side.elbow, elbow)
		set(side.wrist, wrist)
		set(side.pinky, wrist)
		set(side.index, wrist)
		set(side.thumb, wrist)

		hip := l1keypoints.Vec3{X: 0.5 + side.sign*0.08, Y: 0.55}
		knee := hip.Add(l1keypoints.Vec3{Y: thighLength})
		ankle := knee.Add(bend(kneeDeg, side.sign).Scale(shankLength))
		set(side.hip, hip)
		set(side.knee, knee)
		set(side.ankle, ankle)
		set(side.heel, ankle)
		set(side.footIndex, ankle.Add(l1keypoints.Vec3{Z: -0.05}))
	}
	return p
}

// bend returns the unit direction of the distal ray at a joint whose
// proximal ray points straight up (−Y), so the two rays meet at deg.
func bend(deg, sign float64) l1keypoints.Vec3 {
	rad := deg * math.Pi / 180
	return l1keypoints.Vec3{X: sign * math.Sin(rad), Y: -math.Cos(rad)}
}

// Occlude returns a copy of p with the given landmarks' visibility set to v.
func Occlude(p l1keypoints.Pose, v float64, landmarks ...l1keypoints.Landmark) l1keypoints.Pose {
	for _, l := range landmarks {
		p[l].Visibility = v
	}
	return p
}

// FrameAt wraps a pose in a detected frame at t seconds.
func FrameAt(t float64, p l1keypoints.Pose) l1keypoints.Frame {
	return l1keypoints.Frame{
		Timestamp: time.Duration(t * float64(time.Second)),
		Detected:  true,
		Pose:      p,
	}
}

// NoPoseAt returns a frame at t seconds in which no person was found.
func NoPoseAt(t float64) l1keypoints.Frame {
	return l1keypoints.Frame{Timestamp: time.Duration(t * float64(time.Second))}
}
