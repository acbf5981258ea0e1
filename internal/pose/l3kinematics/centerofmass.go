package l3kinematics

import (
	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
	"gonum.org/v1/gonum/floats"
)

// Segment is a body part with its share of total body mass and the
// landmarks whose mean locates it.
type Segment struct {
	Name         string
	MassFraction float64
	Landmarks    []l1keypoints.Landmark
}

// Approximate whole-body mass fractions. Bilateral values cover both
// sides together and are split evenly when the table is built, so the
// table sums to 0.815.
const (
	headMass       = 0.08
	upperTorsoMass = 0.20
	lowerTorsoMass = 0.32
	upperArmMass   = 0.03
	forearmMass    = 0.02
	handMass       = 0.01
	thighMass      = 0.10
	shankMass      = 0.04
	footMass       = 0.015
)

// Segments is the fixed segment table used by CenterOfMass.
var Segments = buildSegments()

// totalMassFraction is computed once from Segments so the result is a
// true weighted average whatever the table holds.
var totalMassFraction = sumMassFractions(Segments)

func buildSegments() []Segment {
	segs := []Segment{
		{Name: "head", MassFraction: headMass, Landmarks: []l1keypoints.Landmark{l1keypoints.Nose}},
		{Name: "upper_torso", MassFraction: upperTorsoMass, Landmarks: []l1keypoints.Landmark{l1keypoints.LeftShoulder, l1keypoints.RightShoulder}},
		{Name: "lower_torso", MassFraction: lowerTorsoMass, Landmarks: []l1keypoints.Landmark{l1keypoints.LeftHip, l1keypoints.RightHip}},
	}

	bilateral := []struct {
		name        string
		mass        float64
		left, right []l1keypoints.Landmark
	}{
		{"upper_arm", upperArmMass,
			[]l1keypoints.Landmark{l1keypoints.LeftShoulder, l1keypoints.LeftElbow},
			[]l1keypoints.Landmark{l1keypoints.RightShoulder, l1keypoints.RightElbow}},
		{"forearm", forearmMass,
			[]l1keypoints.Landmark{l1keypoints.LeftElbow, l1keypoints.LeftWrist},
			[]l1keypoints.Landmark{l1keypoints.RightElbow, l1keypoints.RightWrist}},
		{"hand", handMass,
			[]l1keypoints.Landmark{l1keypoints.LeftWrist, l1keypoints.LeftPinky, l1keypoints.LeftIndex, l1keypoints.LeftThumb},
			[]l1keypoints.Landmark{l1keypoints.RightWrist, l1keypoints.RightPinky, l1keypoints.RightIndex, l1keypoints.RightThumb}},
		{"thigh", thighMass,
			[]l1keypoints.Landmark{l1keypoints.LeftHip, l1keypoints.LeftKnee},
			[]l1keypoints.Landmark{l1keypoints.RightHip, l1keypoints.RightKnee}},
		{"shank", shankMass,
			[]l1keypoints.Landmark{l1keypoints.LeftKnee, l1keypoints.LeftAnkle},
			[]l1keypoints.Landmark{l1keypoints.RightKnee, l1keypoints.RightAnkle}},
		{"foot", footMass,
			[]l1keypoints.Landmark{l1keypoints.LeftAnkle, l1keypoints.LeftFootIndex},
			[]l1keypoints.Landmark{l1keypoints.RightAnkle, l1keypoints.RightFootIndex}},
	}
	for _, b := range bilateral {
		segs = append(segs,
			Segment{Name: "left_" + b.name, MassFraction: b.mass / 2, Landmarks: b.left},
			Segment{Name: "right_" + b.name, MassFraction: b.mass / 2, Landmarks: b.right},
		)
	}
	return segs
}

func sumMassFractions(segs []Segment) float64 {
	fractions := make([]float64, len(segs))
	for i, s := range segs {
		fractions[i] = s.MassFraction
	}
	return floats.Sum(fractions)
}

// SegmentPosition returns the unweighted mean of the segment's landmarks.
func SegmentPosition(pose l1keypoints.Pose, seg Segment) l1keypoints.Vec3 {
	var sum l1keypoints.Vec3
	for _, idx := range seg.Landmarks {
		sum = sum.Add(pose[idx].Position())
	}
	return sum.Scale(1 / float64(len(seg.Landmarks)))
}

// CenterOfMass returns the mass-fraction weighted mean of all segment
// positions.
func CenterOfMass(pose l1keypoints.Pose) l1keypoints.Vec3 {
	var num l1keypoints.Vec3
	for _, seg := range Segments {
		num = num.Add(SegmentPosition(pose, seg).Scale(seg.MassFraction))
	}
	return num.Scale(1 / totalMassFraction)
}
