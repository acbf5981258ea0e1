package l3kinematics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
	"github.com/banshee-data/form.report/internal/units"
)

// ErrInvalidExerciseType is returned when an exercise selector is not one
// of pushup, squat, lunge or all.
var ErrInvalidExerciseType = errors.New("invalid exercise type")

// ExerciseType selects which joints are computed and tracked.
type ExerciseType string

const (
	Pushup ExerciseType = "pushup"
	Squat  ExerciseType = "squat"
	Lunge  ExerciseType = "lunge"
	All    ExerciseType = "all"
)

// ExerciseTypes lists every supported selector.
var ExerciseTypes = []ExerciseType{Pushup, Squat, Lunge, All}

// ParseExerciseType resolves an exercise name.
func ParseExerciseType(name string) (ExerciseType, error) {
	for _, e := range ExerciseTypes {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidExerciseType, name)
}

// Joint names a computed joint angle.
type Joint string

const (
	LeftElbow  Joint = "left_elbow"
	RightElbow Joint = "right_elbow"
	LeftKnee   Joint = "left_knee"
	RightKnee  Joint = "right_knee"
)

// jointDef is the vertex B and the outer points A and C of a joint.
type jointDef struct {
	joint   Joint
	a, b, c l1keypoints.Landmark
}

var (
	elbowJoints = []jointDef{
		{LeftElbow, l1keypoints.LeftShoulder, l1keypoints.LeftElbow, l1keypoints.LeftWrist},
		{RightElbow, l1keypoints.RightShoulder, l1keypoints.RightElbow, l1keypoints.RightWrist},
	}
	kneeJoints = []jointDef{
		{LeftKnee, l1keypoints.LeftHip, l1keypoints.LeftKnee, l1keypoints.LeftAnkle},
		{RightKnee, l1keypoints.RightHip, l1keypoints.RightKnee, l1keypoints.RightAnkle},
	}
)

// jointsFor returns the joints relevant to an exercise.
func jointsFor(e ExerciseType) []jointDef {
	switch e {
	case Pushup:
		return elbowJoints
	case Squat, Lunge:
		return kneeJoints
	case All:
		return append(append([]jointDef(nil), elbowJoints...), kneeJoints...)
	}
	return nil
}

// Angle is a joint angle in degrees. Valid is false when the angle could
// not be computed (occluded landmark or degenerate geometry); such angles
// marshal to JSON null.
type Angle struct {
	Degrees float64
	Valid   bool
}

// DefinedAngle returns a valid Angle.
func DefinedAngle(deg float64) Angle {
	return Angle{Degrees: deg, Valid: true}
}

// MarshalJSON encodes undefined angles as null.
func (a Angle) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Degrees)
}

// UnmarshalJSON decodes null as an undefined angle.
func (a *Angle) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Angle{}
		return nil
	}
	if err := json.Unmarshal(b, &a.Degrees); err != nil {
		return err
	}
	a.Valid = true
	return nil
}

// JointAngleSet maps each joint relevant to the current exercise to its
// angle. It is recomputed every frame.
type JointAngleSet map[Joint]Angle

// Defined returns the angle for j when present and valid.
func (s JointAngleSet) Defined(j Joint) (float64, bool) {
	a, ok := s[j]
	if !ok || !a.Valid {
		return 0, false
	}
	return a.Degrees, true
}

// Scalars returns the valid angles keyed by joint name, the shape the
// symmetry analyzer consumes.
func (s JointAngleSet) Scalars() map[string]float64 {
	out := make(map[string]float64, len(s))
	for j, a := range s {
		if a.Valid {
			out[string(j)] = a.Degrees
		}
	}
	return out
}

// AngleAt returns the angle in degrees at vertex b formed by rays b→a and
// b→c. ok is false when either ray has zero length.
func AngleAt(a, b, c l1keypoints.Vec3) (deg float64, ok bool) {
	ba := a.Sub(b)
	bc := c.Sub(b)
	nba := ba.Norm()
	nbc := bc.Norm()
	if nba == 0 || nbc == 0 {
		return 0, false
	}
	cos := ba.Dot(bc) / (nba * nbc)
	// Clamp floating-point overshoot outside acos's domain.
	cos = math.Max(-1, math.Min(1, cos))
	return units.RadiansToDegrees(math.Acos(cos)), true
}

// AngleEngine computes joint angles, gating on landmark visibility.
// It holds no per-frame state.
type AngleEngine struct {
	VisibilityThreshold float64
}

// NewAngleEngine returns an engine that treats any landmark with
// visibility below threshold as missing.
func NewAngleEngine(threshold float64) AngleEngine {
	return AngleEngine{VisibilityThreshold: threshold}
}

// Compute returns the angles of the joints relevant to exercise. Joints
// whose landmarks are not visible enough, or whose geometry is
// degenerate, are present but undefined.
func (e AngleEngine) Compute(pose l1keypoints.Pose, exercise ExerciseType) JointAngleSet {
	defs := jointsFor(exercise)
	out := make(JointAngleSet, len(defs))
	for _, d := range defs {
		out[d.joint] = e.jointAngle(pose, d)
	}
	return out
}

func (e AngleEngine) jointAngle(pose l1keypoints.Pose, d jointDef) Angle {
	a, b, c := pose[d.a], pose[d.b], pose[d.c]
	if a.Visibility < e.VisibilityThreshold ||
		b.Visibility < e.VisibilityThreshold ||
		c.Visibility < e.VisibilityThreshold {
		return Angle{}
	}
	deg, ok := AngleAt(a.Position(), b.Position(), c.Position())
	if !ok {
		return Angle{}
	}
	return DefinedAngle(deg)
}
