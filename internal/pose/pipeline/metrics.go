package pipeline

import (
	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/l4analysis"
)

// Metrics is the per-frame output of a Session. On a no-pose frame only
// the timestamp, repetition fields and an empty angle set are populated.
type Metrics struct {
	Timestamp    float64 `json:"timestamp"` // seconds
	PoseDetected bool    `json:"pose_detected"`

	Keypoints   *l1keypoints.Pose          `json:"keypoints,omitempty"`
	JointAngles l3kinematics.JointAngleSet `json:"joint_angles"`

	ROMStatus     l4analysis.ROMStatus `json:"rom_status"`
	ROMColor      string               `json:"rom_color"`
	RepCount      int                  `json:"rep_count"`
	RepInProgress bool                 `json:"rep_in_progress"`
	RepCompleted  bool                 `json:"rep_completed"`

	Velocities    map[l1keypoints.Landmark]l1keypoints.Vec3 `json:"velocities,omitempty"`
	Accelerations map[l1keypoints.Landmark]l1keypoints.Vec3 `json:"accelerations,omitempty"`
	AverageSpeed  float64                                   `json:"average_speed"`
	CenterOfMass  *l1keypoints.Vec3                         `json:"center_of_mass,omitempty"`

	AngleSymmetry l4analysis.SymmetryScore `json:"angle_symmetry,omitempty"`
	SpeedSymmetry l4analysis.SymmetryScore `json:"speed_symmetry,omitempty"`
}

// Repetition returns the repetition fields as a RepetitionState.
func (m Metrics) Repetition() l4analysis.RepetitionState {
	return l4analysis.RepetitionState{
		ROMStatus:     m.ROMStatus,
		RepCount:      m.RepCount,
		RepInProgress: m.RepInProgress,
	}
}

// TrackedAngle returns the angle of the joint driving repetition counting
// for exercise, if it was defined this frame.
func (m Metrics) TrackedAngle(exercise l3kinematics.ExerciseType) (float64, bool) {
	return m.JointAngles.Defined(l4analysis.TrackedJoint(exercise))
}

func (m *Metrics) setRepetition(s l4analysis.RepetitionState) {
	m.ROMStatus = s.ROMStatus
	m.ROMColor = s.ROMStatus.Color()
	m.RepCount = s.RepCount
	m.RepInProgress = s.RepInProgress
}
