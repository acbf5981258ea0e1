package l4analysis

import (
	"errors"
	"fmt"

	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
)

// ErrInvalidThresholds is returned when ROM thresholds are not strictly
// decreasing from rest to bottom.
var ErrInvalidThresholds = errors.New("rom thresholds must satisfy 180 >= rest > partial > bottom >= 0")

// ROMStatus is the range-of-motion bucket of the tracked joint.
type ROMStatus string

const (
	ROMRest    ROMStatus = "rest"
	ROMPartial ROMStatus = "partial"
	ROMDeep    ROMStatus = "deep"
	ROMBottom  ROMStatus = "bottom"
)

// Color returns the display colour of the bucket.
func (s ROMStatus) Color() string {
	switch s {
	case ROMPartial:
		return "yellow"
	case ROMDeep:
		return "light_green"
	case ROMBottom:
		return "dark_green"
	default:
		return "white"
	}
}

// Thresholds are the bucket boundaries in degrees. An angle above Rest
// is rest, above Partial is partial, above Bottom is deep, otherwise
// bottom.
type Thresholds struct {
	Rest    float64
	Partial float64
	Bottom  float64
}

// DefaultThresholds returns the 160/120/90 degree boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Rest: 160, Partial: 120, Bottom: 90}
}

// Validate checks the boundaries are ordered.
func (t Thresholds) Validate() error {
	if !(t.Rest <= 180 && t.Rest > t.Partial && t.Partial > t.Bottom && t.Bottom >= 0) {
		return fmt.Errorf("%w: got %+v", ErrInvalidThresholds, t)
	}
	return nil
}

// Classify maps an angle to its bucket.
func (t Thresholds) Classify(deg float64) ROMStatus {
	switch {
	case deg > t.Rest:
		return ROMRest
	case deg > t.Partial:
		return ROMPartial
	case deg > t.Bottom:
		return ROMDeep
	default:
		return ROMBottom
	}
}

// TrackedJoint returns the joint that drives repetition counting for an
// exercise.
func TrackedJoint(e l3kinematics.ExerciseType) l3kinematics.Joint {
	if e == l3kinematics.Pushup {
		return l3kinematics.LeftElbow
	}
	return l3kinematics.LeftKnee
}

// RepetitionState is the per-session counting state.
type RepetitionState struct {
	ROMStatus     ROMStatus `json:"rom_status"`
	RepCount      int       `json:"rep_count"`
	RepInProgress bool      `json:"rep_in_progress"`
}

// RepCounter is a Moore machine over the tracked joint angle. The ROM
// bucket is a pure function of the latest angle; a rep is counted only
// on the edge back into rest after bottom was reached.
//
// Not safe for concurrent use.
type RepCounter struct {
	thresholds Thresholds
	exercise   l3kinematics.ExerciseType
	skillLevel string
	state      RepetitionState
}

// NewRepCounter returns a counter at rest with zero reps.
func NewRepCounter(t Thresholds, exercise l3kinematics.ExerciseType, skillLevel string) (*RepCounter, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, err := l3kinematics.ParseExerciseType(string(exercise)); err != nil {
		return nil, err
	}
	return &RepCounter{
		thresholds: t,
		exercise:   exercise,
		skillLevel: skillLevel,
		state:      RepetitionState{ROMStatus: ROMRest},
	}, nil
}

// Exercise returns the active exercise and skill level.
func (c *RepCounter) Exercise() (l3kinematics.ExerciseType, string) {
	return c.exercise, c.skillLevel
}

// State returns the current state.
func (c *RepCounter) State() RepetitionState {
	return c.state
}

// Select switches exercise and skill level. Any change resets the state
// to rest with zero reps; reselecting the same pair is a no-op. It
// reports whether a reset happened.
func (c *RepCounter) Select(exercise l3kinematics.ExerciseType, skillLevel string) (bool, error) {
	if _, err := l3kinematics.ParseExerciseType(string(exercise)); err != nil {
		return false, err
	}
	if exercise == c.exercise && skillLevel == c.skillLevel {
		return false, nil
	}
	c.exercise = exercise
	c.skillLevel = skillLevel
	c.Reset()
	return true, nil
}

// Reset returns to rest with zero reps.
func (c *RepCounter) Reset() {
	c.state = RepetitionState{ROMStatus: ROMRest}
}

// Update advances the machine with the latest angles. It reports whether
// this frame completed a rep.
func (c *RepCounter) Update(angles l3kinematics.JointAngleSet) (RepetitionState, bool) {
	deg, ok := angles.Defined(TrackedJoint(c.exercise))
	if !ok {
		// Ambiguous frames neither cancel nor complete a rep.
		c.state.ROMStatus = ROMRest
		return c.state, false
	}

	completed := false
	c.state.ROMStatus = c.thresholds.Classify(deg)
	switch c.state.ROMStatus {
	case ROMRest:
		if c.state.RepInProgress {
			c.state.RepCount++
			c.state.RepInProgress = false
			completed = true
		}
	case ROMBottom:
		c.state.RepInProgress = true
	}
	return c.state, completed
}

// NoPose records a frame without a detected person: the bucket drops to
// rest while the count and in-progress flag are kept.
func (c *RepCounter) NoPose() RepetitionState {
	c.state.ROMStatus = ROMRest
	return c.state
}
