package l4analysis

import (
	"testing"

	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kneeAngles(deg float64) l3kinematics.JointAngleSet {
	return l3kinematics.JointAngleSet{
		l3kinematics.LeftKnee:  l3kinematics.DefinedAngle(deg),
		l3kinematics.RightKnee: l3kinematics.DefinedAngle(deg),
	}
}

func newCounter(t *testing.T, ex l3kinematics.ExerciseType) *RepCounter {
	t.Helper()
	c, err := NewRepCounter(DefaultThresholds(), ex, "beginner")
	require.NoError(t, err)
	return c
}

func TestSquatRepScenario(t *testing.T) {
	t.Parallel()

	c := newCounter(t, l3kinematics.Squat)
	angles := []float64{170, 150, 110, 85, 95, 130, 165}
	want := []ROMStatus{ROMRest, ROMPartial, ROMDeep, ROMBottom, ROMDeep, ROMPartial, ROMRest}
	wantCounts := []int{0, 0, 0, 0, 0, 0, 1}

	var gotStatus []ROMStatus
	var gotCounts []int
	for _, a := range angles {
		s, _ := c.Update(kneeAngles(a))
		gotStatus = append(gotStatus, s.ROMStatus)
		gotCounts = append(gotCounts, s.RepCount)
	}
	if diff := cmp.Diff(want, gotStatus); diff != "" {
		t.Errorf("rom trace mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantCounts, gotCounts); diff != "" {
		t.Errorf("rep count trace mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, c.State().RepInProgress)
}

func TestRepeatedBottomWithoutRestCountsOnce(t *testing.T) {
	t.Parallel()

	c := newCounter(t, l3kinematics.Squat)
	for _, a := range []float64{170, 110, 85, 110, 85, 130, 85, 165, 170, 175} {
		c.Update(kneeAngles(a))
	}
	assert.Equal(t, 1, c.State().RepCount)

	// A second full cycle counts again.
	for _, a := range []float64{150, 80, 170} {
		c.Update(kneeAngles(a))
	}
	assert.Equal(t, 2, c.State().RepCount)
}

func TestRestStateDoesNotCountEveryFrame(t *testing.T) {
	t.Parallel()

	c := newCounter(t, l3kinematics.Squat)
	completions := 0
	for _, a := range []float64{170, 85, 170, 171, 172, 179} {
		if _, done := c.Update(kneeAngles(a)); done {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
	assert.Equal(t, 1, c.State().RepCount)
}

func TestUndefinedTrackedJointKeepsProgress(t *testing.T) {
	t.Parallel()

	c := newCounter(t, l3kinematics.Squat)
	c.Update(kneeAngles(85))
	require.True(t, c.State().RepInProgress)

	s, done := c.Update(l3kinematics.JointAngleSet{l3kinematics.LeftKnee: {}})
	assert.False(t, done)
	assert.Equal(t, RepetitionState{ROMStatus: ROMRest, RepCount: 0, RepInProgress: true}, s)

	// The right knee alone does not drive the machine.
	s, _ = c.Update(l3kinematics.JointAngleSet{l3kinematics.RightKnee: l3kinematics.DefinedAngle(170)})
	assert.Equal(t, 0, s.RepCount)

	s, done = c.Update(kneeAngles(170))
	assert.True(t, done)
	assert.Equal(t, 1, s.RepCount)
}

func TestNoPoseResetsStatusOnly(t *testing.T) {
	t.Parallel()

	c := newCounter(t, l3kinematics.Squat)
	for _, a := range []float64{170, 80, 170, 80} {
		c.Update(kneeAngles(a))
	}
	require.Equal(t, ROMBottom, c.State().ROMStatus)

	s := c.NoPose()
	assert.Equal(t, ROMRest, s.ROMStatus)
	assert.Equal(t, 1, s.RepCount)
	assert.True(t, s.RepInProgress)
}

func TestPushupTracksElbow(t *testing.T) {
	t.Parallel()

	c := newCounter(t, l3kinematics.Pushup)
	for _, a := range []float64{175, 140, 100, 70, 120, 170} {
		c.Update(l3kinematics.JointAngleSet{
			l3kinematics.LeftElbow: l3kinematics.DefinedAngle(a),
		})
	}
	assert.Equal(t, 1, c.State().RepCount)
	assert.Equal(t, l3kinematics.LeftKnee, TrackedJoint(l3kinematics.All))
	assert.Equal(t, l3kinematics.LeftKnee, TrackedJoint(l3kinematics.Lunge))
}

func TestSelectResetsOnChange(t *testing.T) {
	t.Parallel()

	c := newCounter(t, l3kinematics.Squat)
	for _, a := range []float64{170, 80, 170, 80} {
		c.Update(kneeAngles(a))
	}
	require.Equal(t, 1, c.State().RepCount)

	reset, err := c.Select(l3kinematics.Squat, "beginner")
	require.NoError(t, err)
	assert.False(t, reset)
	assert.Equal(t, 1, c.State().RepCount)

	reset, err = c.Select(l3kinematics.Squat, "advanced")
	require.NoError(t, err)
	assert.True(t, reset)
	assert.Equal(t, RepetitionState{ROMStatus: ROMRest}, c.State())

	_, err = c.Select("burpee", "advanced")
	assert.ErrorIs(t, err, l3kinematics.ErrInvalidExerciseType)
	ex, skill := c.Exercise()
	assert.Equal(t, l3kinematics.Squat, ex)
	assert.Equal(t, "advanced", skill)
}

func TestThresholds(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	require.NoError(t, th.Validate())
	assert.Equal(t, ROMPartial, th.Classify(160))
	assert.Equal(t, ROMDeep, th.Classify(120))
	assert.Equal(t, ROMBottom, th.Classify(90))
	assert.Equal(t, ROMRest, th.Classify(160.01))

	assert.ErrorIs(t, Thresholds{Rest: 100, Partial: 120, Bottom: 90}.Validate(), ErrInvalidThresholds)
	_, err := NewRepCounter(Thresholds{Rest: 200, Partial: 120, Bottom: 90}, l3kinematics.Squat, "")
	assert.ErrorIs(t, err, ErrInvalidThresholds)

	assert.Equal(t, "white", ROMRest.Color())
	assert.Equal(t, "yellow", ROMPartial.Color())
	assert.Equal(t, "light_green", ROMDeep.Color())
	assert.Equal(t, "dark_green", ROMBottom.Color())
}
