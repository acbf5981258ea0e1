package pipeline

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/form.report/internal/config"
	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
	"github.com/banshee-data/form.report/internal/pose/l2smoothing"
	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/l4analysis"
	"github.com/banshee-data/form.report/internal/testutil"
)

const frameDt = 1.0 / 30

// rawOptions disables temporal smoothing so angles follow the input exactly.
func rawOptions(exercise l3kinematics.ExerciseType) SessionOptions {
	opts := DefaultSessionOptions()
	opts.Exercise = exercise
	opts.Smoothing.WindowSize = 1
	return opts
}

func newSession(t *testing.T, opts SessionOptions) *Session {
	t.Helper()
	s, err := NewSession(opts)
	require.NoError(t, err)
	return s
}

func feedKnee(s *Session, start int, angles ...float64) []Metrics {
	out := make([]Metrics, 0, len(angles))
	for i, a := range angles {
		out = append(out, s.ProcessFrame(testutil.FrameAt(float64(start+i)*frameDt, testutil.PoseWithKneeAngle(a))))
	}
	return out
}

func romTrace(ms []Metrics) []l4analysis.ROMStatus {
	out := make([]l4analysis.ROMStatus, len(ms))
	for i, m := range ms {
		out[i] = m.ROMStatus
	}
	return out
}

func TestNewSessionConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*SessionOptions)
		wantErr error
	}{
		{"unknown smoothing method", func(o *SessionOptions) { o.Smoothing.Method = "median" }, l2smoothing.ErrUnknownSmoothingMethod},
		{"zero window", func(o *SessionOptions) { o.Smoothing.WindowSize = 0 }, l2smoothing.ErrInvalidWindowSize},
		{"negative window", func(o *SessionOptions) { o.Smoothing.WindowSize = -3 }, l2smoothing.ErrInvalidWindowSize},
		{"zero motion window", func(o *SessionOptions) { o.MotionWindowSize = 0 }, l2smoothing.ErrInvalidWindowSize},
		{"angle threshold", func(o *SessionOptions) { o.AngleVisibilityThreshold = 2 }, l2smoothing.ErrInvalidThreshold},
		{"unknown exercise", func(o *SessionOptions) { o.Exercise = "deadlift" }, l3kinematics.ErrInvalidExerciseType},
		{"unordered rom", func(o *SessionOptions) { o.ROM.Partial = 170 }, l4analysis.ErrInvalidThresholds},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := DefaultSessionOptions()
			tt.mutate(&opts)
			s, err := NewSession(opts)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, s)
		})
	}
}

func TestSessionIDsAreUniqueUUIDs(t *testing.T) {
	t.Parallel()

	a := newSession(t, DefaultSessionOptions())
	b := newSession(t, DefaultSessionOptions())
	assert.NotEqual(t, a.ID(), b.ID())
	_, err := uuid.Parse(a.ID())
	assert.NoError(t, err)
}

func TestSquatScenario(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Squat))
	ms := feedKnee(s, 0, 170, 150, 110, 85, 95, 130, 165)

	want := []l4analysis.ROMStatus{
		l4analysis.ROMRest, l4analysis.ROMPartial, l4analysis.ROMDeep, l4analysis.ROMBottom,
		l4analysis.ROMDeep, l4analysis.ROMPartial, l4analysis.ROMRest,
	}
	if diff := cmp.Diff(want, romTrace(ms)); diff != "" {
		t.Errorf("rom trace mismatch (-want +got):\n%s", diff)
	}

	counts := make([]int, len(ms))
	for i, m := range ms {
		counts[i] = m.RepCount
		assert.Equal(t, i == len(ms)-1, m.RepCompleted, "frame %d", i)
	}
	if diff := cmp.Diff([]int{0, 0, 0, 0, 0, 0, 1}, counts); diff != "" {
		t.Errorf("rep count trace mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "white", ms[6].ROMColor)
	assert.Equal(t, "dark_green", ms[3].ROMColor)
}

func TestRepeatedBottomCountsOnce(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Squat))
	ms := feedKnee(s, 0, 170, 85, 100, 85, 100, 85, 170)
	assert.Equal(t, 1, ms[len(ms)-1].RepCount)

	ms = feedKnee(s, len(ms), 85, 170, 175, 170)
	assert.Equal(t, 2, ms[len(ms)-1].RepCount)
	assert.Equal(t, 2, s.State().RepCount)
}

func TestNoPoseFrameMidSession(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Squat))
	ms := feedKnee(s, 0, 170, 85)
	require.Equal(t, l4analysis.ROMBottom, ms[1].ROMStatus)

	gap := s.ProcessFrame(testutil.NoPoseAt(2 * frameDt))
	assert.False(t, gap.PoseDetected)
	assert.Equal(t, l4analysis.ROMRest, gap.ROMStatus)
	assert.Equal(t, 0, gap.RepCount)
	assert.True(t, gap.RepInProgress)
	assert.NotNil(t, gap.JointAngles)
	assert.Empty(t, gap.JointAngles)
	assert.Nil(t, gap.CenterOfMass)
	assert.Empty(t, gap.Velocities)
	assert.Empty(t, gap.AngleSymmetry)

	// The in-progress rep survives the gap and completes on rest.
	after := feedKnee(s, 3, 170)
	assert.Equal(t, 1, after[0].RepCount)
	assert.True(t, after[0].RepCompleted)
	// Motion history survives too: a velocity is available immediately.
	assert.Contains(t, after[0].Velocities, l1keypoints.LeftKnee)
	assert.Equal(t, 4, s.Frames())
}

func TestNoPoseKeepsSmoothingHistory(t *testing.T) {
	t.Parallel()

	opts := rawOptions(l3kinematics.Squat)
	opts.Smoothing.WindowSize = 4
	s := newSession(t, opts)

	for i := 0; i < 4; i++ {
		s.ProcessFrame(testutil.FrameAt(float64(i)*frameDt, testutil.PoseWithKneeAngle(90)))
	}
	s.ProcessFrame(testutil.NoPoseAt(4 * frameDt))
	m := s.ProcessFrame(testutil.FrameAt(5*frameDt, testutil.PoseWithKneeAngle(170)))

	// Three of four buffered ankles are still at 90 degrees, so the
	// averaged knee stays well below the raw 170.
	deg, ok := m.JointAngles.Defined(l3kinematics.LeftKnee)
	require.True(t, ok)
	assert.Less(t, deg, 160.0)
}

func TestExerciseRestrictsAngles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		exercise l3kinematics.ExerciseType
		want     []l3kinematics.Joint
	}{
		{l3kinematics.Pushup, []l3kinematics.Joint{l3kinematics.LeftElbow, l3kinematics.RightElbow}},
		{l3kinematics.Squat, []l3kinematics.Joint{l3kinematics.LeftKnee, l3kinematics.RightKnee}},
		{l3kinematics.Lunge, []l3kinematics.Joint{l3kinematics.LeftKnee, l3kinematics.RightKnee}},
		{l3kinematics.All, []l3kinematics.Joint{l3kinematics.LeftElbow, l3kinematics.RightElbow, l3kinematics.LeftKnee, l3kinematics.RightKnee}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.exercise), func(t *testing.T) {
			t.Parallel()
			s := newSession(t, rawOptions(tt.exercise))
			m := s.ProcessFrame(testutil.FrameAt(0, testutil.StandingPose()))
			got := make([]l3kinematics.Joint, 0, len(m.JointAngles))
			for j := range m.JointAngles {
				got = append(got, j)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestPushupTracksElbow(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Pushup))
	var last Metrics
	for i, a := range []float64{175, 80, 175} {
		last = s.ProcessFrame(testutil.FrameAt(float64(i)*frameDt, testutil.PoseWithElbowAngle(a)))
	}
	assert.Equal(t, 1, last.RepCount)

	deg, ok := last.TrackedAngle(l3kinematics.Pushup)
	require.True(t, ok)
	assert.InDelta(t, 175, deg, 1e-6)
}

func TestUpdateExercise(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Squat))
	feedKnee(s, 0, 170, 85, 170, 85)
	require.Equal(t, l4analysis.RepetitionState{ROMStatus: l4analysis.ROMBottom, RepCount: 1, RepInProgress: true}, s.State())

	// Identical selection is a no-op.
	changed, err := s.UpdateExercise(l3kinematics.Squat, "beginner")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, s.State().RepCount)

	// A skill change alone resets.
	changed, err = s.UpdateExercise(l3kinematics.Squat, "advanced")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, l4analysis.RepetitionState{ROMStatus: l4analysis.ROMRest}, s.State())

	feedKnee(s, 4, 85)
	changed, err = s.UpdateExercise(l3kinematics.Pushup, "advanced")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, l4analysis.RepetitionState{ROMStatus: l4analysis.ROMRest}, s.State())
	ex, skill := s.Exercise()
	assert.Equal(t, l3kinematics.Pushup, ex)
	assert.Equal(t, "advanced", skill)
	assert.Equal(t, l3kinematics.Pushup, s.Options().Exercise)

	changed, err = s.UpdateExercise("plank", "advanced")
	assert.ErrorIs(t, err, l3kinematics.ErrInvalidExerciseType)
	assert.False(t, changed)
	ex, _ = s.Exercise()
	assert.Equal(t, l3kinematics.Pushup, ex)
}

func TestMotionAndSymmetryMetrics(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.All))

	m0 := s.ProcessFrame(testutil.FrameAt(0, testutil.PoseWithKneeAngle(170)))
	assert.Empty(t, m0.Velocities)
	assert.Empty(t, m0.Accelerations)
	assert.Empty(t, m0.SpeedSymmetry)
	assert.Zero(t, m0.AverageSpeed)
	require.NotNil(t, m0.CenterOfMass)

	m1 := s.ProcessFrame(testutil.FrameAt(frameDt, testutil.PoseWithKneeAngle(150)))
	assert.Len(t, m1.Velocities, l1keypoints.NumLandmarks)
	assert.Empty(t, m1.Accelerations)
	assert.Greater(t, m1.AverageSpeed, 0.0)
	// Both ankles move by the same distance, hips stay still.
	assert.InDelta(t, 1.0, m1.SpeedSymmetry["ankle"], 1e-9)
	assert.InDelta(t, 1.0, m1.SpeedSymmetry["hip"], 1e-9)

	m2 := s.ProcessFrame(testutil.FrameAt(2*frameDt, testutil.PoseWithKneeAngle(150)))
	assert.Len(t, m2.Accelerations, l1keypoints.NumLandmarks)
	assert.InDelta(t, 0, m2.AverageSpeed, 1e-9)

	want := l4analysis.SymmetryScore{"elbow": 1, "knee": 1}
	if diff := cmp.Diff(want, m2.AngleSymmetry, cmpApprox()); diff != "" {
		t.Errorf("angle symmetry mismatch (-want +got):\n%s", diff)
	}
}

func TestAngleSymmetryOmitsUndefinedSide(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Squat))
	pose := testutil.Occlude(testutil.PoseWithKneeAngle(120), 0.05, l1keypoints.RightAnkle)
	m := s.ProcessFrame(testutil.FrameAt(0, pose))

	_, ok := m.JointAngles.Defined(l3kinematics.RightKnee)
	assert.False(t, ok)
	assert.NotContains(t, m.AngleSymmetry, "knee")
}

func TestIncludeKeypoints(t *testing.T) {
	t.Parallel()

	opts := rawOptions(l3kinematics.Squat)
	s := newSession(t, opts)
	assert.Nil(t, s.ProcessFrame(testutil.FrameAt(0, testutil.StandingPose())).Keypoints)

	opts.IncludeKeypoints = true
	s = newSession(t, opts)
	pose := testutil.StandingPose()
	m := s.ProcessFrame(testutil.FrameAt(0, pose))
	require.NotNil(t, m.Keypoints)
	assert.Equal(t, pose, *m.Keypoints)
	assert.Equal(t, pose, s.LastPose())
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	a := newSession(t, rawOptions(l3kinematics.Squat))
	b := newSession(t, rawOptions(l3kinematics.Squat))
	feedKnee(a, 0, 170, 85, 170)
	assert.Equal(t, 1, a.State().RepCount)
	assert.Equal(t, 0, b.State().RepCount)
	assert.Zero(t, b.Frames())
}

func TestReset(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Squat))
	feedKnee(s, 0, 170, 85, 170, 85)
	s.Reset()
	assert.Equal(t, l4analysis.RepetitionState{ROMStatus: l4analysis.ROMRest}, s.State())
	assert.Zero(t, s.Frames())

	m := s.ProcessFrame(testutil.FrameAt(0, testutil.StandingPose()))
	assert.Empty(t, m.Velocities)
}

func TestMetricsJSON(t *testing.T) {
	t.Parallel()

	s := newSession(t, rawOptions(l3kinematics.Squat))
	s.ProcessFrame(testutil.FrameAt(0, testutil.StandingPose()))
	m := s.ProcessFrame(testutil.FrameAt(frameDt, testutil.StandingPose()))

	b, err := json.Marshal(m)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Contains(t, decoded, "center_of_mass")
	assert.Contains(t, string(decoded["velocities"]), `"left_knee"`)
	assert.NotContains(t, decoded, "keypoints")

	gap, err := json.Marshal(s.ProcessFrame(testutil.NoPoseAt(2 * frameDt)))
	require.NoError(t, err)
	assert.Contains(t, string(gap), `"joint_angles":{}`)
	assert.Contains(t, string(gap), `"rom_status":"rest"`)
	assert.NotContains(t, string(gap), "center_of_mass")
}

func TestSessionOptionsFromConfig(t *testing.T) {
	t.Parallel()

	got := SessionOptionsFromConfig(config.MustLoadDefaultConfig())
	if diff := cmp.Diff(DefaultSessionOptions(), got); diff != "" {
		t.Errorf("options from defaults file mismatch (-want +got):\n%s", diff)
	}

	method := "kalman"
	window := 3
	cfg := &config.SessionConfig{SmoothingMethod: &method, WindowSize: &window}
	opts := SessionOptionsFromConfig(cfg)
	assert.Equal(t, l2smoothing.Kalman, opts.Smoothing.Method)
	assert.Equal(t, 3, opts.Smoothing.WindowSize)
	assert.Equal(t, l3kinematics.All, opts.Exercise)

	_, err := NewSession(opts)
	assert.NoError(t, err)
}

func TestLogStreams(t *testing.T) {
	var buf bytes.Buffer
	SetLegacyLogger(&buf)
	defer SetLegacyLogger(nil)

	s := newSession(t, rawOptions(l3kinematics.Squat))
	feedKnee(s, 0, 170, 85, 170)
	s.ProcessFrame(testutil.NoPoseAt(3 * frameDt))
	s.ProcessFrame(testutil.NoPoseAt(3 * frameDt))

	out := buf.String()
	assert.Contains(t, out, "[pose] ")
	assert.Contains(t, out, "rep 1 completed")
	assert.Contains(t, out, "no pose at")
	assert.Contains(t, out, "non-increasing timestamp")

	buf.Reset()
	SetLogWriters(nil, &buf, nil)
	s.ProcessFrame(testutil.NoPoseAt(4 * frameDt))
	s.ProcessFrame(testutil.FrameAt(5*frameDt, testutil.StandingPose()))
	assert.Contains(t, buf.String(), "pose reacquired")
	assert.NotContains(t, buf.String(), "t=")
}

func cmpApprox() cmp.Option {
	return cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-9 && d > -1e-9
	})
}
