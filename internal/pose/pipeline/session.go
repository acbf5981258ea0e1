package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
	"github.com/banshee-data/form.report/internal/pose/l2smoothing"
	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/l4analysis"
)

// anglePairs are the joints compared left against right.
var anglePairs = []string{"elbow", "knee"}

// Session runs frames of one stream through the pose layers. Construction
// and UpdateExercise/Reset are the only ways to change its configuration.
//
// Not safe for concurrent use.
type Session struct {
	id   string
	opts SessionOptions

	smoother *l2smoothing.Smoother
	angles   l3kinematics.AngleEngine
	motion   *l3kinematics.MotionAnalyzer
	angleSym l4analysis.SymmetryAnalyzer
	speedSym l4analysis.SymmetryAnalyzer
	reps     *l4analysis.RepCounter

	frames   int
	lastTS   float64
	haveTS   bool
	inGap    bool
	lastPose l1keypoints.Pose
}

// NewSession validates opts and returns a session at rest with no reps.
func NewSession(opts SessionOptions) (*Session, error) {
	smoother, err := l2smoothing.NewSmoother(opts.Smoothing)
	if err != nil {
		return nil, err
	}
	if opts.MotionWindowSize <= 0 {
		return nil, fmt.Errorf("invalid motion window: %w: got %d", l2smoothing.ErrInvalidWindowSize, opts.MotionWindowSize)
	}
	if opts.AngleVisibilityThreshold < 0 || opts.AngleVisibilityThreshold > 1 {
		return nil, fmt.Errorf("invalid angle visibility: %w: got %f", l2smoothing.ErrInvalidThreshold, opts.AngleVisibilityThreshold)
	}
	reps, err := l4analysis.NewRepCounter(opts.ROM, opts.Exercise, opts.SkillLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid repetition config: %w", err)
	}

	s := &Session{
		id:       uuid.New().String(),
		opts:     opts,
		smoother: smoother,
		angles:   l3kinematics.NewAngleEngine(opts.AngleVisibilityThreshold),
		motion:   l3kinematics.NewMotionAnalyzer(opts.MotionWindowSize),
		angleSym: l4analysis.SymmetryAnalyzer{Pairs: anglePairs},
		speedSym: l4analysis.NewSymmetryAnalyzer(),
		reps:     reps,
	}
	diagf("session %s: exercise=%s skill=%s smoothing=%s window=%d",
		s.id, opts.Exercise, opts.SkillLevel, opts.Smoothing.Method, opts.Smoothing.WindowSize)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Options returns the options the session was built with, reflecting any
// exercise change since.
func (s *Session) Options() SessionOptions { return s.opts }

// Frames returns the number of frames processed, including no-pose frames.
func (s *Session) Frames() int { return s.frames }

// State returns the current repetition state.
func (s *Session) State() l4analysis.RepetitionState { return s.reps.State() }

// Exercise returns the active exercise and skill level.
func (s *Session) Exercise() (l3kinematics.ExerciseType, string) {
	return s.reps.Exercise()
}

// UpdateExercise switches the exercise and skill level and reports
// whether either changed. Any change resets the repetition state;
// smoothing and motion history are kept.
func (s *Session) UpdateExercise(exercise l3kinematics.ExerciseType, skillLevel string) (bool, error) {
	changed, err := s.reps.Select(exercise, skillLevel)
	if err != nil {
		return false, err
	}
	if changed {
		diagf("session %s: exercise changed to %s (%s), repetition state reset", s.id, exercise, skillLevel)
		s.opts.Exercise = exercise
		s.opts.SkillLevel = skillLevel
	}
	return changed, nil
}

// Reset drops all history and repetition state, keeping the configuration.
func (s *Session) Reset() {
	s.smoother.Reset()
	s.motion.Reset()
	s.reps.Reset()
	s.frames = 0
	s.haveTS = false
	s.inGap = false
	s.lastPose = l1keypoints.Pose{}
}

// ProcessFrame runs one frame through the pipeline. Frames must arrive
// in timestamp order; a regressing timestamp yields zero velocities for
// that step rather than an error.
func (s *Session) ProcessFrame(f l1keypoints.Frame) Metrics {
	s.frames++
	ts := f.Seconds()
	if s.haveTS && ts <= s.lastTS {
		opsf("session %s: non-increasing timestamp %.6fs after %.6fs", s.id, ts, s.lastTS)
	}
	s.lastTS, s.haveTS = ts, true

	if !f.HasPose() {
		return s.noPose(ts)
	}
	if s.inGap {
		diagf("session %s: pose reacquired at %.3fs", s.id, ts)
		s.inGap = false
	}

	smoothed := s.smoother.Smooth(f.Pose)
	s.lastPose = smoothed
	s.motion.Update(smoothed, ts)

	angles := s.angles.Compute(smoothed, s.opts.Exercise)
	state, completed := s.reps.Update(angles)

	velocities := s.motion.Velocities()
	com := l3kinematics.CenterOfMass(smoothed)

	m := Metrics{
		Timestamp:     ts,
		PoseDetected:  true,
		JointAngles:   angles,
		RepCompleted:  completed,
		Velocities:    velocities,
		Accelerations: s.motion.Accelerations(),
		AverageSpeed:  l3kinematics.AverageSpeed(velocities),
		CenterOfMass:  &com,
		AngleSymmetry: s.angleSym.Analyze(angles.Scalars()),
		SpeedSymmetry: s.speedSym.Analyze(speeds(velocities)),
	}
	m.setRepetition(state)
	if s.opts.IncludeKeypoints {
		kp := smoothed
		m.Keypoints = &kp
	}

	if completed {
		diagf("session %s: rep %d completed at %.3fs", s.id, state.RepCount, ts)
	}
	tracef("session %s: t=%.3fs rom=%s reps=%d in_progress=%t angles=%d",
		s.id, ts, state.ROMStatus, state.RepCount, state.RepInProgress, len(angles))
	return m
}

func (s *Session) noPose(ts float64) Metrics {
	if !s.inGap {
		diagf("session %s: no pose at %.3fs", s.id, ts)
		s.inGap = true
	}
	m := Metrics{
		Timestamp:   ts,
		JointAngles: l3kinematics.JointAngleSet{},
	}
	m.setRepetition(s.reps.NoPose())
	return m
}

// LastPose returns the most recent smoothed pose, or the zero pose before
// the first detection.
func (s *Session) LastPose() l1keypoints.Pose { return s.lastPose }

// speeds keys velocity magnitudes by landmark name for symmetry analysis.
func speeds(v map[l1keypoints.Landmark]l1keypoints.Vec3) map[string]float64 {
	out := make(map[string]float64, len(v))
	for lm, vel := range v {
		out[lm.String()] = vel.Norm()
	}
	return out
}
