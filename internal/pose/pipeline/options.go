package pipeline

import (
	"github.com/banshee-data/form.report/internal/config"
	"github.com/banshee-data/form.report/internal/pose/l2smoothing"
	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/l4analysis"
)

// SessionOptions holds everything a Session needs at construction.
type SessionOptions struct {
	Exercise   l3kinematics.ExerciseType
	SkillLevel string

	Smoothing                l2smoothing.Config
	AngleVisibilityThreshold float64
	MotionWindowSize         int
	ROM                      l4analysis.Thresholds

	// IncludeKeypoints copies the smoothed pose into every Metrics.
	IncludeKeypoints bool
}

// DefaultSessionOptions returns options matching config/session.defaults.json.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Exercise:                 l3kinematics.All,
		SkillLevel:               "beginner",
		Smoothing:                l2smoothing.DefaultConfig(),
		AngleVisibilityThreshold: 0.2,
		MotionWindowSize:         5,
		ROM:                      l4analysis.DefaultThresholds(),
	}
}

// SessionOptionsFromConfig builds session options from a loaded config.
// Nil fields fall back to defaults via the config getters.
func SessionOptionsFromConfig(cfg *config.SessionConfig) SessionOptions {
	return SessionOptions{
		Exercise:   l3kinematics.ExerciseType(cfg.GetExerciseType()),
		SkillLevel: cfg.GetSkillLevel(),
		Smoothing: l2smoothing.Config{
			WindowSize:             cfg.GetWindowSize(),
			ConfidenceThreshold:    cfg.GetConfidenceThreshold(),
			Method:                 l2smoothing.Method(cfg.GetSmoothingMethod()),
			Alpha:                  cfg.GetEMAAlpha(),
			KalmanProcessNoise:     cfg.GetKalmanProcessNoise(),
			KalmanMeasurementNoise: cfg.GetKalmanMeasurementNoise(),
		},
		AngleVisibilityThreshold: cfg.GetAngleVisibilityThreshold(),
		MotionWindowSize:         cfg.GetMotionWindowSize(),
		ROM:                      cfg.GetROMThresholds(),
	}
}
