package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/form.report/internal/pose/l2smoothing"
	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/l4analysis"
	"github.com/banshee-data/form.report/internal/units"
)

// ErrInvalidAngleUnits is returned for an angle_units value outside units.ValidUnits.
var ErrInvalidAngleUnits = errors.New("invalid angle units")

// DefaultConfigPath is the path to the canonical session defaults file.
// This is the single source of truth for all default session values.
const DefaultConfigPath = "config/session.defaults.json"

// SessionConfig represents the root configuration for a tracking session.
// Every field is optional; Get* methods fall back to built-in defaults so
// partial files are safe.
type SessionConfig struct {
	// Exercise selection
	ExerciseType *string `json:"exercise_type,omitempty"` // pushup | squat | lunge | all
	SkillLevel   *string `json:"skill_level,omitempty"`   // opaque label, not interpreted

	// Smoother params
	WindowSize             *int     `json:"window_size,omitempty"`
	ConfidenceThreshold    *float64 `json:"confidence_threshold,omitempty"`
	SmoothingMethod        *string  `json:"smoothing_method,omitempty"` // moving_average | weighted_average | exponential | kalman
	EMAAlpha               *float64 `json:"ema_alpha,omitempty"`
	KalmanProcessNoise     *float64 `json:"kalman_process_noise,omitempty"`
	KalmanMeasurementNoise *float64 `json:"kalman_measurement_noise,omitempty"`

	// Kinematics params
	AngleVisibilityThreshold *float64 `json:"angle_visibility_threshold,omitempty"`
	MotionWindowSize         *int     `json:"motion_window_size,omitempty"`

	// Range-of-motion bucket boundaries (degrees)
	ROMRestDeg    *float64 `json:"rom_rest_deg,omitempty"`
	ROMPartialDeg *float64 `json:"rom_partial_deg,omitempty"`
	ROMBottomDeg  *float64 `json:"rom_bottom_deg,omitempty"`

	// Output
	AngleUnits *string `json:"angle_units,omitempty"` // deg | rad, for emitted joint angles
}

// EmptySessionConfig returns a SessionConfig with all fields set to nil.
// Use LoadSessionConfig to load actual values from the defaults file.
func EmptySessionConfig() *SessionConfig {
	return &SessionConfig{}
}

// LoadSessionConfig loads a SessionConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySessionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical session defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SessionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/pose/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSessionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
// Unknown enumerations and non-positive window sizes are configuration
// errors and fail fast here rather than per frame.
func (c *SessionConfig) Validate() error {
	if c.ExerciseType != nil {
		if _, err := l3kinematics.ParseExerciseType(*c.ExerciseType); err != nil {
			return err
		}
	}

	if c.SmoothingMethod != nil {
		if _, err := l2smoothing.ParseMethod(*c.SmoothingMethod); err != nil {
			return err
		}
	}

	if c.WindowSize != nil && *c.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size=%d", l2smoothing.ErrInvalidWindowSize, *c.WindowSize)
	}
	if c.MotionWindowSize != nil && *c.MotionWindowSize <= 0 {
		return fmt.Errorf("%w: motion_window_size=%d", l2smoothing.ErrInvalidWindowSize, *c.MotionWindowSize)
	}

	for name, v := range map[string]*float64{
		"confidence_threshold":       c.ConfidenceThreshold,
		"angle_visibility_threshold": c.AngleVisibilityThreshold,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%w: %s=%f", l2smoothing.ErrInvalidThreshold, name, *v)
		}
	}

	if c.EMAAlpha != nil && (*c.EMAAlpha <= 0 || *c.EMAAlpha > 1) {
		return fmt.Errorf("%w: got %f", l2smoothing.ErrInvalidAlpha, *c.EMAAlpha)
	}

	if err := c.GetROMThresholds().Validate(); err != nil {
		return err
	}

	if c.AngleUnits != nil && !units.IsValid(*c.AngleUnits) {
		return fmt.Errorf("%w: angle_units=%q, must be one of: %s", ErrInvalidAngleUnits, *c.AngleUnits, units.GetValidUnitsString())
	}

	return nil
}

// GetExerciseType returns the exercise_type value or the default.
func (c *SessionConfig) GetExerciseType() string {
	if c.ExerciseType == nil {
		return "all"
	}
	return *c.ExerciseType
}

// GetSkillLevel returns the skill_level value or the default.
func (c *SessionConfig) GetSkillLevel() string {
	if c.SkillLevel == nil {
		return "beginner"
	}
	return *c.SkillLevel
}

// GetWindowSize returns the window_size value or the default.
func (c *SessionConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return 10
	}
	return *c.WindowSize
}

// GetConfidenceThreshold returns the confidence_threshold value or the default.
func (c *SessionConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return 0.5
	}
	return *c.ConfidenceThreshold
}

// GetSmoothingMethod returns the smoothing_method value or the default.
func (c *SessionConfig) GetSmoothingMethod() string {
	if c.SmoothingMethod == nil {
		return "moving_average"
	}
	return *c.SmoothingMethod
}

// GetEMAAlpha returns the ema_alpha value or the default.
func (c *SessionConfig) GetEMAAlpha() float64 {
	if c.EMAAlpha == nil {
		return 0.9
	}
	return *c.EMAAlpha
}

// GetKalmanProcessNoise returns the kalman_process_noise value or the default.
func (c *SessionConfig) GetKalmanProcessNoise() float64 {
	if c.KalmanProcessNoise == nil {
		return 1e-4
	}
	return *c.KalmanProcessNoise
}

// GetKalmanMeasurementNoise returns the kalman_measurement_noise value or the default.
func (c *SessionConfig) GetKalmanMeasurementNoise() float64 {
	if c.KalmanMeasurementNoise == nil {
		return 1e-2
	}
	return *c.KalmanMeasurementNoise
}

// GetAngleVisibilityThreshold returns the angle_visibility_threshold value or the default.
func (c *SessionConfig) GetAngleVisibilityThreshold() float64 {
	if c.AngleVisibilityThreshold == nil {
		return 0.2
	}
	return *c.AngleVisibilityThreshold
}

// GetMotionWindowSize returns the motion_window_size value or the default.
func (c *SessionConfig) GetMotionWindowSize() int {
	if c.MotionWindowSize == nil {
		return 5
	}
	return *c.MotionWindowSize
}

// GetROMRestDeg returns the rom_rest_deg value or the default.
func (c *SessionConfig) GetROMRestDeg() float64 {
	if c.ROMRestDeg == nil {
		return 160
	}
	return *c.ROMRestDeg
}

// GetROMPartialDeg returns the rom_partial_deg value or the default.
func (c *SessionConfig) GetROMPartialDeg() float64 {
	if c.ROMPartialDeg == nil {
		return 120
	}
	return *c.ROMPartialDeg
}

// GetROMBottomDeg returns the rom_bottom_deg value or the default.
func (c *SessionConfig) GetROMBottomDeg() float64 {
	if c.ROMBottomDeg == nil {
		return 90
	}
	return *c.ROMBottomDeg
}

// GetROMThresholds returns the three ROM boundaries as one value.
func (c *SessionConfig) GetROMThresholds() l4analysis.Thresholds {
	return l4analysis.Thresholds{
		Rest:    c.GetROMRestDeg(),
		Partial: c.GetROMPartialDeg(),
		Bottom:  c.GetROMBottomDeg(),
	}
}

// GetAngleUnits returns the angle_units value or the default.
func (c *SessionConfig) GetAngleUnits() string {
	if c.AngleUnits == nil {
		return units.Degrees
	}
	return *c.AngleUnits
}
