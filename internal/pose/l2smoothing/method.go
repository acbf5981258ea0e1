package l2smoothing

import (
	"errors"
	"fmt"
)

// Method selects the smoothing strategy. It is resolved once when the
// Smoother is built.
type Method string

const (
	MovingAverage      Method = "moving_average"
	WeightedAverage    Method = "weighted_average"
	ExponentialAverage Method = "exponential"
	Kalman             Method = "kalman"
)

// Configuration errors. Callers test them with errors.Is.
var (
	ErrUnknownSmoothingMethod = errors.New("unknown smoothing method")
	ErrInvalidWindowSize      = errors.New("window size must be positive")
	ErrInvalidThreshold       = errors.New("confidence threshold must be in [0,1]")
	ErrInvalidAlpha           = errors.New("ema alpha must be in (0,1]")
	ErrInvalidNoise           = errors.New("kalman noise must be positive")
)

// Methods lists every supported strategy.
var Methods = []Method{MovingAverage, WeightedAverage, ExponentialAverage, Kalman}

// ParseMethod resolves a method name such as "kalman".
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSmoothingMethod, name)
}

// Config holds the smoother parameters.
type Config struct {
	WindowSize          int     // History depth per landmark
	ConfidenceThreshold float64 // Samples below this visibility are never buffered
	Method              Method

	Alpha                  float64 // EMA weight of the newest sample
	KalmanProcessNoise     float64 // Q diagonal (σ²)
	KalmanMeasurementNoise float64 // R diagonal (σ²)
}

// DefaultConfig returns a moving-average configuration with the
// parameters the live tracker runs with.
func DefaultConfig() Config {
	return Config{
		WindowSize:             10,
		ConfidenceThreshold:    0.5,
		Method:                 MovingAverage,
		Alpha:                  0.9,
		KalmanProcessNoise:     1e-4,
		KalmanMeasurementNoise: 1e-2,
	}
}

// Validate reports the first configuration error, if any. Strategy
// parameters are only checked for the strategy that uses them.
func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindowSize, c.WindowSize)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: got %f", ErrInvalidThreshold, c.ConfidenceThreshold)
	}
	switch c.Method {
	case MovingAverage, WeightedAverage:
	case ExponentialAverage:
		if c.Alpha <= 0 || c.Alpha > 1 {
			return fmt.Errorf("%w: got %f", ErrInvalidAlpha, c.Alpha)
		}
	case Kalman:
		if c.KalmanProcessNoise <= 0 || c.KalmanMeasurementNoise <= 0 {
			return fmt.Errorf("%w: q=%g r=%g", ErrInvalidNoise, c.KalmanProcessNoise, c.KalmanMeasurementNoise)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSmoothingMethod, c.Method)
	}
	return nil
}
