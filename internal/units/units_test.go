package units

import (
	"math"
	"testing"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		name     string
		angleDeg float64
		units    string
		expected float64
	}{
		{"180 deg to rad", 180.0, Radians, math.Pi},
		{"90 deg to rad", 90.0, Radians, math.Pi / 2},
		{"90 deg to deg", 90.0, Degrees, 90.0},
		{"unknown units default to deg", 45.0, "grad", 45.0},
		{"0 deg to rad", 0.0, Radians, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertAngle(tt.angleDeg, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertAngle(%f, %s) = %f, want %f", tt.angleDeg, tt.units, result, tt.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 30, 90, 135.5, 180} {
		if got := RadiansToDegrees(DegreesToRadians(deg)); math.Abs(got-deg) > 1e-9 {
			t.Errorf("round trip %f -> %f", deg, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"degrees", Degrees, true},
		{"radians", Radians, true},
		{"empty", "", false},
		{"gradians", "grad", false},
		{"case sensitive", "DEG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "deg, rad" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}
