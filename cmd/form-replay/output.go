package main

import (
	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/pipeline"
	"github.com/banshee-data/form.report/internal/units"
)

// frameOutput is the JSON line written per frame. Joint angles are
// reported in angleUnits; undefined angles stay null.
type frameOutput struct {
	pipeline.Metrics
	JointAngles map[l3kinematics.Joint]*float64 `json:"joint_angles"`
	AngleUnits  string                          `json:"angle_units"`
}

func newFrameOutput(m pipeline.Metrics, angleUnits string) frameOutput {
	angles := make(map[l3kinematics.Joint]*float64, len(m.JointAngles))
	for j, a := range m.JointAngles {
		if !a.Valid {
			angles[j] = nil
			continue
		}
		v := units.ConvertAngle(a.Degrees, angleUnits)
		angles[j] = &v
	}
	return frameOutput{Metrics: m, JointAngles: angles, AngleUnits: angleUnits}
}
