// Package pipeline is the composition root of the pose layers.
//
// A Session owns every piece of per-stream state (smoothing histories,
// Kalman filters, motion history, repetition state) and runs one frame
// through L2 smoothing, L3 kinematics and L4 analysis, returning a
// Metrics bundle. Sessions are independent; run one per camera stream.
//
// Dependency rule: pipeline may import L1-L4 and internal/config.
// Nothing in internal/pose imports pipeline.
package pipeline
