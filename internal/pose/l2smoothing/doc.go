// Package l2smoothing owns Layer 2 (Smoothing) of the pose data model.
//
// Responsibilities: per-landmark bounded history, confidence gating with
// hold-last substitution, and the four smoothing strategies (moving
// average, confidence-weighted average, exponential moving average and a
// constant-position Kalman filter).
// Key types: Smoother, Config, Method.
//
// Dependency rule: L2 may depend on L1, never on L3 or above.
package l2smoothing
