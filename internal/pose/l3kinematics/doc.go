// Package l3kinematics owns Layer 3 (Kinematics) of the pose data model.
//
// Responsibilities: joint angles from smoothed keypoints, per-landmark
// velocity and acceleration from timestamped history, and the
// segment-weighted whole-body center of mass.
// Key types: AngleEngine, JointAngleSet, MotionAnalyzer, CenterOfMass.
//
// Dependency rule: L3 may depend on L1-L2, never on L4.
package l3kinematics
