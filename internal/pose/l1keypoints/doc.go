// Package l1keypoints owns Layer 1 (Keypoints) of the pose data model.
//
// Responsibilities: the immutable Keypoint and Frame records produced by
// the external keypoint detector, the fixed 33-entry landmark enumeration,
// and the small 3D vector helpers shared by the higher layers.
// Key types: Keypoint, Frame, Vec3, Landmark.
//
// Dependency rule: L1 depends on nothing inside internal/pose.
package l1keypoints
