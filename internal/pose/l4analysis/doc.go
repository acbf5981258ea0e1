// Package l4analysis owns Layer 4 (Analysis) of the pose data model.
//
// Responsibilities: left/right symmetry ratios over paired per-side
// metrics, and the range-of-motion state machine that turns a tracked
// joint angle into a ROM bucket and a repetition count.
// Key types: SymmetryAnalyzer, RepCounter, RepetitionState, ROMStatus.
//
// Dependency rule: L4 may depend on L1-L3. No I/O is allowed in this
// package.
package l4analysis
