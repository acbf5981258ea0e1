package l4analysis

import "math"

// DefaultPairs are the body sides compared by the symmetry analyzer.
// A pair name p matches the metrics "left_"+p and "right_"+p.
var DefaultPairs = []string{"shoulder", "elbow", "wrist", "hip", "knee", "ankle"}

// SymmetryScore maps a pair name to a ratio in [0,1]; 1 is perfect
// left/right parity.
type SymmetryScore map[string]float64

// SymmetryRatio returns min(|l|,|r|)/max(|l|,|r|). Two zero sides are
// perfectly symmetric. The ratio is commutative.
func SymmetryRatio(left, right float64) float64 {
	l, r := math.Abs(left), math.Abs(right)
	hi := math.Max(l, r)
	if hi == 0 {
		return 1.0
	}
	return math.Min(l, r) / hi
}

// SymmetryAnalyzer compares per-side scalars sharing one unit.
type SymmetryAnalyzer struct {
	Pairs []string
}

// NewSymmetryAnalyzer returns an analyzer over DefaultPairs.
func NewSymmetryAnalyzer() SymmetryAnalyzer {
	return SymmetryAnalyzer{Pairs: DefaultPairs}
}

// Analyze returns a ratio for every pair whose left and right values are
// both present. Pairs missing a side are omitted.
func (a SymmetryAnalyzer) Analyze(metrics map[string]float64) SymmetryScore {
	out := make(SymmetryScore)
	for _, pair := range a.Pairs {
		l, okL := metrics["left_"+pair]
		r, okR := metrics["right_"+pair]
		if !okL || !okR {
			continue
		}
		out[pair] = SymmetryRatio(l, r)
	}
	return out
}
