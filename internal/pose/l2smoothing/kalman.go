package l2smoothing

import (
	"math"

	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
	"gonum.org/v1/gonum/mat"
)

// kalmanFilter is a constant-position filter over one landmark:
// state x = [x, y, z], transition F = I, observation H = I.
type kalmanFilter struct {
	x           *mat.VecDense
	p           *mat.Dense
	initialized bool
}

// kalmanNoise holds the fixed covariances shared by every landmark filter.
// The matrices are read-only after construction.
type kalmanNoise struct {
	q *mat.Dense
	r *mat.Dense
}

func newKalmanNoise(processNoise, measurementNoise float64) kalmanNoise {
	return kalmanNoise{
		q: diag3(processNoise),
		r: diag3(measurementNoise),
	}
}

func diag3(v float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		v, 0, 0,
		0, v, 0,
		0, 0, v,
	})
}

// reset seeds the filter at z with covariance R.
func (kf *kalmanFilter) reset(z l1keypoints.Vec3, noise kalmanNoise) {
	kf.x = mat.NewVecDense(3, []float64{z.X, z.Y, z.Z})
	kf.p = mat.DenseCopyOf(noise.r)
	kf.initialized = true
}

// step runs predict then update against measurement z and returns the
// filtered position.
func (kf *kalmanFilter) step(z l1keypoints.Vec3, noise kalmanNoise) l1keypoints.Vec3 {
	if !kf.initialized {
		kf.reset(z, noise)
		return z
	}

	// Predict: x' = F x = x, P' = F P Fᵀ + Q = P + Q
	kf.p.Add(kf.p, noise.q)

	// Innovation covariance S = H P Hᵀ + R = P + R
	var s, sInv mat.Dense
	s.Add(kf.p, noise.r)
	if err := sInv.Inverse(&s); err != nil {
		debugf("kalman: singular innovation covariance, reseeding: %v", err)
		kf.reset(z, noise)
		return z
	}

	// Gain K = P Hᵀ S⁻¹ = P S⁻¹
	var k mat.Dense
	k.Mul(kf.p, &sInv)

	// x = x + K (z - H x)
	y := mat.NewVecDense(3, []float64{
		z.X - kf.x.AtVec(0),
		z.Y - kf.x.AtVec(1),
		z.Z - kf.x.AtVec(2),
	})
	var correction mat.VecDense
	correction.MulVec(&k, y)
	kf.x.AddVec(kf.x, &correction)

	// P = (I - K H) P
	var ikh, p mat.Dense
	ikh.Sub(diag3(1), &k)
	p.Mul(&ikh, kf.p)
	kf.p = &p

	if !kf.finite() {
		debugf("kalman: non-finite state, reseeding at measurement")
		kf.reset(z, noise)
		return z
	}
	return l1keypoints.Vec3{X: kf.x.AtVec(0), Y: kf.x.AtVec(1), Z: kf.x.AtVec(2)}
}

// finite reports whether the state and covariance diagonal are free of
// NaN and ±Inf.
func (kf *kalmanFilter) finite() bool {
	for i := 0; i < 3; i++ {
		for _, v := range []float64{kf.x.AtVec(i), kf.p.At(i, i)} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
