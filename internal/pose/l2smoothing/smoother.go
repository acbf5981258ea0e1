package l2smoothing

import (
	"fmt"

	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
	"gonum.org/v1/gonum/stat"
)

// estimator computes the smoothed position for landmark idx after the
// accepted sample kp has been pushed into its history.
type estimator func(s *Smoother, idx int, kp l1keypoints.Keypoint) l1keypoints.Vec3

// Smoother reduces frame-to-frame jitter per landmark. It owns one
// bounded history per landmark index and, for the Kalman strategy, one
// filter per index. Landmarks never influence each other.
//
// A Smoother is not safe for concurrent use; each stream owns its own.
type Smoother struct {
	cfg      Config
	estimate estimator

	history [l1keypoints.NumLandmarks]l1keypoints.Ring[l1keypoints.Keypoint]
	last    [l1keypoints.NumLandmarks]l1keypoints.Vec3
	hasLast [l1keypoints.NumLandmarks]bool

	filters [l1keypoints.NumLandmarks]kalmanFilter
	noise   kalmanNoise

	// scratch buffers reused across calls
	xs, ys, zs, ws []float64
}

// NewSmoother validates cfg and resolves the strategy. Configuration
// problems are reported here, never per frame.
func NewSmoother(cfg Config) (*Smoother, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid smoother config: %w", err)
	}

	s := &Smoother{
		cfg: cfg,
		xs:  make([]float64, 0, cfg.WindowSize),
		ys:  make([]float64, 0, cfg.WindowSize),
		zs:  make([]float64, 0, cfg.WindowSize),
		ws:  make([]float64, 0, cfg.WindowSize),
	}
	for i := range s.history {
		s.history[i] = l1keypoints.NewRing[l1keypoints.Keypoint](cfg.WindowSize)
	}

	switch cfg.Method {
	case MovingAverage:
		s.estimate = (*Smoother).movingAverage
	case WeightedAverage:
		s.estimate = (*Smoother).weightedAverage
	case ExponentialAverage:
		s.estimate = (*Smoother).exponentialAverage
	case Kalman:
		s.noise = newKalmanNoise(cfg.KalmanProcessNoise, cfg.KalmanMeasurementNoise)
		s.estimate = (*Smoother).kalman
	}
	return s, nil
}

// Config returns the configuration the smoother was built with.
func (s *Smoother) Config() Config {
	return s.cfg
}

// Smooth consumes the next pose and returns one smoothed keypoint per
// landmark. Output visibility is always the incoming visibility.
//
// A sample below the confidence threshold is never buffered; the last
// emitted position for that landmark is repeated instead (origin when
// nothing has been emitted yet).
func (s *Smoother) Smooth(pose l1keypoints.Pose) l1keypoints.Pose {
	var out l1keypoints.Pose
	for idx, kp := range pose {
		out[idx] = s.smoothOne(idx, kp)
	}
	return out
}

func (s *Smoother) smoothOne(idx int, kp l1keypoints.Keypoint) l1keypoints.Keypoint {
	if kp.Visibility < s.cfg.ConfidenceThreshold {
		return kp.WithPosition(s.last[idx])
	}

	s.history[idx].Push(kp)

	var pos l1keypoints.Vec3
	if s.cfg.WindowSize == 1 {
		// A one-sample window carries no temporal memory.
		pos = kp.Position()
	} else {
		pos = s.estimate(s, idx, kp)
	}

	s.last[idx] = pos
	s.hasLast[idx] = true
	return kp.WithPosition(pos)
}

// HistoryLen returns how many samples are buffered for landmark idx.
func (s *Smoother) HistoryLen(idx l1keypoints.Landmark) int {
	return s.history[idx].Len()
}

// Reset drops all history and filter state.
func (s *Smoother) Reset() {
	for i := range s.history {
		s.history[i].Clear()
		s.filters[i] = kalmanFilter{}
	}
	s.last = [l1keypoints.NumLandmarks]l1keypoints.Vec3{}
	s.hasLast = [l1keypoints.NumLandmarks]bool{}
}

// collect copies the window for idx into the scratch buffers.
func (s *Smoother) collect(idx int) {
	s.xs, s.ys, s.zs, s.ws = s.xs[:0], s.ys[:0], s.zs[:0], s.ws[:0]
	s.history[idx].Do(func(kp l1keypoints.Keypoint) {
		s.xs = append(s.xs, kp.X)
		s.ys = append(s.ys, kp.Y)
		s.zs = append(s.zs, kp.Z)
		s.ws = append(s.ws, kp.Visibility)
	})
}

func (s *Smoother) movingAverage(idx int, _ l1keypoints.Keypoint) l1keypoints.Vec3 {
	s.collect(idx)
	return l1keypoints.Vec3{
		X: stat.Mean(s.xs, nil),
		Y: stat.Mean(s.ys, nil),
		Z: stat.Mean(s.zs, nil),
	}
}

func (s *Smoother) weightedAverage(idx int, _ l1keypoints.Keypoint) l1keypoints.Vec3 {
	s.collect(idx)
	weights := s.ws
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		// Only reachable with a zero threshold and zero-visibility samples.
		weights = nil
	}
	return l1keypoints.Vec3{
		X: stat.Mean(s.xs, weights),
		Y: stat.Mean(s.ys, weights),
		Z: stat.Mean(s.zs, weights),
	}
}

func (s *Smoother) exponentialAverage(idx int, kp l1keypoints.Keypoint) l1keypoints.Vec3 {
	if !s.hasLast[idx] {
		return kp.Position()
	}
	a := s.cfg.Alpha
	return kp.Position().Scale(a).Add(s.last[idx].Scale(1 - a))
}

func (s *Smoother) kalman(idx int, kp l1keypoints.Keypoint) l1keypoints.Vec3 {
	return s.filters[idx].step(kp.Position(), s.noise)
}
