package l1keypoints

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLandmarkNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nose", Nose.String())
	assert.Equal(t, "left_knee", LeftKnee.String())
	assert.Equal(t, "right_foot_index", RightFootIndex.String())
	assert.Equal(t, 32, int(RightFootIndex))
	assert.Equal(t, "landmark(40)", Landmark(40).String())

	idx, ok := LandmarkByName("right_elbow")
	require.True(t, ok)
	assert.Equal(t, RightElbow, idx)

	_, ok = LandmarkByName("tail")
	assert.False(t, ok)
}

func TestVec3Helpers(t *testing.T) {
	t.Parallel()

	a := Vec3{X: 1, Y: 2, Z: 2}
	assert.InDelta(t, 3.0, a.Norm(), 1e-12)
	assert.InDelta(t, 1.0, a.Normalize().Norm(), 1e-12)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	assert.InDelta(t, 5.0, Distance(Vec3{}, Vec3{X: 3, Y: 4}), 1e-12)
	assert.Equal(t, Vec3{X: 2, Y: 4, Z: 4}, a.Scale(2))
	assert.Equal(t, Vec3{}, a.Sub(a))
	assert.InDelta(t, 9.0, a.Dot(a), 1e-12)
	assert.False(t, math.IsNaN(Vec3{}.Normalize().X))
}

func TestNewFrame(t *testing.T) {
	t.Parallel()

	t.Run("no pose", func(t *testing.T) {
		t.Parallel()
		f, err := NewFrame(time.Second, nil)
		require.NoError(t, err)
		assert.False(t, f.HasPose())
		assert.InDelta(t, 1.0, f.Seconds(), 1e-12)
	})

	t.Run("wrong count", func(t *testing.T) {
		t.Parallel()
		_, err := NewFrame(0, make([]Keypoint, 12))
		require.ErrorIs(t, err, ErrWrongKeypointCount)
	})

	t.Run("copies keypoints", func(t *testing.T) {
		t.Parallel()
		kps := make([]Keypoint, NumLandmarks)
		kps[LeftKnee] = Keypoint{X: 0.5, Y: 0.6, Z: -0.1, Visibility: 0.9}
		f, err := NewFrame(40*time.Millisecond, kps)
		require.NoError(t, err)
		require.True(t, f.HasPose())

		kps[LeftKnee].X = 99
		assert.Equal(t, 0.5, f.Pose[LeftKnee].X)
		assert.Equal(t, Vec3{X: 0.5, Y: 0.6, Z: -0.1}, f.Pose[LeftKnee].Position())
	})
}

func TestLandmarkMapKeysEncodeByName(t *testing.T) {
	t.Parallel()

	in := map[Landmark]Vec3{LeftKnee: {X: 1}, Nose: {Y: 2}}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"left_knee":{"x":1,"y":0,"z":0},"nose":{"x":0,"y":2,"z":0}}`, string(b))

	var out map[Landmark]Vec3
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"tail":{"x":1}}`), &out))
}
