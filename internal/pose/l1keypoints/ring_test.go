package l1keypoints

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingEvictsOldest(t *testing.T) {
	t.Parallel()

	r := NewRing[int](3)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, r.Cap())

	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.At(0))
	assert.Equal(t, 5, r.At(-1))
	assert.Equal(t, 4, r.At(-2))

	var got []int
	r.Do(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{3, 4, 5}, got)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	r.Push(9)
	assert.Equal(t, 9, r.At(-1))
}
