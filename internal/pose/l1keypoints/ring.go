package l1keypoints

// Ring is a bounded FIFO history. Pushing onto a full ring evicts the
// oldest entry. The zero value is unusable; construct with NewRing.
type Ring[T any] struct {
	buf   []T
	start int
	n     int
}

// NewRing returns an empty ring holding at most capacity entries.
// capacity must be positive.
func NewRing[T any](capacity int) Ring[T] {
	return Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest entry when full.
func (r *Ring[T]) Push(v T) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of buffered entries.
func (r *Ring[T]) Len() int { return r.n }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// At returns the i-th entry, oldest first. Negative i counts back from
// the newest entry, so At(-1) is the latest push.
func (r *Ring[T]) At(i int) T {
	if i < 0 {
		i += r.n
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Do calls fn for each entry, oldest first.
func (r *Ring[T]) Do(fn func(T)) {
	for i := 0; i < r.n; i++ {
		fn(r.buf[(r.start+i)%len(r.buf)])
	}
}

// Clear empties the ring without releasing its storage.
func (r *Ring[T]) Clear() {
	r.start = 0
	r.n = 0
}
