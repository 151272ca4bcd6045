package stream

// Ring is a fixed-capacity buffer that overwrites its oldest element once
// full.
type Ring[T any] struct {
	buf   []T
	start int
	n     int
}

// NewRing returns an empty ring holding up to capacity elements. A capacity
// below one is treated as one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting and returning the oldest element when full.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return evicted, false
	}
	evicted = r.buf[r.start]
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
	return evicted, true
}

func (r *Ring[T]) Len() int   { return r.n }
func (r *Ring[T]) Cap() int   { return len(r.buf) }
func (r *Ring[T]) Full() bool { return r.n == len(r.buf) }

// At returns the i-th element counting from the oldest.
func (r *Ring[T]) At(i int) T {
	return r.buf[(r.start+i)%len(r.buf)]
}

// Back returns the element n positions before the newest (0 = newest).
func (r *Ring[T]) Back(n int) (T, bool) {
	var zero T
	if n < 0 || n >= r.n {
		return zero, false
	}
	return r.At(r.n - 1 - n), true
}

// Each calls fn for every element from oldest to newest.
func (r *Ring[T]) Each(fn func(T)) {
	for i := 0; i < r.n; i++ {
		fn(r.At(i))
	}
}

func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start, r.n = 0, 0
}
