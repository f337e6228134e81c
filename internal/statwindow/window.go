package statwindow

// DefaultSize is the sample capacity used by the controllers.
const DefaultSize = 10

// #region window
// Window is a fixed-capacity rolling buffer. Push evicts the oldest sample
// once the buffer is full.
type Window[T any] struct {
	buf   []T
	head  int // index of the oldest sample
	count int
}

// New creates a window holding at most size samples. size < 1 falls back to DefaultSize.
func New[T any](size int) *Window[T] {
	if size < 1 {
		size = DefaultSize
	}
	return &Window[T]{buf: make([]T, size)}
}

// Push appends v, evicting the oldest sample when full.
func (w *Window[T]) Push(v T) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = v
		w.count++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns the number of samples held.
func (w *Window[T]) Len() int { return w.count }

// Cap returns the capacity.
func (w *Window[T]) Cap() int { return len(w.buf) }

// Reset drops all samples.
func (w *Window[T]) Reset() {
	var zero T
	for i := range w.buf {
		w.buf[i] = zero
	}
	w.head = 0
	w.count = 0
}

// Values returns the samples oldest first.
func (w *Window[T]) Values() []T {
	out := make([]T, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// #endregion window

// #region stats

// Rate returns the fraction of true samples, or 0 for an empty window.
func Rate(w *Window[bool]) float64 {
	if w.count == 0 {
		return 0
	}
	hits := 0
	for i := 0; i < w.count; i++ {
		if w.buf[(w.head+i)%len(w.buf)] {
			hits++
		}
	}
	return float64(hits) / float64(w.count)
}

// Mean returns the arithmetic mean, or 0 for an empty window.
func Mean(w *Window[float64]) float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.buf[(w.head+i)%len(w.buf)]
	}
	return sum / float64(w.count)
}

// #endregion stats
