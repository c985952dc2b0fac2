// v1
// internal/detect/window.go
package detect

// Window is a fixed-capacity ring buffer holding the most recent
// temperature readings. Capacity is fixed at construction and the backing
// array is allocated once; pushing into a full window evicts the oldest
// value. A Window is owned by a single processor and is not safe for
// concurrent use.
type Window struct {
	values []float64
	start  int
	count  int
}

// NewWindow allocates a window with the given capacity. Capacities below
// one are promoted to one so the zero-config path still yields a usable
// buffer.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{values: make([]float64, capacity)}
}

// Push appends v, evicting the oldest reading when the window is full.
func (w *Window) Push(v float64) {
	if w.count < len(w.values) {
		w.values[(w.start+w.count)%len(w.values)] = v
		w.count++
		return
	}
	w.values[w.start] = v
	w.start = (w.start + 1) % len(w.values)
}

// Len returns the number of buffered readings.
func (w *Window) Len() int {
	return w.count
}

// Cap returns the fixed capacity.
func (w *Window) Cap() int {
	return len(w.values)
}

// Full reports whether the window holds exactly its capacity of readings.
func (w *Window) Full() bool {
	return w.count == len(w.values)
}

// Spread returns max-min over the buffered readings. The second return is
// false when the window is empty and the spread is undefined.
func (w *Window) Spread() (float64, bool) {
	if w.count == 0 {
		return 0, false
	}
	lo := w.values[w.start]
	hi := lo
	for i := 1; i < w.count; i++ {
		v := w.values[(w.start+i)%len(w.values)]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo, true
}

// Values returns a defensive copy of the buffered readings in insertion
// order, oldest first.
func (w *Window) Values() []float64 {
	if w.count == 0 {
		return nil
	}
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.values[(w.start+i)%len(w.values)]
	}
	return out
}
