// v1
// internal/detect/detect.go

// Package detect implements the temperature rules applied to the smoker
// reading stream: a rolling-window stall check and a high-temperature
// ceiling check.
package detect

// Reading is one timestamped temperature observation as carried on the
// readings topic. Immutable once decoded.
type Reading struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
}

// Detector holds the detection parameters, fixed at startup and passed by
// value into the stream processor. Both checks are pure functions of their
// inputs.
type Detector struct {
	// WindowSize is the number of readings a window must hold before the
	// stall check produces a signal.
	WindowSize int
	// StallThreshold is the maximum max-min spread, inclusive, for a full
	// window to count as stalled.
	StallThreshold float64
	// HighTempLimit is the ceiling above which a single reading alerts.
	HighTempLimit float64
}

// Result captures the outcome of evaluating one reading. Ephemeral, never
// persisted.
type Result struct {
	Stalled  bool
	HighTemp bool
	Reading  Reading
}

// Stalled reports whether the window indicates a temperature stall. A
// window that has never been full never stalls; that is the insufficient
// data policy, not an error. The threshold comparison is inclusive, so a
// threshold of zero requires every buffered value to be identical.
func (d Detector) Stalled(w *Window) bool {
	if w.Len() < d.WindowSize {
		return false
	}
	spread, ok := w.Spread()
	if !ok {
		return false
	}
	return spread <= d.StallThreshold
}

// HighTemp reports whether a single reading exceeds the configured
// ceiling. Strict inequality: a reading exactly at the limit does not
// trigger.
func (d Detector) HighTemp(v float64) bool {
	return v > d.HighTempLimit
}

// Evaluate runs both rules against an already-updated window and the raw
// reading that produced the update.
func (d Detector) Evaluate(w *Window, r Reading) Result {
	return Result{
		Stalled:  d.Stalled(w),
		HighTemp: d.HighTemp(r.Temperature),
		Reading:  r,
	}
}
