// v1
// internal/alert/alert.go

// Package alert defines the structured events the consumer raises and the
// sinks that carry them downstream. Sinks are fire-and-forget; the stream
// processor never depends on delivery acknowledgement.
package alert

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an alert.
type Kind string

const (
	// KindHighTemp fires when a single reading exceeds the ceiling.
	KindHighTemp Kind = "high_temp"
	// KindStall fires when the rolling window spread stays within the
	// stall threshold.
	KindStall Kind = "stall"
	// KindParseError records a malformed payload that was skipped.
	KindParseError Kind = "parse_error"
	// KindFatalError records an unrecoverable failure of the run loop.
	KindFatalError Kind = "fatal_error"
)

// Alert is one structured event. Timestamp carries the source reading
// timestamp when one exists; RaisedAt is when the consumer raised it.
type Alert struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Timestamp   string    `json:"timestamp,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	RaisedAt    time.Time `json:"raisedAt"`
}

// New builds an alert with a fresh correlation id.
func New(kind Kind, timestamp string, temperature float64, detail string) Alert {
	return Alert{
		ID:          uuid.NewString(),
		Kind:        kind,
		Timestamp:   timestamp,
		Temperature: temperature,
		Detail:      detail,
		RaisedAt:    time.Now().UTC(),
	}
}
