// v1
// internal/stream/wire.go
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mokeyzz1/buzzline-03-moses/internal/detect"
)

// readingWire mirrors the payload schema on the readings topic. Pointer
// fields distinguish absent fields from zero values so incomplete records
// are rejected rather than silently defaulted.
type readingWire struct {
	Timestamp   *string  `json:"timestamp"`
	Temperature *float64 `json:"temperature"`
}

// decodeReading parses one payload, requiring both named fields. Any
// failure here is a recoverable skip-and-continue condition for the
// processor.
func decodeReading(raw []byte) (detect.Reading, error) {
	var w readingWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return detect.Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	if w.Timestamp == nil || strings.TrimSpace(*w.Timestamp) == "" {
		return detect.Reading{}, errors.New("timestamp missing or empty")
	}
	if w.Temperature == nil {
		return detect.Reading{}, errors.New("temperature missing")
	}
	return detect.Reading{Timestamp: strings.TrimSpace(*w.Timestamp), Temperature: *w.Temperature}, nil
}
