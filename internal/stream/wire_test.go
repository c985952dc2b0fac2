// v0
// internal/stream/wire_test.go
package stream

import "testing"

func TestDecodeReading(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		temp    float64
		ts      string
	}{
		{
			name: "valid payload",
			raw:  `{"timestamp": "2025-01-11T18:15:00Z", "temperature": 225.0}`,
			temp: 225, ts: "2025-01-11T18:15:00Z",
		},
		{
			name: "extra fields tolerated",
			raw:  `{"timestamp": "2025-01-11T18:15:00Z", "temperature": 225.0, "sensor": "mk-1"}`,
			temp: 225, ts: "2025-01-11T18:15:00Z",
		},
		{
			name: "zero temperature is valid",
			raw:  `{"timestamp": "2025-01-11T18:15:00Z", "temperature": 0}`,
			temp: 0, ts: "2025-01-11T18:15:00Z",
		},
		{name: "not json", raw: `smoker went bang`, wantErr: true},
		{name: "missing temperature", raw: `{"timestamp": "2025-01-11T18:15:00Z"}`, wantErr: true},
		{name: "missing timestamp", raw: `{"temperature": 225.0}`, wantErr: true},
		{name: "empty timestamp", raw: `{"timestamp": "  ", "temperature": 225.0}`, wantErr: true},
		{name: "empty object", raw: `{}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := decodeReading([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Temperature != tc.temp || r.Timestamp != tc.ts {
				t.Fatalf("got %+v, want temp=%v ts=%q", r, tc.temp, tc.ts)
			}
		})
	}
}
