// v0
// internal/detect/detect_test.go

package detect

import "testing"

func TestStalledRequiresFullWindow(t *testing.T) {
	d := Detector{WindowSize: 5, StallThreshold: 0.2, HighTempLimit: 300}
	w := NewWindow(5)
	for i := 0; i < 4; i++ {
		w.Push(200)
		if d.Stalled(w) {
			t.Fatalf("stall reported with %d/%d readings", w.Len(), d.WindowSize)
		}
	}
	w.Push(200)
	if !d.Stalled(w) {
		t.Fatal("full window of identical values must stall")
	}
}

func TestStalledZeroThreshold(t *testing.T) {
	d := Detector{WindowSize: 3, StallThreshold: 0, HighTempLimit: 300}
	w := NewWindow(3)
	for i := 0; i < 3; i++ {
		w.Push(225)
	}
	if !d.Stalled(w) {
		t.Fatal("identical values with zero threshold must stall")
	}
	w.Push(225.01)
	if d.Stalled(w) {
		t.Fatal("any variance must defeat a zero threshold")
	}
}

func TestStalledInclusiveBoundary(t *testing.T) {
	d := Detector{WindowSize: 2, StallThreshold: 0.5, HighTempLimit: 300}
	w := NewWindow(2)
	w.Push(200)
	w.Push(200.5)
	if !d.Stalled(w) {
		t.Fatal("spread exactly at threshold must count as stalled")
	}
}

func TestStalledScenarios(t *testing.T) {
	tests := []struct {
		name  string
		feed  []float64
		want  bool
	}{
		{name: "drift within threshold", feed: []float64{200, 200.1, 200.05, 200.15, 200.1}, want: true},
		{name: "spike breaks stall", feed: []float64{200, 210, 200, 200, 200}, want: false},
	}
	d := Detector{WindowSize: 5, StallThreshold: 0.2, HighTempLimit: 300}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWindow(5)
			for _, v := range tc.feed {
				w.Push(v)
			}
			if got := d.Stalled(w); got != tc.want {
				t.Fatalf("Stalled=%v want %v for feed %v", got, tc.want, tc.feed)
			}
		})
	}
}

func TestHighTempStrictBoundary(t *testing.T) {
	d := Detector{WindowSize: 5, StallThreshold: 0.2, HighTempLimit: 300}
	if d.HighTemp(300) {
		t.Fatal("reading exactly at the limit must not trigger")
	}
	if !d.HighTemp(300.01) {
		t.Fatal("reading above the limit must trigger")
	}
}

func TestEvaluateIndependentRules(t *testing.T) {
	d := Detector{WindowSize: 5, StallThreshold: 0.2, HighTempLimit: 300}
	w := NewWindow(5)
	r := Reading{Timestamp: "2025-01-11T18:15:00Z", Temperature: 310}
	w.Push(r.Temperature)
	res := d.Evaluate(w, r)
	if !res.HighTemp {
		t.Fatal("high temp must fire regardless of window fullness")
	}
	if res.Stalled {
		t.Fatal("partial window must not stall")
	}
	if res.Reading != r {
		t.Fatalf("result must carry the source reading, got %+v", res.Reading)
	}
}
