// v0
// internal/httpapi/server_test.go
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mokeyzz1/buzzline-03-moses/internal/stream"
)

type stubProvider struct {
	status stream.Status
}

func (s stubProvider) Snapshot() stream.Status {
	return s.status
}

func TestHealthEndpoint(t *testing.T) {
	r := NewRouter(stubProvider{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestStatusEndpointReturnsSnapshot(t *testing.T) {
	st := stream.Status{
		State:        "running",
		Processed:    7,
		ParseErrors:  1,
		WindowValues: []float64{200, 200.1},
		WindowSpread: 0.1,
	}
	r := NewRouter(stubProvider{status: st})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var got stream.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Processed != 7 || got.State != "running" || len(got.WindowValues) != 2 {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
}

func TestMetricsEndpointRendersExposition(t *testing.T) {
	r := NewRouter(stubProvider{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "buzzline_consumer_messages_total") {
		t.Fatalf("exposition missing expected series:\n%s", rec.Body.String())
	}
}

func TestStatusMethodNotAllowed(t *testing.T) {
	r := NewRouter(stubProvider{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
