// v1
// internal/httpapi/server.go

// Package httpapi exposes the consumer's health, status, and metrics
// endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mokeyzz1/buzzline-03-moses/internal/metrics"
	"github.com/mokeyzz1/buzzline-03-moses/internal/stream"
)

// StatusProvider yields a point-in-time processing snapshot.
type StatusProvider interface {
	Snapshot() stream.Status
}

// NewRouter builds the consumer API routes.
func NewRouter(p StatusProvider) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", handleHealth).Methods("GET")
	r.HandleFunc("/status", handleStatus(p)).Methods("GET")
	r.HandleFunc("/metrics", handleMetrics).Methods("GET")
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleStatus(p StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p.Snapshot()); err != nil {
			http.Error(w, "encode failed", http.StatusInternalServerError)
		}
	}
}

func handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(metrics.Render()))
}

// Serve runs the API until the context is cancelled, then shuts the
// server down gracefully.
func Serve(ctx context.Context, addr string, router *mux.Router, log *slog.Logger) {
	logged := handlers.LoggingHandler(os.Stdout, router)
	srv := &http.Server{
		Addr:         addr,
		Handler:      logged,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http_listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown", "err", err)
	}
}
