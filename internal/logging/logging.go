// v1
// internal/logging/logging.go

// Package logging wires slog to stdout plus a log file so container logs
// and on-disk logs stay in sync.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

// Init configures slog to write to both stdout and the given file path.
// It returns the logger and the opened *os.File so callers can Close() on
// shutdown. When the file cannot be opened the logger falls back to
// stdout only and the returned file is nil.
func Init(path string) (*slog.Logger, *os.File) {
	if path == "" {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		return logger, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		logger.Error("failed to create log directory; falling back to stdout only", "path", path, "err", err)
		return logger, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		logger.Error("failed to open log file; falling back to stdout only", "path", path, "err", err)
		return logger, nil
	}

	mw := io.MultiWriter(os.Stdout, f)
	logger := slog.New(slog.NewTextHandler(mw, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// align legacy stdlib log output with the multi-writer too
	log.SetOutput(mw)
	return logger, f
}
