// v0
// internal/feed/csv_test.go
package feed

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeDataFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temps.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeedYieldsTemperatures(t *testing.T) {
	path := writeDataFile(t, "time,temperature\n1,200.5\n2,201\n3,199.8\n")
	f, err := Open(path, quietLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	want := []float64{200.5, 201, 199.8}
	for i, w := range want {
		got, err := f.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("row %d: got %v want %v", i, got, w)
		}
	}
}

func TestFeedRewindsAtEOF(t *testing.T) {
	path := writeDataFile(t, "temperature\n100\n101\n")
	f, err := Open(path, quietLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	want := []float64{100, 101, 100, 101, 100}
	for i, w := range want {
		got, err := f.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("read %d: got %v want %v", i, got, w)
		}
	}
}

func TestFeedSkipsBadRows(t *testing.T) {
	path := writeDataFile(t, "time,temperature\n1,not-a-number\n2,202\n")
	f, err := Open(path, quietLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	got, err := f.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != 202 {
		t.Fatalf("expected bad row skipped, got %v", got)
	}
}

func TestFeedErrorsWhenNoUsableRows(t *testing.T) {
	path := writeDataFile(t, "time,temperature\n")
	f, err := Open(path, quietLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.Next(); err == nil {
		t.Fatal("header-only file must not loop forever")
	}
}

func TestOpenRejectsMissingTemperatureColumn(t *testing.T) {
	path := writeDataFile(t, "time,humidity\n1,40\n")
	if _, err := Open(path, quietLogger()); !errors.Is(err, ErrNoTemperatureColumn) {
		t.Fatalf("expected ErrNoTemperatureColumn, got %v", err)
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.csv"), quietLogger()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
