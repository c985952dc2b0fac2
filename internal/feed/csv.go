// v1
// internal/feed/csv.go

// Package feed replays temperature values from a CSV data file. The file
// is read row by row and rewound at EOF so a short capture can drive the
// pipeline indefinitely.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ErrNoTemperatureColumn reports a data file whose header lacks the
// required temperature column.
var ErrNoTemperatureColumn = errors.New("csv header has no temperature column")

// Feed iterates temperature values from a headered CSV file, endlessly.
type Feed struct {
	path    string
	log     *slog.Logger
	file    *os.File
	reader  *csv.Reader
	tempIdx int

	yieldedSinceRewind bool
}

// Open opens the data file and locates the temperature column.
func Open(path string, log *slog.Logger) (*Feed, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	f := &Feed{path: path, log: log}
	if err := f.open(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Feed) open() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("read csv header: %w", err)
	}
	tempIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "temperature") {
			tempIdx = i
			break
		}
	}
	if tempIdx < 0 {
		_ = file.Close()
		return ErrNoTemperatureColumn
	}
	f.file = file
	f.reader = reader
	f.tempIdx = tempIdx
	return nil
}

// Next returns the next temperature value, rewinding the file at EOF.
// Rows that are short or carry an unparsable temperature are logged and
// skipped. A full pass that yields no usable row is an error so an empty
// file cannot spin the producer forever.
func (f *Feed) Next() (float64, error) {
	for {
		row, err := f.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !f.yieldedSinceRewind {
					return 0, fmt.Errorf("data file %s has no usable rows", f.path)
				}
				f.log.Info("data_file_rewind", "path", f.path)
				if err := f.rewind(); err != nil {
					return 0, err
				}
				f.yieldedSinceRewind = false
				continue
			}
			// csv framing problems on a single row are skippable
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				f.log.Warn("skipping malformed row", "path", f.path, "line", parseErr.Line, "err", err)
				continue
			}
			return 0, fmt.Errorf("read data row: %w", err)
		}
		if f.tempIdx >= len(row) {
			f.log.Warn("skipping short row", "path", f.path, "fields", len(row))
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[f.tempIdx]), 64)
		if err != nil {
			f.log.Warn("skipping row with invalid temperature", "path", f.path, "value", row[f.tempIdx])
			continue
		}
		f.yieldedSinceRewind = true
		return v, nil
	}
}

func (f *Feed) rewind() error {
	if err := f.file.Close(); err != nil {
		f.log.Warn("data_file_close", "err", err)
	}
	return f.open()
}

// Close releases the data file. Safe on a nil receiver.
func (f *Feed) Close() error {
	if f == nil || f.file == nil {
		return nil
	}
	return f.file.Close()
}
