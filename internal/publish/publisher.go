// v1
// internal/publish/publisher.go

// Package publish streams CSV-sourced temperature readings onto the
// readings topic, one JSON message per interval.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ValueSource yields the next temperature to publish.
type ValueSource interface {
	Next() (float64, error)
}

// messageWriter mirrors the subset of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Reading is the wire payload on the readings topic. The timestamp is
// assigned at publish time, matching the capture cadence.
type Reading struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
}

// Publisher drives the produce loop.
type Publisher struct {
	source   ValueSource
	writer   messageWriter
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewPublisher wires the publish loop. Interval must be positive.
func NewPublisher(source ValueSource, writer messageWriter, interval time.Duration, log *slog.Logger) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("value source must not be nil")
	}
	if writer == nil {
		return nil, errors.New("writer must not be nil")
	}
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("publish interval must be positive")
	}
	return &Publisher{source: source, writer: writer, log: log, interval: interval, now: time.Now}, nil
}

// Run publishes one reading per interval until the context is cancelled
// or the source fails. Write failures are logged and retried on the next
// tick; source exhaustion is fatal.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.log.Info("publisher_start", "interval", p.interval.String())

	for {
		select {
		case <-ctx.Done():
			p.log.Info("publisher_stop")
			return nil
		case <-ticker.C:
			temp, err := p.source.Next()
			if err != nil {
				return fmt.Errorf("next value: %w", err)
			}
			if err := p.publishOne(ctx, temp); err != nil {
				if ctx.Err() != nil {
					p.log.Info("publisher_stop")
					return nil
				}
				p.log.Warn("publish_failed", "temperature", temp, "err", err)
			}
		}
	}
}

func (p *Publisher) publishOne(ctx context.Context, temp float64) error {
	msg := Reading{
		Timestamp:   p.now().UTC().Format(time.RFC3339),
		Temperature: temp,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: b, Time: p.now()}); err != nil {
		return err
	}
	p.log.Info("published", "timestamp", msg.Timestamp, "temperature", msg.Temperature)
	return nil
}
