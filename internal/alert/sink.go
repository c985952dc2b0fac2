// v1
// internal/alert/sink.go
package alert

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Sink receives alerts for downstream handling.
type Sink interface {
	Emit(ctx context.Context, a Alert)
}

// LogSink renders alerts as structured log lines, mirroring the severity
// the original monitor used: high temperature warns, stalls inform,
// errors error.
type LogSink struct {
	Log *slog.Logger
}

// Emit writes one log line per alert.
func (s LogSink) Emit(_ context.Context, a Alert) {
	if s.Log == nil {
		return
	}
	switch a.Kind {
	case KindHighTemp:
		s.Log.Warn("high_temp_alert", "id", a.ID, "timestamp", a.Timestamp, "temperature", a.Temperature)
	case KindStall:
		s.Log.Info("stall_detected", "id", a.ID, "timestamp", a.Timestamp, "temperature", a.Temperature, "detail", a.Detail)
	case KindParseError:
		s.Log.Error("parse_error", "id", a.ID, "detail", a.Detail)
	case KindFatalError:
		s.Log.Error("fatal_error", "id", a.ID, "detail", a.Detail)
	default:
		s.Log.Info("alert", "id", a.ID, "kind", string(a.Kind), "detail", a.Detail)
	}
}

// messageWriter mirrors the subset of kafka.Writer the sink needs, so the
// breaker wrapper or a test stub can stand in.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink republishes alerts onto a Kafka topic keyed by alert kind.
// Publish failures are logged and dropped; alerting must never stall the
// consume loop.
type KafkaSink struct {
	Writer messageWriter
	Log    *slog.Logger
}

// NewKafkaSink wires a sink around an already-configured writer.
func NewKafkaSink(writer messageWriter, log *slog.Logger) *KafkaSink {
	return &KafkaSink{Writer: writer, Log: log}
}

// Emit marshals and publishes the alert.
func (s *KafkaSink) Emit(ctx context.Context, a Alert) {
	if s == nil || s.Writer == nil {
		return
	}
	b, err := json.Marshal(a)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("alert_marshal_failed", "id", a.ID, "err", err)
		}
		return
	}
	msg := kafka.Message{Key: []byte(a.Kind), Value: b, Time: a.RaisedAt}
	if err := s.Writer.WriteMessages(ctx, msg); err != nil {
		if s.Log != nil {
			s.Log.Error("alert_publish_failed", "id", a.ID, "kind", string(a.Kind), "err", err)
		}
	}
}

// Fanout forwards each alert to every registered sink in order.
type Fanout []Sink

// Emit delivers the alert to all sinks.
func (f Fanout) Emit(ctx context.Context, a Alert) {
	for _, s := range f {
		if s != nil {
			s.Emit(ctx, a)
		}
	}
}
