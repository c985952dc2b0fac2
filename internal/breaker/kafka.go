// v1
// internal/breaker/kafka.go
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaMessageWriter mirrors the subset of kafka.Writer used by the wrappers.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// kafkaMessageReader mirrors the subset of kafka.Reader used by the wrappers.
type kafkaMessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
}

// KafkaBreaker carries the runtime tunables for the Kafka wrappers.
type KafkaBreaker struct {
	enabled          bool
	failureThreshold int
	timeout          time.Duration
	backoff          time.Duration
	breaker          *Breaker
}

// Enabled reports whether breaker protections are active.
func (k *KafkaBreaker) Enabled() bool {
	return k != nil && k.enabled && k.breaker != nil
}

// Breaker exposes the underlying breaker for inspection and testing.
func (k *KafkaBreaker) Breaker() *Breaker {
	if k == nil {
		return nil
	}
	return k.breaker
}

// NewKafkaBreakerFromEnv builds a KafkaBreaker from environment variables:
//
//   - CB_ENABLED (default: false)
//   - CB_KAFKA_FAILURE_THRESHOLD (default: 5)
//   - CB_KAFKA_OPEN_SECONDS (default: 30)
//   - CB_KAFKA_TIMEOUT_MS (default: 3000)
//   - CB_KAFKA_BACKOFF_MS (default: 200)
func NewKafkaBreakerFromEnv(name string, log *slog.Logger, probe func(ctx context.Context) error) (*KafkaBreaker, error) {
	enabled := parseEnvBool("CB_ENABLED")

	failureThreshold, err := parseEnvInt("CB_KAFKA_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	openSeconds, err := parseEnvFloat("CB_KAFKA_OPEN_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	timeoutMS, err := parseEnvInt("CB_KAFKA_TIMEOUT_MS", 3000)
	if err != nil {
		return nil, err
	}
	backoffMS, err := parseEnvInt("CB_KAFKA_BACKOFF_MS", 200)
	if err != nil {
		return nil, err
	}

	if failureThreshold < 1 {
		return nil, fmt.Errorf("CB_KAFKA_FAILURE_THRESHOLD must be >= 1")
	}
	if openSeconds <= 0 {
		return nil, fmt.Errorf("CB_KAFKA_OPEN_SECONDS must be > 0")
	}
	if timeoutMS < 0 {
		return nil, fmt.Errorf("CB_KAFKA_TIMEOUT_MS must be >= 0")
	}
	if backoffMS < 0 {
		return nil, fmt.Errorf("CB_KAFKA_BACKOFF_MS must be >= 0")
	}

	kb := &KafkaBreaker{
		enabled:          enabled,
		failureThreshold: failureThreshold,
		timeout:          time.Duration(timeoutMS) * time.Millisecond,
		backoff:          time.Duration(backoffMS) * time.Millisecond,
	}
	if enabled {
		cfg := Config{
			MaxFailures:  failureThreshold,
			ResetTimeout: time.Duration(openSeconds * float64(time.Second)),
		}
		kb.breaker = New(name, cfg, log, probe)
	}
	return kb, nil
}

// KafkaWriter wraps a kafka.Writer with breaker protection.
type KafkaWriter struct {
	breaker *KafkaBreaker
	writer  kafkaMessageWriter
}

// NewKafkaWriter wires breaker protections around the provided writer.
func NewKafkaWriter(writer kafkaMessageWriter, breaker *KafkaBreaker) *KafkaWriter {
	return &KafkaWriter{writer: writer, breaker: breaker}
}

// WriteMessages publishes messages with retry and back-off driven by the
// breaker policy. With the breaker disabled it delegates directly.
func (w *KafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w == nil || w.writer == nil {
		return errors.New("nil kafka writer")
	}
	if w.breaker == nil || !w.breaker.Enabled() {
		return w.writer.WriteMessages(ctx, msgs...)
	}
	return w.breaker.do(ctx, func(execCtx context.Context) error {
		return w.writer.WriteMessages(execCtx, msgs...)
	})
}

// KafkaReader wraps a kafka.Reader with breaker protection.
type KafkaReader struct {
	breaker *KafkaBreaker
	reader  kafkaMessageReader
}

// NewKafkaReader wraps the reader, applying breaker logic to FetchMessage.
func NewKafkaReader(reader kafkaMessageReader, breaker *KafkaBreaker) *KafkaReader {
	return &KafkaReader{reader: reader, breaker: breaker}
}

// FetchMessage retrieves a message with breaker-enforced retry/back-off.
func (r *KafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r == nil || r.reader == nil {
		return kafka.Message{}, errors.New("nil kafka reader")
	}
	if r.breaker == nil || !r.breaker.Enabled() {
		return r.reader.FetchMessage(ctx)
	}
	var msg kafka.Message
	err := r.breaker.do(ctx, func(execCtx context.Context) error {
		var innerErr error
		msg, innerErr = r.reader.FetchMessage(execCtx)
		return innerErr
	})
	return msg, err
}

func (k *KafkaBreaker) do(ctx context.Context, op func(ctx context.Context) error) error {
	if k == nil || !k.Enabled() {
		return op(ctx)
	}
	attempts := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempts++
		attemptCtx, cancel := k.withAttemptContext(ctx)
		err := k.breaker.Execute(attemptCtx, op)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrOpen) {
			if waitErr := k.waitBackoff(ctx); waitErr != nil {
				return waitErr
			}
			continue
		}
		if attempts >= k.failureThreshold {
			return err
		}
		if waitErr := k.waitBackoff(ctx); waitErr != nil {
			return waitErr
		}
	}
}

func (k *KafkaBreaker) withAttemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if k.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, k.timeout)
}

func (k *KafkaBreaker) waitBackoff(ctx context.Context) error {
	if k.backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(k.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseEnvInt(key string, def int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return def, nil
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseEnvFloat(key string, def float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseEnvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
