// v1
// internal/stream/kafka_source.go
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mokeyzz1/buzzline-03-moses/internal/breaker"
)

// KafkaSourceConfig captures the settings for the readings consumer.
type KafkaSourceConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	PollTimeout time.Duration
}

// kafkaMessageFetcher captures the read capability shared by the raw
// reader and the circuit breaker wrapper.
type kafkaMessageFetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
}

// KafkaSource implements EventSource over a consumer-group Kafka reader.
// Transient fetch timeouts are retried internally; real broker failures
// surface to the caller.
type KafkaSource struct {
	cfg     KafkaSourceConfig
	reader  *kafka.Reader
	fetcher kafkaMessageFetcher
	log     *slog.Logger
	poll    time.Duration

	closeOnce sync.Once
	closeErr  error
}

// NewKafkaSource builds a group reader wrapped by the shared circuit
// breaker.
func NewKafkaSource(cfg KafkaSourceConfig, log *slog.Logger) (*KafkaSource, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("topic must not be empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("consumer group must not be empty")
	}
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 5 * time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	kb, err := breaker.NewKafkaBreakerFromEnv("readings-consumer", log, nil)
	if err != nil {
		return nil, fmt.Errorf("breaker init: %w", err)
	}
	var fetcher kafkaMessageFetcher = reader
	if kb != nil {
		fetcher = breaker.NewKafkaReader(reader, kb)
		if kb.Enabled() {
			log.Info("consumer_breaker_enabled", "name", "readings-consumer")
		}
	}

	return &KafkaSource{cfg: cfg, reader: reader, fetcher: fetcher, log: log, poll: poll}, nil
}

// Next blocks for the next message, committing it on receipt. It returns
// ErrEndOfStream when the reader has been closed out from under the
// consumer and the caller's context error on cancellation.
func (s *KafkaSource) Next(ctx context.Context) (RawEvent, error) {
	for {
		if ctx.Err() != nil {
			return RawEvent{}, ctx.Err()
		}

		fetchCtx, cancel := context.WithTimeout(ctx, s.poll)
		msg, err := s.fetcher.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				if ctx.Err() != nil {
					return RawEvent{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, kafka.ErrGroupClosed) {
				return RawEvent{}, ErrEndOfStream
			}
			return RawEvent{}, fmt.Errorf("fetch message: %w", err)
		}

		commitCtx, commitCancel := context.WithTimeout(ctx, s.poll)
		if err := s.reader.CommitMessages(commitCtx, msg); err != nil {
			if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
				s.log.Error("commit_error", "offset", msg.Offset, "err", err)
			}
		}
		commitCancel()

		return RawEvent{Value: msg.Value, Topic: msg.Topic, Partition: msg.Partition, Offset: msg.Offset}, nil
	}
}

// Close shuts down the underlying reader. Safe to call multiple times.
func (s *KafkaSource) Close() error {
	s.closeOnce.Do(func() {
		if s.reader != nil {
			s.closeErr = s.reader.Close()
		}
	})
	return s.closeErr
}
