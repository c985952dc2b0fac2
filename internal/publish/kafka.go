// v1
// internal/publish/kafka.go
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter builds the readings-topic writer with full acknowledgement.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

// VerifyBrokers dials each broker until one answers, so a misconfigured
// environment fails fast at startup instead of on first write.
func VerifyBrokers(ctx context.Context, brokers []string) error {
	var lastErr error
	for _, b := range brokers {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, err := kafka.DialContext(dialCtx, "tcp", b)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no brokers configured")
	}
	return fmt.Errorf("no broker reachable: %w", lastErr)
}
