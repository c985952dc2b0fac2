// v2
// cmd/topic-init/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mokeyzz1/buzzline-03-moses/internal/config"
	"github.com/mokeyzz1/buzzline-03-moses/internal/logging"
)

// The readings topic defaults to a single partition: readings form one
// ordered stream and the stall window only makes sense over that order.
const (
	defaultReadingsParts = 1
	defaultAlertsParts   = 1
	defaultReplication   = 1
)

// topicExpectation expresses the desired partition layout for a topic so
// broker state can be validated after creation.
type topicExpectation struct {
	name               string
	expectedPartitions int
}

func main() {
	readingsParts := flag.Int("readings-partitions", geti("MK_READINGS_PARTITIONS", defaultReadingsParts), "Partition count for the readings topic")
	alertsParts := flag.Int("alerts-partitions", geti("MK_ALERTS_PARTITIONS", defaultAlertsParts), "Partition count for the alerts topic")
	replication := flag.Int("replication", geti("MK_TOPIC_REPLICATION", defaultReplication), "Replication factor for both topics")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("configuration error:", err)
		os.Exit(2)
	}
	if *readingsParts < 1 || *alertsParts < 1 {
		fmt.Println("partition counts must be at least 1")
		os.Exit(2)
	}
	if *replication < 1 {
		fmt.Println("replication factor must be at least 1")
		os.Exit(2)
	}

	logger, logFile := logging.Init(cfg.LogFilePath)
	defer func() {
		if logFile != nil {
			if err := logFile.Close(); err != nil {
				logger.Warn("logfile_close", "err", err)
			}
		}
	}()
	logger.Info("topic_init_start",
		"brokers", cfg.KafkaBrokers,
		"readingsTopic", cfg.ReadingsTopic,
		"readingsPartitions", *readingsParts,
		"alertsTopic", cfg.AlertsTopic,
		"replication", *replication,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := ensureTopics(ctx, logger, cfg, *readingsParts, *alertsParts, *replication); err != nil {
		logger.Error("topic_init_failed", "err", err)
		os.Exit(1)
	}
	logger.Info("topic_init_complete")
}

func ensureTopics(ctx context.Context, log *slog.Logger, cfg config.Config, readingsParts, alertsParts, replication int) error {
	broker := cfg.KafkaBrokers[0]
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := kafka.DialContext(dialCtx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial broker %s: %w", broker, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Warn("broker_close", "err", cerr)
		}
	}()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("fetch controller metadata: %w", err)
	}
	ctrlAddr := fmt.Sprintf("%s:%d", controller.Host, controller.Port)
	ctrlCtx, ctrlCancel := context.WithTimeout(ctx, 10*time.Second)
	defer ctrlCancel()
	admin, err := kafka.DialContext(ctrlCtx, "tcp", ctrlAddr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", ctrlAddr, err)
	}
	defer func() {
		if cerr := admin.Close(); cerr != nil {
			log.Warn("controller_close", "err", cerr)
		}
	}()
	if err := admin.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		log.Warn("controller_deadline", "err", err)
	}

	expectations := []topicExpectation{{name: cfg.ReadingsTopic, expectedPartitions: readingsParts}}
	configs := []kafka.TopicConfig{{
		Topic:             cfg.ReadingsTopic,
		NumPartitions:     readingsParts,
		ReplicationFactor: replication,
	}}
	if cfg.AlertsTopic != "" {
		expectations = append(expectations, topicExpectation{name: cfg.AlertsTopic, expectedPartitions: alertsParts})
		configs = append(configs, kafka.TopicConfig{
			Topic:             cfg.AlertsTopic,
			NumPartitions:     alertsParts,
			ReplicationFactor: replication,
		})
	}

	if err := admin.CreateTopics(configs...); err != nil {
		if !isAlreadyExists(err) {
			return fmt.Errorf("create topics: %w", err)
		}
		log.Info("topics_exist", "error", err)
	} else {
		log.Info("topics_created", "count", len(configs), "replication", replication)
	}

	for _, exp := range expectations {
		count, err := readPartitions(admin, exp.name)
		if err != nil {
			return err
		}
		if count != exp.expectedPartitions {
			return fmt.Errorf("topic %s has %d partitions; expected %d", exp.name, count, exp.expectedPartitions)
		}
		log.Info("topic_ready", "topic", exp.name, "partitions", count, "replication", replication)
	}
	return nil
}

func readPartitions(conn *kafka.Conn, topic string) (int, error) {
	partitions, err := conn.ReadPartitions(topic)
	if err != nil {
		return 0, fmt.Errorf("read partitions for %s: %w", topic, err)
	}
	seen := map[int]struct{}{}
	for _, part := range partitions {
		if part.Topic != topic {
			continue
		}
		seen[part.ID] = struct{}{}
	}
	return len(seen), nil
}

func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "Topic with this name already exists")
}

func geti(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		var val int
		if _, err := fmt.Sscanf(v, "%d", &val); err == nil {
			return val
		}
	}
	return def
}
