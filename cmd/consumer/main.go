// v2
// cmd/consumer/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/mokeyzz1/buzzline-03-moses/internal/alert"
	"github.com/mokeyzz1/buzzline-03-moses/internal/breaker"
	"github.com/mokeyzz1/buzzline-03-moses/internal/config"
	"github.com/mokeyzz1/buzzline-03-moses/internal/detect"
	"github.com/mokeyzz1/buzzline-03-moses/internal/httpapi"
	"github.com/mokeyzz1/buzzline-03-moses/internal/logging"
	"github.com/mokeyzz1/buzzline-03-moses/internal/publish"
	"github.com/mokeyzz1/buzzline-03-moses/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("configuration error:", err)
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
	logger.Info("consumer_start",
		"instance", uuid.NewString(),
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.ReadingsTopic,
		"group", cfg.GroupID,
		"windowSize", cfg.WindowSize,
		"stallThreshold", cfg.StallThreshold,
		"highTempLimit", cfg.HighTempLimit,
		"alertsTopic", cfg.AlertsTopic,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source, err := stream.NewKafkaSource(stream.KafkaSourceConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.ReadingsTopic,
		GroupID:     cfg.GroupID,
		PollTimeout: cfg.PollTimeout,
	}, logger)
	if err != nil {
		logger.Error("kafka_source_init_failed", "err", err)
		os.Exit(1)
	}

	sinks := alert.Fanout{alert.LogSink{Log: logger}}
	if cfg.AlertsTopic != "" {
		writer := publish.NewWriter(cfg.KafkaBrokers, cfg.AlertsTopic)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn("alerts_writer_close", "err", err)
			}
		}()
		kb, err := breaker.NewKafkaBreakerFromEnv("alerts-writer", logger, nil)
		if err != nil {
			logger.Error("breaker_init_failed", "err", err)
			os.Exit(1)
		}
		sinks = append(sinks, alert.NewKafkaSink(breaker.NewKafkaWriter(writer, kb), logger))
		logger.Info("alerts_topic_enabled", "topic", cfg.AlertsTopic)
	}

	det := detect.Detector{
		WindowSize:     cfg.WindowSize,
		StallThreshold: cfg.StallThreshold,
		HighTempLimit:  cfg.HighTempLimit,
	}
	proc, err := stream.NewProcessor(source, sinks, det, logger)
	if err != nil {
		logger.Error("processor_init_failed", "err", err)
		os.Exit(1)
	}

	go httpapi.Serve(ctx, cfg.ListenAddress, httpapi.NewRouter(proc), logger)

	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer_failed", "err", err)
		os.Exit(1)
	}
	logger.Info("consumer_stopped")
}
