// v2
// cmd/producer/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mokeyzz1/buzzline-03-moses/internal/breaker"
	"github.com/mokeyzz1/buzzline-03-moses/internal/config"
	"github.com/mokeyzz1/buzzline-03-moses/internal/feed"
	"github.com/mokeyzz1/buzzline-03-moses/internal/logging"
	"github.com/mokeyzz1/buzzline-03-moses/internal/publish"
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
	logger.Info("producer_start",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.ReadingsTopic,
		"interval", cfg.PublishInterval.String(),
		"dataFile", cfg.DataFile,
	)

	source, err := feed.Open(cfg.DataFile, logger)
	if err != nil {
		// a missing or unusable data file is an input problem, not a
		// runtime failure
		logger.Error("data_file_unavailable", "path", cfg.DataFile, "err", err)
		os.Exit(2)
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("data_file_close", "err", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := publish.VerifyBrokers(ctx, cfg.KafkaBrokers); err != nil {
		logger.Error("broker_verification_failed", "err", err)
		os.Exit(1)
	}
	logger.Info("brokers_verified", "brokers", cfg.KafkaBrokers)

	writer := publish.NewWriter(cfg.KafkaBrokers, cfg.ReadingsTopic)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Warn("writer_close", "err", err)
		}
	}()
	kb, err := breaker.NewKafkaBreakerFromEnv("readings-producer", logger, nil)
	if err != nil {
		logger.Error("breaker_init_failed", "err", err)
		os.Exit(1)
	}

	pub, err := publish.NewPublisher(source, breaker.NewKafkaWriter(writer, kb), cfg.PublishInterval, logger)
	if err != nil {
		logger.Error("publisher_init_failed", "err", err)
		os.Exit(1)
	}

	if err := pub.Run(ctx); err != nil {
		logger.Error("producer_failed", "err", err)
		os.Exit(1)
	}
	logger.Info("producer_stopped")
}
