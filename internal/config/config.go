// v2
// internal/config/config.go

// Package config resolves runtime settings for the producer, consumer and
// topic-init binaries. Values are layered: built-in defaults, then an
// optional properties file, then environment variables. The resulting
// struct is passed explicitly to every component; there is no global
// mutable configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures every tunable of the smoker monitoring pipeline.
type Config struct {
	// KafkaBrokers lists the bootstrap brokers.
	KafkaBrokers []string
	// ReadingsTopic carries one JSON temperature reading per message.
	ReadingsTopic string
	// AlertsTopic, when non-empty, receives a copy of every alert the
	// consumer raises. Empty disables the Kafka alert sink.
	AlertsTopic string
	// GroupID is the consumer group identity used for checkpointing.
	GroupID string
	// WindowSize is the rolling window capacity, in readings. Positive.
	WindowSize int
	// StallThreshold is the max allowed max-min spread (degrees F) for a
	// full window to count as stalled. Non-negative.
	StallThreshold float64
	// HighTempLimit is the ceiling (degrees F) above which a single
	// reading raises a high-temperature alert.
	HighTempLimit float64
	// PublishInterval is the producer-side delay between messages.
	PublishInterval time.Duration
	// DataFile is the CSV file the producer replays.
	DataFile string
	// ListenAddress is the consumer status API address.
	ListenAddress string
	// LogFilePath is the path of the shared slog output file.
	LogFilePath string
	// PollTimeout bounds each blocking fetch from Kafka.
	PollTimeout time.Duration
	// PropertiesPath records the properties file location used, if any.
	PropertiesPath string
}

const (
	defaultBrokers       = "kafka:9092"
	defaultReadingsTopic = "smoker.readings"
	defaultAlertsTopic   = ""
	defaultGroupID       = "mk_default_group"
	defaultWindowSize    = 5
	defaultStallF        = 0.2
	defaultHighTempF     = 300.0
	defaultInterval      = time.Second
	defaultDataFile      = "data/smoker_temps.csv"
	defaultListenAddr    = ":8087"
	defaultLogFile       = "logs/buzzline.log"
	defaultPollTimeout   = 5 * time.Second
	defaultPropsPath     = "buzzline.properties"
)

// Load resolves the configuration. The properties file location can be
// overridden with BUZZLINE_PROPERTIES_PATH; a missing file is not an
// error.
func Load() (Config, error) {
	cfg := Config{
		KafkaBrokers:    splitAndTrim(defaultBrokers),
		ReadingsTopic:   defaultReadingsTopic,
		AlertsTopic:     defaultAlertsTopic,
		GroupID:         defaultGroupID,
		WindowSize:      defaultWindowSize,
		StallThreshold:  defaultStallF,
		HighTempLimit:   defaultHighTempF,
		PublishInterval: defaultInterval,
		DataFile:        defaultDataFile,
		ListenAddress:   defaultListenAddr,
		LogFilePath:     filepath.Clean(defaultLogFile),
		PollTimeout:     defaultPollTimeout,
	}

	propsPath := strings.TrimSpace(os.Getenv("BUZZLINE_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("at least one kafka broker is required")
	}
	if strings.TrimSpace(cfg.ReadingsTopic) == "" {
		return errors.New("readings topic must not be empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return errors.New("consumer group id must not be empty")
	}
	if cfg.WindowSize <= 0 {
		return errors.New("rolling window size must be positive")
	}
	if cfg.StallThreshold < 0 {
		return errors.New("stall threshold must be non-negative")
	}
	if cfg.PublishInterval <= 0 {
		return errors.New("publish interval must be positive")
	}
	if cfg.PollTimeout <= 0 {
		return errors.New("poll timeout must be positive")
	}
	return nil
}

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		// Close errors are ignored; configuration loading has already
		// completed and no logger exists at this stage.
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

func setProperty(cfg *Config, key, value string) error {
	switch key {
	case "kafka_brokers":
		brokers := splitAndTrim(value)
		if len(brokers) == 0 {
			return errors.New("kafka_brokers cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	case "readings_topic":
		if value == "" {
			return errors.New("readings_topic cannot be empty")
		}
		cfg.ReadingsTopic = value
	case "alerts_topic":
		cfg.AlertsTopic = value
	case "group_id":
		if value == "" {
			return errors.New("group_id cannot be empty")
		}
		cfg.GroupID = value
	case "window_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid window_size: %w", err)
		}
		cfg.WindowSize = n
	case "stall_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid stall_threshold: %w", err)
		}
		cfg.StallThreshold = f
	case "high_temp_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid high_temp_limit: %w", err)
		}
		cfg.HighTempLimit = f
	case "publish_interval_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid publish_interval_seconds: %w", err)
		}
		cfg.PublishInterval = time.Duration(n) * time.Second
	case "data_file":
		if value == "" {
			return errors.New("data_file cannot be empty")
		}
		cfg.DataFile = filepath.Clean(value)
	case "listen_address":
		if value == "" {
			return errors.New("listen_address cannot be empty")
		}
		cfg.ListenAddress = value
	case "log_path":
		if value == "" {
			return errors.New("log_path cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(value)
	case "poll_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.PollTimeout = d
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnvTrimmed("KAFKA_BROKERS"); ok {
		brokers := splitAndTrim(v)
		if len(brokers) == 0 {
			return errors.New("KAFKA_BROKERS cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	}
	if v, ok := lookupEnvTrimmed("SMOKER_TOPIC"); ok {
		if v == "" {
			return errors.New("SMOKER_TOPIC cannot be empty")
		}
		cfg.ReadingsTopic = v
	}
	if v, ok := lookupEnvTrimmed("MK_ALERTS_TOPIC"); ok {
		cfg.AlertsTopic = v
	}
	if v, ok := lookupEnvTrimmed("MK_CONSUMER_GROUP_ID"); ok {
		if v == "" {
			return errors.New("MK_CONSUMER_GROUP_ID cannot be empty")
		}
		cfg.GroupID = v
	}
	if v, ok := lookupEnvTrimmed("MK_ROLLING_WINDOW_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MK_ROLLING_WINDOW_SIZE: %w", err)
		}
		cfg.WindowSize = n
	}
	if v, ok := lookupEnvTrimmed("MK_STALL_THRESHOLD_F"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MK_STALL_THRESHOLD_F: %w", err)
		}
		cfg.StallThreshold = f
	}
	if v, ok := lookupEnvTrimmed("MK_HIGH_TEMP_LIMIT_F"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MK_HIGH_TEMP_LIMIT_F: %w", err)
		}
		cfg.HighTempLimit = f
	}
	if v, ok := lookupEnvTrimmed("SMOKER_INTERVAL_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMOKER_INTERVAL_SECONDS: %w", err)
		}
		cfg.PublishInterval = time.Duration(n) * time.Second
	}
	if v, ok := lookupEnvTrimmed("SMOKER_DATA_FILE"); ok {
		if v == "" {
			return errors.New("SMOKER_DATA_FILE cannot be empty")
		}
		cfg.DataFile = filepath.Clean(v)
	}
	if v, ok := lookupEnvTrimmed("MK_LISTEN_ADDRESS"); ok {
		if v == "" {
			return errors.New("MK_LISTEN_ADDRESS cannot be empty")
		}
		cfg.ListenAddress = v
	}
	if v, ok := lookupEnvTrimmed("LOG_PATH"); ok {
		if v == "" {
			return errors.New("LOG_PATH cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(v)
	}
	if v, ok := lookupEnvTrimmed("MK_POLL_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("MK_POLL_TIMEOUT_MS: %w", err)
		}
		cfg.PollTimeout = d
	}
	return nil
}

func lookupEnvTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePositiveMillis(v string) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return 0, errors.New("value cannot be empty")
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	if ms <= 0 {
		return 0, errors.New("value must be greater than zero")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
