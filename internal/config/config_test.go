// v0
// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearPipelineEnv keeps ambient environment from leaking into tests.
func clearPipelineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KAFKA_BROKERS", "SMOKER_TOPIC", "MK_ALERTS_TOPIC", "MK_CONSUMER_GROUP_ID",
		"MK_ROLLING_WINDOW_SIZE", "MK_STALL_THRESHOLD_F", "MK_HIGH_TEMP_LIMIT_F",
		"SMOKER_INTERVAL_SECONDS", "SMOKER_DATA_FILE", "MK_LISTEN_ADDRESS",
		"LOG_PATH", "MK_POLL_TIMEOUT_MS",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Setenv("BUZZLINE_PROPERTIES_PATH", filepath.Join(t.TempDir(), "missing.properties"))
}

func TestLoadDefaults(t *testing.T) {
	clearPipelineEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReadingsTopic != "smoker.readings" {
		t.Fatalf("unexpected readings topic: %q", cfg.ReadingsTopic)
	}
	if cfg.GroupID != "mk_default_group" {
		t.Fatalf("unexpected group id: %q", cfg.GroupID)
	}
	if cfg.WindowSize != 5 {
		t.Fatalf("unexpected window size: %d", cfg.WindowSize)
	}
	if cfg.StallThreshold != 0.2 {
		t.Fatalf("unexpected stall threshold: %v", cfg.StallThreshold)
	}
	if cfg.HighTempLimit != 300 {
		t.Fatalf("unexpected high temp limit: %v", cfg.HighTempLimit)
	}
	if cfg.PublishInterval != time.Second {
		t.Fatalf("unexpected publish interval: %v", cfg.PublishInterval)
	}
	if cfg.AlertsTopic != "" {
		t.Fatalf("alerts topic should default to disabled, got %q", cfg.AlertsTopic)
	}
}

func TestLoadPropertiesThenEnvOverride(t *testing.T) {
	clearPipelineEnv(t)

	props := filepath.Join(t.TempDir(), "buzzline.properties")
	content := "# pipeline settings\n" +
		"kafka_brokers = broker1:9092, broker2:9092\n" +
		"readings_topic = smoker.test\n" +
		"window_size = 8\n" +
		"stall_threshold = 0.5\n" +
		"poll_timeout_ms = 2500\n"
	if err := os.WriteFile(props, []byte(content), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	t.Setenv("BUZZLINE_PROPERTIES_PATH", props)
	// env wins over properties
	t.Setenv("MK_ROLLING_WINDOW_SIZE", "10")
	t.Setenv("MK_ALERTS_TOPIC", "smoker.alerts")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "broker1:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.ReadingsTopic != "smoker.test" {
		t.Fatalf("unexpected topic: %q", cfg.ReadingsTopic)
	}
	if cfg.WindowSize != 10 {
		t.Fatalf("env should override properties: got %d", cfg.WindowSize)
	}
	if cfg.StallThreshold != 0.5 {
		t.Fatalf("unexpected stall threshold: %v", cfg.StallThreshold)
	}
	if cfg.PollTimeout != 2500*time.Millisecond {
		t.Fatalf("unexpected poll timeout: %v", cfg.PollTimeout)
	}
	if cfg.AlertsTopic != "smoker.alerts" {
		t.Fatalf("unexpected alerts topic: %q", cfg.AlertsTopic)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero window", key: "MK_ROLLING_WINDOW_SIZE", value: "0"},
		{name: "negative window", key: "MK_ROLLING_WINDOW_SIZE", value: "-3"},
		{name: "window not a number", key: "MK_ROLLING_WINDOW_SIZE", value: "five"},
		{name: "negative threshold", key: "MK_STALL_THRESHOLD_F", value: "-0.1"},
		{name: "zero interval", key: "SMOKER_INTERVAL_SECONDS", value: "0"},
		{name: "bad poll timeout", key: "MK_POLL_TIMEOUT_MS", value: "-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearPipelineEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoadRejectsMalformedProperties(t *testing.T) {
	clearPipelineEnv(t)
	props := filepath.Join(t.TempDir(), "bad.properties")
	if err := os.WriteFile(props, []byte("this line has no separator\n"), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	t.Setenv("BUZZLINE_PROPERTIES_PATH", props)
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed properties file")
	}
}
