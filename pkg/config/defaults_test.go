package config

import (
	"testing"
	"time"

	"github.com/marmos91/assetstream/internal/bytesize"
	"github.com/marmos91/assetstream/pkg/api"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.API.ReadTimeout)
	}
	if cfg.API.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.API.IdleTimeout)
	}
	if cfg.API.MaxBodySize != 16*bytesize.MiB {
		t.Errorf("Expected default max body size 16Mi, got %v", cfg.API.MaxBodySize)
	}
}

func TestApplyDefaults_Execution(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Scheduler.Workers < 1 {
		t.Errorf("Expected scheduler workers to default to NumCPU, got %d", cfg.Scheduler.Workers)
	}
	if cfg.Scheduler.QueueSize != 256 {
		t.Errorf("Expected default scheduler queue 256, got %d", cfg.Scheduler.QueueSize)
	}
	if cfg.Streamer.Workers != 4 {
		t.Errorf("Expected default streamer workers 4, got %d", cfg.Streamer.Workers)
	}
	if cfg.Streamer.QueueSize != 1024 {
		t.Errorf("Expected default streamer queue 1024, got %d", cfg.Streamer.QueueSize)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port while disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_Source(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Source.Type != SourceMemory {
		t.Errorf("Expected default source 'memory', got %q", cfg.Source.Type)
	}

	cfg = &Config{Source: SourceConfig{Type: "S3"}}
	ApplyDefaults(cfg)
	if cfg.Source.Type != SourceS3 {
		t.Errorf("Expected source type normalized to 's3', got %q", cfg.Source.Type)
	}
}

func TestApplyDefaults_Profiling(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Profiling.Endpoint != "http://localhost:4040" {
		t.Errorf("Expected default profiling endpoint, got %q", cfg.Telemetry.Profiling.Endpoint)
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) != 6 {
		t.Errorf("Expected 6 default profile types, got %v", cfg.Telemetry.Profiling.ProfileTypes)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "json",
			Output: "stderr",
		},
		ShutdownTimeout: 5 * time.Second,
		API:             api.APIConfig{Port: 9000},
		Streamer:        StreamerConfig{Workers: 16, LoadTimeout: time.Second},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json' preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected output 'stderr' preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("Expected port 9000 preserved, got %d", cfg.API.Port)
	}
	if cfg.Streamer.Workers != 16 || cfg.Streamer.LoadTimeout != time.Second {
		t.Errorf("Expected streamer settings preserved, got %+v", cfg.Streamer)
	}
}
