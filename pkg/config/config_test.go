package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/assetstream/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "info"

api:
  port: 8081
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level normalized to 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8081 {
		t.Errorf("Expected API port 8081, got %d", cfg.API.Port)
	}
	if cfg.Source.Type != SourceMemory {
		t.Errorf("Expected default source 'memory', got %q", cfg.Source.Type)
	}
	if cfg.Streamer.LoadTimeout != 30*time.Second {
		t.Errorf("Expected default load timeout 30s, got %v", cfg.Streamer.LoadTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// A missing file yields the default config so the server can run
	// without one.
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, "config.yaml", `
shutdown_timeout: 5s

api:
  max_body_size: 2Mi

scheduler:
  workers: 2
  queue_size: 8

streamer:
  workers: 3
  load_timeout: 1m

source:
  type: filesystem
  filesystem:
    path: "`+yamlSafePath(tmpDir)+`/assets"
    create_dir: true

prioritizer:
  refresh_window_on_commit: true

libraries:
  - name: weapons
    path: "`+yamlSafePath(tmpDir)+`/weapons.yaml"
    watch: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown_timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.MaxBodySize != 2*bytesize.MiB {
		t.Errorf("Expected max_body_size 2Mi, got %v", cfg.API.MaxBodySize)
	}
	if cfg.Scheduler.Workers != 2 || cfg.Scheduler.QueueSize != 8 {
		t.Errorf("Unexpected scheduler config: %+v", cfg.Scheduler)
	}
	if cfg.Streamer.Workers != 3 || cfg.Streamer.LoadTimeout != time.Minute {
		t.Errorf("Unexpected streamer config: %+v", cfg.Streamer)
	}
	if cfg.Streamer.QueueSize != 1024 {
		t.Errorf("Expected default streamer queue 1024, got %d", cfg.Streamer.QueueSize)
	}
	if cfg.Source.Type != SourceFilesystem || !cfg.Source.Filesystem.CreateDir {
		t.Errorf("Unexpected source config: %+v", cfg.Source)
	}
	if !cfg.Prioritizer.RefreshWindowOnCommit {
		t.Error("Expected refresh_window_on_commit to be true")
	}
	if len(cfg.Libraries) != 1 || cfg.Libraries[0].Name != "weapons" || !cfg.Libraries[0].Watch {
		t.Errorf("Unexpected libraries: %+v", cfg.Libraries)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidSource(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
source:
  type: s3
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for s3 source without bucket")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[api]
port = 8080

[source]
type = "badger"

[source.badger]
in_memory = true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Source.Type != SourceBadger || !cfg.Source.Badger.InMemory {
		t.Errorf("Unexpected source config: %+v", cfg.Source)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if !cfg.API.IsEnabled() {
		t.Error("Expected API to be enabled by default")
	}
	if cfg.Scheduler.Workers < 1 {
		t.Errorf("Expected at least one scheduler worker, got %d", cfg.Scheduler.Workers)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "assetstream" {
		t.Errorf("Expected directory name 'assetstream', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ASSETSTREAM_LOGGING_LEVEL", "ERROR")
	t.Setenv("ASSETSTREAM_API_PORT", "9091")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

api:
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 9091 {
		t.Errorf("Expected port 9091 from env var, got %d", cfg.API.Port)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Source = SourceConfig{Type: SourceBadger, Badger: BadgerSourceConfig{Path: "/data/badger"}}
	cfg.Libraries = []LibraryConfig{{Name: "armor", Path: "/etc/armor.yaml"}}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Source.Badger.Path != "/data/badger" {
		t.Errorf("Expected badger path to survive, got %q", loaded.Source.Badger.Path)
	}
	if loaded.API.MaxBodySize != cfg.API.MaxBodySize {
		t.Errorf("Expected max_body_size %v, got %v", cfg.API.MaxBodySize, loaded.API.MaxBodySize)
	}
	if len(loaded.Libraries) != 1 || loaded.Libraries[0].Name != "armor" {
		t.Errorf("Unexpected libraries: %+v", loaded.Libraries)
	}
}
