package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/assetstream/internal/bytesize"
	"github.com/marmos91/assetstream/pkg/api"
)

// Config represents the assetstream server configuration.
//
// It captures the static aspects of a running server:
//   - Logging, tracing and profiling
//   - Metrics and REST API servers
//   - Execution contexts (scheduler pool, streaming loader)
//   - The resource source backing the loader
//   - Catalog files registered as libraries at startup
//
// Libraries registered at runtime through the API are not persisted.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (ASSETSTREAM_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains REST API server configuration
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Scheduler sizes the worker pool running asynchronous filter and sort
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`

	// Streamer configures the streaming loader
	Streamer StreamerConfig `mapstructure:"streamer" yaml:"streamer"`

	// Source selects where resource bytes are read from
	Source SourceConfig `mapstructure:"source" yaml:"source"`

	// Prioritizer tunes library behavior
	Prioritizer PrioritizerConfig `mapstructure:"prioritizer" yaml:"prioritizer"`

	// Libraries are catalog files registered when the server starts
	Libraries []LibraryConfig `mapstructure:"libraries" validate:"dive" yaml:"libraries,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection
	// Default: true
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// SchedulerConfig sizes the pool that runs asynchronous filter and sort work.
type SchedulerConfig struct {
	// Workers is the number of pool goroutines.
	// Default: number of CPUs
	Workers int `mapstructure:"workers" validate:"omitempty,min=1" yaml:"workers"`

	// QueueSize bounds queued computations.
	// Default: 256
	QueueSize int `mapstructure:"queue_size" validate:"omitempty,min=1" yaml:"queue_size"`
}

// StreamerConfig configures the streaming loader.
type StreamerConfig struct {
	// Workers is the number of concurrent loads.
	// Default: 4
	Workers int `mapstructure:"workers" validate:"omitempty,min=1" yaml:"workers"`

	// QueueSize bounds each priority queue.
	// Default: 1024
	QueueSize int `mapstructure:"queue_size" validate:"omitempty,min=1" yaml:"queue_size"`

	// LoadTimeout bounds the source reads of one request.
	// Default: 30s
	LoadTimeout time.Duration `mapstructure:"load_timeout" validate:"omitempty,gt=0" yaml:"load_timeout"`
}

// Source types.
const (
	SourceMemory     = "memory"
	SourceFilesystem = "filesystem"
	SourceBadger     = "badger"
	SourceS3         = "s3"
)

// SourceConfig selects the resource source. Only the section matching
// Type is read.
type SourceConfig struct {
	// Type is one of memory, filesystem, badger, s3.
	// Default: memory
	Type string `mapstructure:"type" validate:"required,oneof=memory filesystem badger s3" yaml:"type"`

	Memory     MemorySourceConfig     `mapstructure:"memory" yaml:"memory,omitempty"`
	Filesystem FilesystemSourceConfig `mapstructure:"filesystem" yaml:"filesystem,omitempty"`
	Badger     BadgerSourceConfig     `mapstructure:"badger" yaml:"badger,omitempty"`
	S3         S3SourceConfig         `mapstructure:"s3" yaml:"s3,omitempty"`
}

// MemorySourceConfig configures the in-memory source.
type MemorySourceConfig struct {
	// Latency is added to every fetch
	Latency time.Duration `mapstructure:"latency" yaml:"latency,omitempty"`
}

// FilesystemSourceConfig configures the filesystem source.
type FilesystemSourceConfig struct {
	// Path is the root directory resource keys are resolved against
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// CreateDir creates Path if it doesn't exist
	CreateDir bool `mapstructure:"create_dir" yaml:"create_dir,omitempty"`
}

// BadgerSourceConfig configures the BadgerDB source.
type BadgerSourceConfig struct {
	// Path is the database directory
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// InMemory keeps the database in memory
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`

	// ReadOnly opens the database without write access
	ReadOnly bool `mapstructure:"read_only" yaml:"read_only,omitempty"`
}

// S3SourceConfig configures the S3 source.
type S3SourceConfig struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region    string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// Static credentials. When empty, the SDK default chain is used.
	// Override: ASSETSTREAM_SOURCE_S3_ACCESS_KEY_ID, ASSETSTREAM_SOURCE_S3_SECRET_ACCESS_KEY
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`

	// ForcePathStyle is required for MinIO and most S3-compatible services
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// PrioritizerConfig tunes library behavior.
type PrioritizerConfig struct {
	// RefreshWindowOnCommit re-applies the last buffer target after each
	// committed re-sort.
	// Default: false
	RefreshWindowOnCommit bool `mapstructure:"refresh_window_on_commit" yaml:"refresh_window_on_commit"`
}

// LibraryConfig names a catalog file to register at startup.
type LibraryConfig struct {
	// Name is the library name
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Path is a YAML or JSON catalog file
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// Watch re-registers the library when the file changes
	Watch bool `mapstructure:"watch" yaml:"watch,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ASSETSTREAM_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location. A missing file is not an
// error: the default configuration is returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  assetstream init\n\n"+
				"Or specify a custom config file:\n"+
				"  assetstream <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  assetstream init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may carry S3 credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: ASSETSTREAM_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("ASSETSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// $XDG_CONFIG_HOME/assetstream/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize, so
// config files can use sizes like "16Mi", "500MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" or "5m" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Raw integers are nanoseconds
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "assetstream")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "assetstream")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
