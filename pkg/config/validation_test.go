package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidAPIPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.API.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_ShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.ShutdownTimeout = -time.Second

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative shutdown timeout")
	}
}

func TestValidate_SampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for sample rate above 1")
	}
}

func TestValidate_Source(t *testing.T) {
	tests := []struct {
		name    string
		source  SourceConfig
		wantErr string
	}{
		{"memory", SourceConfig{Type: SourceMemory}, ""},
		{"unknown type", SourceConfig{Type: "ftp"}, "oneof"},
		{"filesystem without path", SourceConfig{Type: SourceFilesystem}, "source.filesystem.path"},
		{"filesystem", SourceConfig{Type: SourceFilesystem, Filesystem: FilesystemSourceConfig{Path: "/tmp/a"}}, ""},
		{"badger without path", SourceConfig{Type: SourceBadger}, "source.badger.path"},
		{"badger in memory", SourceConfig{Type: SourceBadger, Badger: BadgerSourceConfig{InMemory: true}}, ""},
		{"s3 without bucket", SourceConfig{Type: SourceS3}, "source.s3.bucket"},
		{"s3 half credentials", SourceConfig{Type: SourceS3, S3: S3SourceConfig{Bucket: "b", AccessKeyID: "id"}}, "set together"},
		{"s3", SourceConfig{Type: SourceS3, S3: S3SourceConfig{Bucket: "b"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Source = tt.source

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_Libraries(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Libraries = []LibraryConfig{{Name: "weapons"}}
	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for library without path")
	}

	cfg.Libraries = []LibraryConfig{
		{Name: "weapons", Path: "a.yaml"},
		{Name: "weapons", Path: "b.yaml"},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected duplicate name error, got: %v", err)
	}
}

func TestValidate_ProfileTypes(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Profiling.Enabled = true
	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heapdump"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown profile type")
	}
}
