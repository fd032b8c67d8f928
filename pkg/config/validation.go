package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/assetstream/internal/telemetry"
)

var validate = validator.New()

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := validateSource(&cfg.Source); err != nil {
		return err
	}

	if cfg.Telemetry.Profiling.Enabled {
		if _, err := telemetry.ParseProfileTypes(cfg.Telemetry.Profiling.ProfileTypes); err != nil {
			return fmt.Errorf("telemetry.profiling.profile_types: %w", err)
		}
	}

	seen := make(map[string]bool, len(cfg.Libraries))
	for _, lib := range cfg.Libraries {
		if seen[lib.Name] {
			return fmt.Errorf("libraries: duplicate name %q", lib.Name)
		}
		seen[lib.Name] = true
	}

	return nil
}

func validateSource(cfg *SourceConfig) error {
	switch cfg.Type {
	case SourceMemory:
		return nil
	case SourceFilesystem:
		if cfg.Filesystem.Path == "" {
			return errors.New("source.filesystem.path is required")
		}
	case SourceBadger:
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			return errors.New("source.badger.path is required unless in_memory is set")
		}
	case SourceS3:
		if cfg.S3.Bucket == "" {
			return errors.New("source.s3.bucket is required")
		}
		if (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
			return errors.New("source.s3: access_key_id and secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("source.type: unsupported type %q", cfg.Type)
	}
	return nil
}
