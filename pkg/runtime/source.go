package runtime

import (
	"context"
	"fmt"

	"github.com/marmos91/assetstream/pkg/config"
	"github.com/marmos91/assetstream/pkg/stream"
	"github.com/marmos91/assetstream/pkg/stream/source/badger"
	"github.com/marmos91/assetstream/pkg/stream/source/fs"
	"github.com/marmos91/assetstream/pkg/stream/source/memory"
	"github.com/marmos91/assetstream/pkg/stream/source/s3"
)

// NewSource creates the resource source selected by cfg.Type.
func NewSource(ctx context.Context, cfg config.SourceConfig) (stream.Source, error) {
	switch cfg.Type {
	case config.SourceMemory, "":
		return memory.New(memory.Config{Latency: cfg.Memory.Latency}), nil

	case config.SourceFilesystem:
		src, err := fs.New(fs.Config{
			BasePath:  cfg.Filesystem.Path,
			CreateDir: cfg.Filesystem.CreateDir,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem source: %w", err)
		}
		return src, nil

	case config.SourceBadger:
		src, err := badger.Open(badger.Config{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
			ReadOnly: cfg.Badger.ReadOnly,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open badger source: %w", err)
		}
		return src, nil

	case config.SourceS3:
		src, err := s3.NewFromConfig(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			KeyPrefix:       cfg.S3.KeyPrefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 source: %w", err)
		}
		return src, nil

	default:
		return nil, fmt.Errorf("unknown source type: %q", cfg.Type)
	}
}
