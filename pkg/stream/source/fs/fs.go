// Package fs provides a resource source reading files under a root
// directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/marmos91/assetstream/pkg/stream"
)

// Config holds configuration for the filesystem source.
type Config struct {
	// BasePath is the root directory. Resource keys are slash-separated
	// paths relative to it.
	BasePath string

	// CreateDir creates the base directory if it doesn't exist.
	CreateDir bool

	// DirMode is the permission mode for created directories.
	// Default: 0755
	DirMode os.FileMode
}

// DefaultConfig returns the default configuration.
func DefaultConfig(basePath string) Config {
	return Config{BasePath: basePath, CreateDir: true, DirMode: 0755}
}

// Source reads resources from disk.
type Source struct {
	mu       sync.RWMutex
	basePath string
	closed   bool
}

// New creates a filesystem source.
func New(cfg Config) (*Source, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("base path is not a directory")
	}

	abs, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return &Source{basePath: abs}, nil
}

// Name returns "filesystem".
func (s *Source) Name() string { return "filesystem" }

// path maps a key to a file below the base path. Keys that would escape
// the base path are rejected.
func (s *Source) path(key string) (string, error) {
	// Bundle suffixes map to sibling files: "mesh/a#lod0" -> "mesh/a.lod0".
	key = strings.ReplaceAll(key, "#", ".")
	if !iofs.ValidPath(key) {
		return "", fmt.Errorf("invalid resource key %q", key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Fetch reads the file for key.
func (s *Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, stream.ErrSourceClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, stream.ErrResourceNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put writes data for key, creating parent directories.
func (s *Source) Put(key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}

// Close marks the source as closed.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ stream.Source = (*Source)(nil)
