// Package memory provides an in-process resource source.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/assetstream/pkg/stream"
)

// Config holds configuration for the memory source.
type Config struct {
	// Latency is added to every fetch. Useful to simulate slow storage.
	Latency time.Duration
}

// Source keeps resources in a map.
type Source struct {
	latency time.Duration

	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates an empty memory source.
func New(cfg Config) *Source {
	return &Source{latency: cfg.Latency, data: make(map[string][]byte)}
}

// Name returns "memory".
func (s *Source) Name() string { return "memory" }

// Put stores a copy of data under key.
func (s *Source) Put(key string, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.data[key] = buf
	s.mu.Unlock()
}

// Delete removes key.
func (s *Source) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Fetch returns a copy of the bytes stored under key.
func (s *Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, stream.ErrSourceClosed
	}
	data, ok := s.data[key]
	if !ok {
		return nil, stream.ErrResourceNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Close drops every resource.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

var _ stream.Source = (*Source)(nil)
