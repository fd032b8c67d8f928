// Package stream defines the contract between the prioritizer and the
// streaming loader that makes resources resident, and provides Streamer,
// a reference loader backed by a pluggable Source.
package stream

import (
	"context"
	"errors"

	"github.com/marmos91/assetstream/pkg/catalog"
)

var (
	// ErrResourceNotFound is returned by a Source that has no bytes for a key.
	ErrResourceNotFound = errors.New("stream: resource not found")

	// ErrQueueFull is reported to a request's callback when the streamer
	// could not queue it.
	ErrQueueFull = errors.New("stream: queue full")

	// ErrStopped is reported to requests made after Stop.
	ErrStopped = errors.New("stream: streamer stopped")

	// ErrSourceClosed is returned by sources used after Close.
	ErrSourceClosed = errors.New("stream: source closed")
)

// Priority is the loader tier a request is scheduled on.
type Priority int

const (
	// PriorityDefault is used for the margin around the target window.
	PriorityDefault Priority = iota
	// PriorityHigh is used for the target window itself.
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityDefault:
		return "default"
	default:
		return "unknown"
	}
}

// LoadRequest asks the dispatcher to make Refs resident.
//
// Key identifies the requester. A new request with the Key of a request
// that is still pending replaces it: the earlier request is abandoned and
// its callback never fires.
type LoadRequest struct {
	Key      string
	Refs     []catalog.ResourceRef
	Priority Priority
}

// Handle tracks one load request.
type Handle interface {
	// ID is unique per request.
	ID() string
	// Priority is the tier the request was made at.
	Priority() Priority
	// Loaded reports whether every resource of the request is resident.
	Loaded() bool
}

// Dispatcher is the streaming loader as seen by the prioritizer.
//
// RequestLoad must not block on the load itself. onDone is called at most
// once, from any goroutine, with nil on success.
type Dispatcher interface {
	RequestLoad(req LoadRequest, onDone func(err error)) Handle
	ReleaseHandle(h Handle)
}

// Source resolves resource keys to bytes.
type Source interface {
	// Name identifies the source type in logs and metrics.
	Name() string
	// Fetch returns the bytes for key or ErrResourceNotFound.
	Fetch(ctx context.Context, key string) ([]byte, error)
	Close() error
}
