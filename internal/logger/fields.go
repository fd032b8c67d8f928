package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently so logs from every library can be aggregated
// and queried the same way.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID
	KeySpanID  = "span_id"  // OpenTelemetry span ID

	// ========================================================================
	// Library & Recomputation
	// ========================================================================
	KeyLibrary    = "library"    // Registered library name
	KeyVersion    = "version"    // Task version stamped on a recomputation
	KeyOperation  = "operation"  // filter_sort, buffer, register, remove
	KeyMode       = "mode"       // sync or async; range or page for targets
	KeyItems      = "items"      // Catalog size
	KeyFiltered   = "filtered"   // Size of the filtered subset
	KeySorted     = "sorted"     // Size of the sorted sequence
	KeyMustHave   = "must_have"  // Tags an item must carry
	KeyMustNot    = "must_not"   // Tags an item must not carry
	KeySortOrder  = "sort_order" // Bucket tag order
	KeyDescending = "descending" // Sort direction
	KeyReused     = "reused"     // Filtered subset reused from the cache
	KeyOutcome    = "outcome"    // committed, discarded or sync

	// ========================================================================
	// Window & Residency
	// ========================================================================
	KeyItem     = "item"     // Item unique id
	KeyIndex    = "index"    // Position in the sorted sequence
	KeyStart    = "start"    // Target window start
	KeyEnd      = "end"      // Target window end
	KeyMargin   = "margin"   // Target window margin
	KeyCore     = "core"     // Core set size
	KeyResident = "resident" // Requested resident set size
	KeyLoads    = "loads"    // Loads issued by a buffer update
	KeyUnloads  = "unloads"  // Releases issued by a buffer update

	// ========================================================================
	// Streaming
	// ========================================================================
	KeyHandle   = "handle"    // Streamer request id
	KeyPriority = "priority"  // high or default
	KeyPending  = "pending"   // Requests waiting in the streamer
	KeyWorkerID = "worker_id" // Streamer or pool worker index
	KeySource   = "source"    // Resource source: memory, filesystem, badger, s3
	KeyResource = "resource"  // Resource key resolved by a source
	KeyBytes    = "bytes"     // Bytes fetched from a source
	KeyBucket   = "bucket"    // Object store bucket
	KeyPath     = "path"      // File path (catalog files, fs source)

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyRequestID  = "request_id"  // HTTP request id
)

// ============================================================================
// Field constructors
// ============================================================================

// TraceID returns a slog.Attr for an OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for an OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Library returns a slog.Attr for a library name
func Library(name string) slog.Attr {
	return slog.String(KeyLibrary, name)
}

// Version returns a slog.Attr for a task version
func Version(v uint64) slog.Attr {
	return slog.Uint64(KeyVersion, v)
}

// Item returns a slog.Attr for an item unique id
func Item(id string) slog.Attr {
	return slog.String(KeyItem, id)
}

// Index returns a slog.Attr for a sorted position
func Index(i int) slog.Attr {
	return slog.Int(KeyIndex, i)
}

// Handle returns a slog.Attr for a streamer request id
func Handle(id string) slog.Attr {
	return slog.String(KeyHandle, id)
}

// Priority returns a slog.Attr for a load priority
func Priority(p string) slog.Attr {
	return slog.String(KeyPriority, p)
}

// Source returns a slog.Attr for a resource source type
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// Resource returns a slog.Attr for a resource key
func Resource(key string) slog.Attr {
	return slog.String(KeyResource, key)
}

// DurationMs returns a slog.Attr for the time elapsed since start
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}

// Err returns a slog.Attr for an error. A nil error yields an empty attr
// that handlers skip.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
