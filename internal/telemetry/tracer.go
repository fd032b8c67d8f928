package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for prioritizer spans.
const (
	// ========================================================================
	// Library attributes
	// ========================================================================
	AttrLibrary    = "library.name"
	AttrOperation  = "library.operation" // filter_sort, buffer, close
	AttrVersion    = "library.version"
	AttrMode       = "library.mode" // sync/async, range/page
	AttrItems      = "library.items"
	AttrFiltered   = "library.filtered"
	AttrSorted     = "library.sorted"
	AttrReused     = "library.filter_reused"
	AttrDescending = "library.descending"
	AttrOutcome    = "library.outcome" // committed, discarded

	// ========================================================================
	// Window attributes
	// ========================================================================
	AttrWindowStart  = "window.start"
	AttrWindowEnd    = "window.end"
	AttrWindowMargin = "window.margin"
	AttrLoads        = "window.loads"
	AttrUnloads      = "window.unloads"

	// ========================================================================
	// Streaming attributes
	// ========================================================================
	AttrPriority = "stream.priority"
	AttrSource   = "stream.source"
	AttrResource = "stream.resource"
)

// Library returns the library name attribute.
func Library(name string) attribute.KeyValue {
	return attribute.String(AttrLibrary, name)
}

// Version returns the task version attribute.
func Version(v uint64) attribute.KeyValue {
	return attribute.Int64(AttrVersion, int64(v))
}

// Mode returns the mode attribute.
func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrMode, mode)
}

// Items returns the catalog size attribute.
func Items(n int) attribute.KeyValue {
	return attribute.Int(AttrItems, n)
}

// Filtered returns the filtered subset size attribute.
func Filtered(n int) attribute.KeyValue {
	return attribute.Int(AttrFiltered, n)
}

// Sorted returns the sorted sequence size attribute.
func Sorted(n int) attribute.KeyValue {
	return attribute.Int(AttrSorted, n)
}

// Reused reports whether the cached filtered subset was reused.
func Reused(reused bool) attribute.KeyValue {
	return attribute.Bool(AttrReused, reused)
}

// Descending returns the sort direction attribute.
func Descending(desc bool) attribute.KeyValue {
	return attribute.Bool(AttrDescending, desc)
}

// Outcome returns the recomputation outcome attribute.
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// Window returns the start, end and margin attributes of a target window.
func Window(start, end, margin int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrWindowStart, start),
		attribute.Int(AttrWindowEnd, end),
		attribute.Int(AttrWindowMargin, margin),
	}
}

// Loads returns the number of loads issued by a buffer update.
func Loads(n int) attribute.KeyValue {
	return attribute.Int(AttrLoads, n)
}

// Unloads returns the number of releases issued by a buffer update.
func Unloads(n int) attribute.KeyValue {
	return attribute.Int(AttrUnloads, n)
}

// Priority returns the load priority attribute.
func Priority(p string) attribute.KeyValue {
	return attribute.String(AttrPriority, p)
}

// Source returns the resource source attribute.
func Source(name string) attribute.KeyValue {
	return attribute.String(AttrSource, name)
}

// Resource returns the resource key attribute.
func Resource(key string) attribute.KeyValue {
	return attribute.String(AttrResource, key)
}

// StartLibrarySpan starts a span named "library.<operation>" carrying the
// library name.
func StartLibrarySpan(ctx context.Context, operation, library string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all, Library(library), attribute.String(AttrOperation, operation))
	all = append(all, attrs...)
	return StartSpan(ctx, "library."+operation, trace.WithAttributes(all...))
}

// StartStreamSpan starts a span named "stream.<operation>".
func StartStreamSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "stream."+operation, trace.WithAttributes(attrs...))
}
