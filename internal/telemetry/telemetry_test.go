package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

// recordSpans installs an in-memory span recorder for the duration of t.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	UseTracerProvider(tp, true)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		UseTracerProvider(noop.NewTracerProvider(), false)
	})
	return rec
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "assetstream", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Enabled: true, SampleRate: 0.5}.withDefaults()

	assert.Equal(t, "assetstream", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, 0.5, cfg.SampleRate)

	custom := Config{ServiceName: "loader", ServiceVersion: "1.2.0", Endpoint: "otel:4317"}.withDefaults()
	assert.Equal(t, "loader", custom.ServiceName)
	assert.Equal(t, "1.2.0", custom.ServiceVersion)
	assert.Equal(t, "otel:4317", custom.Endpoint)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
	require.NotNil(t, Tracer())
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(0.25).Description())
}

func TestNoopHelpers(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		_, span := StartSpan(ctx, "noop")
		span.End()
		AddEvent(ctx, "event")
		RecordError(ctx, nil)
		RecordError(ctx, errors.New("boom"))
		SetStatus(ctx, codes.Ok, "")
		SetAttributes(ctx, Library("x"))
	})
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
	require.NotNil(t, SpanFromContext(ctx))
}

func TestStartLibrarySpan(t *testing.T) {
	rec := recordSpans(t)
	assert.True(t, IsEnabled())

	ctx, span := StartLibrarySpan(context.Background(), "filter_sort", "weapons",
		Version(4), Mode("async"), Reused(true))
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	SetAttributes(ctx, Sorted(3), Outcome("committed"))
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "library.filter_sort", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "weapons", attrs[AttrLibrary].AsString())
	assert.Equal(t, "filter_sort", attrs[AttrOperation].AsString())
	assert.Equal(t, int64(4), attrs[AttrVersion].AsInt64())
	assert.Equal(t, "async", attrs[AttrMode].AsString())
	assert.True(t, attrs[AttrReused].AsBool())
	assert.Equal(t, int64(3), attrs[AttrSorted].AsInt64())
	assert.Equal(t, "committed", attrs[AttrOutcome].AsString())
}

func TestStartStreamSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := StartStreamSpan(context.Background(), "fetch", Source("memory"), Resource("sword"), Priority("high"))
	RecordError(ctx, errors.New("not found"))
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "stream.fetch", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "memory", attrs[AttrSource].AsString())
	assert.Equal(t, "sword", attrs[AttrResource].AsString())
	assert.Equal(t, "high", attrs[AttrPriority].AsString())
}

func TestAttributeHelpers(t *testing.T) {
	window := attrMap(Window(2, 5, 1))
	assert.Equal(t, int64(2), window[AttrWindowStart].AsInt64())
	assert.Equal(t, int64(5), window[AttrWindowEnd].AsInt64())
	assert.Equal(t, int64(1), window[AttrWindowMargin].AsInt64())

	assert.Equal(t, AttrItems, string(Items(3).Key))
	assert.Equal(t, AttrFiltered, string(Filtered(3).Key))
	assert.True(t, Descending(true).Value.AsBool())
	assert.Equal(t, int64(2), Loads(2).Value.AsInt64())
	assert.Equal(t, int64(1), Unloads(1).Value.AsInt64())
}

func TestParseProfileTypes(t *testing.T) {
	types, err := ParseProfileTypes([]string{"cpu", "INUSE_SPACE", "goroutines"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}, types)

	_, err = ParseProfileTypes([]string{"heap"})
	assert.Error(t, err)
}

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}
