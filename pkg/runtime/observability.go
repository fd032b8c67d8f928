package runtime

import (
	"context"
	"fmt"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/internal/telemetry"
	"github.com/marmos91/assetstream/pkg/config"
	"github.com/marmos91/assetstream/pkg/metrics"
)

// ServiceName is reported to tracing and profiling backends.
const ServiceName = "assetstream"

// MetricsResult holds what InitializeMetrics produced. Server is nil when
// metrics are disabled; Metrics is then unregistered but still usable.
type MetricsResult struct {
	Metrics *metrics.Metrics
	Server  *metrics.Server
}

// InitializeMetrics sets up the Prometheus registry and metrics server
// when cfg.Metrics.Enabled is set.
func InitializeMetrics(cfg *config.Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{Metrics: metrics.NewMetrics(nil)}
	}
	reg := metrics.InitRegistry()
	return MetricsResult{
		Metrics: metrics.NewMetrics(reg),
		Server:  metrics.NewServer(cfg.Metrics.Port, reg),
	}
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// InitObservability starts tracing and profiling as configured. The
// returned function shuts both down and is always non-nil.
func InitObservability(ctx context.Context, cfg *config.Config, version string) (func(context.Context), error) {
	traceShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return func(context.Context) {}, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		_ = traceShutdown(ctx)
		return func(context.Context) {}, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	return func(ctx context.Context) {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
		if err := traceShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}, nil
}
