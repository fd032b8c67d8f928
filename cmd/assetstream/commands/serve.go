package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/pkg/api"
	"github.com/marmos91/assetstream/pkg/config"
	"github.com/marmos91/assetstream/pkg/runtime"
)

var pidFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assetstream server",
	Long: `Start the assetstream server in the foreground.

The server registers the libraries listed in the configuration, starts the
streaming loader on the configured source and exposes the REST API (and the
metrics endpoint when enabled). It stops gracefully on SIGINT or SIGTERM.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/assetstream/config.yaml.

Examples:
  # Start with the default configuration
  assetstream serve

  # Start with custom config file
  assetstream serve --config /etc/assetstream/config.yaml

  # Start with environment variable overrides
  ASSETSTREAM_LOGGING_LEVEL=DEBUG ASSETSTREAM_SOURCE_TYPE=filesystem \
  ASSETSTREAM_SOURCE_FILESYSTEM_PATH=./assets assetstream serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&pidFile, "pid-file", "", "Write the process ID to this file while running")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := runtime.InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownObservability, err := runtime.InitObservability(ctx, cfg, Version)
	if err != nil {
		return err
	}
	defer shutdownObservability(context.Background())

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	metricsResult := runtime.InitializeMetrics(cfg)

	rt, err := runtime.New(ctx, cfg, metricsResult.Metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}

	if err := rt.LoadLibraries(ctx); err != nil {
		rt.Close()
		return fmt.Errorf("failed to load libraries: %w", err)
	}

	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		rt.AddServer("metrics", metricsResult.Server)
	} else {
		logger.Info("Metrics collection disabled")
	}

	if cfg.API.IsEnabled() {
		rt.AddServer("api", api.NewServer(cfg.API, rt.Registry(), rt.Streamer()))
		logger.Info("API server configured", "port", cfg.API.Port)
	} else {
		logger.Info("API server disabled")
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			rt.Close()
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- rt.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
