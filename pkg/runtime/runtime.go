// Package runtime assembles a running assetstream server from configuration:
// the resource source, the streaming loader, the execution contexts, the
// library registry and the servers exposing them.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/catalogfile"
	"github.com/marmos91/assetstream/pkg/config"
	"github.com/marmos91/assetstream/pkg/executor"
	"github.com/marmos91/assetstream/pkg/library"
	"github.com/marmos91/assetstream/pkg/metrics"
	"github.com/marmos91/assetstream/pkg/registry"
	"github.com/marmos91/assetstream/pkg/stream"
)

// AuxiliaryServer is a server that runs for the lifetime of the runtime,
// such as the REST API or the metrics endpoint. Start blocks until ctx is
// cancelled and shuts the server down before returning.
type AuxiliaryServer interface {
	Start(ctx context.Context) error
}

type namedServer struct {
	name   string
	server AuxiliaryServer
}

// Runtime owns every long-lived component of the server.
type Runtime struct {
	cfg *config.Config

	source   stream.Source
	streamer *stream.Streamer
	pool     *executor.Pool
	coord    *executor.Coordinator
	registry *registry.Registry
	metrics  *metrics.Metrics

	mu      sync.Mutex
	watcher *catalogfile.Watcher
	servers []namedServer

	serveOnce sync.Once
	closeOnce sync.Once
}

// New creates the source named in cfg and starts the streamer and the
// worker pool. m may be nil.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Runtime, error) {
	src, err := NewSource(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}
	return NewWithSource(cfg, src, m), nil
}

// NewWithSource is New with a caller-provided source. The runtime takes
// ownership of src and closes it on shutdown.
func NewWithSource(cfg *config.Config, src stream.Source, m *metrics.Metrics) *Runtime {
	streamer := stream.New(src, stream.Config{
		Workers:     cfg.Streamer.Workers,
		QueueSize:   cfg.Streamer.QueueSize,
		LoadTimeout: cfg.Streamer.LoadTimeout,
	}, m)
	pool := executor.NewPool(executor.PoolConfig{
		Workers:   cfg.Scheduler.Workers,
		QueueSize: cfg.Scheduler.QueueSize,
	})
	coord := executor.NewCoordinator()

	streamer.Start()
	pool.Start()

	reg := registry.New(library.Options{
		Dispatcher:            streamer,
		Coordinator:           coord,
		Pool:                  pool,
		Metrics:               m,
		RefreshWindowOnCommit: cfg.Prioritizer.RefreshWindowOnCommit,
	})

	logger.Info("Runtime created",
		logger.Source(src.Name()),
		"scheduler_workers", cfg.Scheduler.Workers,
		"streamer_workers", cfg.Streamer.Workers)

	return &Runtime{
		cfg:      cfg,
		source:   src,
		streamer: streamer,
		pool:     pool,
		coord:    coord,
		registry: reg,
		metrics:  m,
	}
}

// Registry returns the library registry.
func (r *Runtime) Registry() *registry.Registry {
	return r.registry
}

// Streamer returns the streaming loader.
func (r *Runtime) Streamer() *stream.Streamer {
	return r.streamer
}

// Source returns the resource source.
func (r *Runtime) Source() stream.Source {
	return r.source
}

// AddServer registers a server started by Serve.
func (r *Runtime) AddServer(name string, server AuxiliaryServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = append(r.servers, namedServer{name: name, server: server})
}

// register is the catalogfile.RegisterFunc used for configured libraries.
func (r *Runtime) register(ctx context.Context, name string, items []catalog.Item) error {
	_, err := r.registry.Register(ctx, name, items)
	return err
}

// LoadLibraries registers every library listed in the configuration.
// Libraries marked watch are re-registered whenever their file changes
// once Serve is running.
//
// The first catalog that fails to load aborts startup.
func (r *Runtime) LoadLibraries(ctx context.Context) error {
	for _, lc := range r.cfg.Libraries {
		file, err := catalogfile.Load(lc.Path)
		if err != nil {
			return fmt.Errorf("library %q: %w", lc.Name, err)
		}
		if err := r.register(ctx, lc.Name, file.CatalogItems()); err != nil {
			return fmt.Errorf("library %q: %w", lc.Name, err)
		}
		logger.Info("Library registered",
			logger.Library(lc.Name),
			logger.Source(lc.Path),
			logger.KeyItems, len(file.Items))

		if lc.Watch {
			if err := r.watch(lc.Name, lc.Path); err != nil {
				return fmt.Errorf("library %q: %w", lc.Name, err)
			}
		}
	}
	return nil
}

func (r *Runtime) watch(name, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		w, err := catalogfile.NewWatcher(r.register, 0)
		if err != nil {
			return err
		}
		r.watcher = w
	}
	return r.watcher.Add(name, path)
}

// Serve starts the catalog watcher and every auxiliary server, then blocks
// until ctx is cancelled or a server fails. Everything is shut down before
// it returns. Serve runs at most once.
func (r *Runtime) Serve(ctx context.Context) error {
	err := errors.New("runtime already served")
	r.serveOnce.Do(func() {
		err = r.serve(ctx)
	})
	return err
}

func (r *Runtime) serve(ctx context.Context) error {
	logger.Info("Starting assetstream runtime", "libraries", r.registry.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	watcher := r.watcher
	servers := append([]namedServer(nil), r.servers...)
	r.mu.Unlock()

	if watcher != nil {
		go watcher.Run(ctx)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(servers))
	for _, s := range servers {
		wg.Add(1)
		go func(s namedServer) {
			defer wg.Done()
			if err := s.server.Start(ctx); err != nil {
				logger.Error("Server error", "server", s.name, logger.Err(err))
				errCh <- fmt.Errorf("%s server: %w", s.name, err)
			}
		}(s)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", "reason", context.Cause(ctx))
	case serveErr = <-errCh:
		logger.Error("Server failed - initiating shutdown", logger.Err(serveErr))
	}

	// Servers observe the cancellation and drain on their own.
	cancel()
	if watcher != nil {
		<-watcher.Done()
	}
	wg.Wait()

	r.Close()

	logger.Info("assetstream runtime stopped")
	return serveErr
}

// Close releases every library and stops the execution contexts and the
// source, waiting at most the configured shutdown timeout for each stage.
// It is idempotent and safe to call without Serve.
func (r *Runtime) Close() {
	r.closeOnce.Do(r.shutdown)
}

func (r *Runtime) shutdown() {
	timeout := r.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.mu.Lock()
	watcher := r.watcher
	r.mu.Unlock()
	if watcher != nil {
		watcher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Libraries first: their releases must reach a running streamer and
	// their completions a running coordinator.
	logger.Info("Closing libraries", "count", r.registry.Len())
	r.registry.Close(ctx)

	r.pool.Stop(timeout)
	r.streamer.Stop(timeout)

	if err := r.coord.Stop(ctx); err != nil {
		logger.Warn("Coordinator stop error", logger.Err(err))
	}

	if err := r.source.Close(); err != nil {
		logger.Warn("Source close error", logger.Source(r.source.Name()), logger.Err(err))
	}
}
