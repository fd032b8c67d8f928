// Package library implements one registered asset library: its catalog,
// the committed filtered and sorted order, and the set of items it has
// asked the streaming loader to keep resident.
//
// Filter and sort requests are versioned. Every request bumps the library
// version and carries a Token; an asynchronous computation commits only if
// its token is still current when it finishes, otherwise it is discarded
// and its completion never fires. Buffer updates are never versioned: they
// run synchronously on the coordinator against the committed order.
//
// Locking: each Library has its own mutex, held only for bookkeeping.
// Filtering and sorting in async mode run on the worker pool without it.
// Dispatcher calls, observer notifications and completion callbacks all run
// on the coordinator goroutine, so none of them may call a blocking Library
// method (FilterAndSort in sync mode, SetBufferTarget*, Close) directly.
package library

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/internal/telemetry"
	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/executor"
	"github.com/marmos91/assetstream/pkg/filter"
	"github.com/marmos91/assetstream/pkg/metrics"
	"github.com/marmos91/assetstream/pkg/stream"
	"github.com/marmos91/assetstream/pkg/window"
)

var (
	// ErrSuperseded is returned by Task.Wait when a newer request made the
	// task's result stale.
	ErrSuperseded = errors.New("library: superseded by a newer request")

	// ErrItemNotFound is returned when a unique id is not part of the
	// committed sorted order.
	ErrItemNotFound = errors.New("library: item not found")

	// ErrClosed is returned by operations on a library after Close.
	ErrClosed = errors.New("library: closed")

	// ErrNoDispatcher is returned by New when Options lacks a dispatcher.
	ErrNoDispatcher = errors.New("library: dispatcher is required")

	// ErrNoCoordinator is returned by New when Options lacks a coordinator.
	ErrNoCoordinator = errors.New("library: coordinator is required")
)

// Options wires a Library to its execution contexts and loader.
type Options struct {
	// Dispatcher receives load and release requests. Required.
	Dispatcher stream.Dispatcher

	// Coordinator serializes dispatcher calls, notifications and
	// completions. Required.
	Coordinator *executor.Coordinator

	// Pool runs asynchronous filter and sort work. When nil, each async
	// request runs on its own goroutine.
	Pool *executor.Pool

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// RefreshWindowOnCommit re-applies the last buffer target after every
	// committed re-sort so residency follows the new order.
	RefreshWindowOnCommit bool
}

// entry is the per-item load state for one outstanding request.
// A new entry is created for every RequestLoad, so a completion can tell
// whether it still belongs to the current request.
type entry struct {
	handle   stream.Handle
	priority stream.Priority
	loaded   bool
}

// Library is safe for concurrent use.
type Library struct {
	name string
	cat  *catalog.Catalog
	opts Options

	// keyPrefix makes load keys unique across libraries and across
	// replacements of a library under the same name.
	keyPrefix string

	mu      sync.Mutex
	version uint64
	closed  bool

	// Cached filter result, reused when the next request has equal criteria.
	criteria    filter.Criteria
	filtered    []catalog.Handle
	hasFiltered bool

	sorted []catalog.Handle
	// index maps a unique id to its first position in sorted.
	index map[string]int

	// derive re-creates the last buffer target; target is its last result.
	derive    targeter
	target    window.Target
	hasTarget bool

	requested map[catalog.Handle]*entry

	inflight int
	idle     chan struct{}

	commits      uint64
	discards     uint64
	filterRuns   uint64
	filterReuses uint64
}

// New builds a library over items. The committed order starts empty until
// the first FilterAndSort.
func New(name string, items []catalog.Item, opts Options) (*Library, error) {
	if opts.Dispatcher == nil {
		return nil, ErrNoDispatcher
	}
	if opts.Coordinator == nil {
		return nil, ErrNoCoordinator
	}

	cat, err := catalog.New(items)
	if err != nil {
		return nil, fmt.Errorf("library %q: %w", name, err)
	}

	idle := make(chan struct{})
	close(idle)

	return &Library{
		name:      name,
		cat:       cat,
		opts:      opts,
		keyPrefix: name + "/" + uuid.NewString(),
		sorted:    []catalog.Handle{},
		index:     map[string]int{},
		requested: make(map[catalog.Handle]*entry),
		idle:      idle,
	}, nil
}

// Name returns the name the library was created with.
func (l *Library) Name() string {
	return l.name
}

// Catalog returns the library's item arena.
func (l *Library) Catalog() *catalog.Catalog {
	return l.cat
}

// Version returns the version of the most recent filter and sort request.
func (l *Library) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// Status is a point-in-time snapshot of a library.
type Status struct {
	Name     string `json:"name"`
	Version  uint64 `json:"version"`
	Items    int    `json:"items"`
	Filtered int    `json:"filtered"`
	Sorted   int    `json:"sorted"`

	Requested int `json:"requested"`
	Loaded    int `json:"loaded"`
	High      int `json:"high"`
	InFlight  int `json:"in_flight"`

	Target       *window.Target `json:"target,omitempty"`
	Commits      uint64         `json:"commits"`
	Discards     uint64         `json:"discards"`
	FilterRuns   uint64         `json:"filter_runs"`
	FilterReuses uint64         `json:"filter_reuses"`
	Closed       bool           `json:"closed"`
}

// Status returns a snapshot of the library's state.
func (l *Library) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := Status{
		Name:         l.name,
		Version:      l.version,
		Items:        l.cat.Len(),
		Filtered:     len(l.filtered),
		Sorted:       len(l.sorted),
		Requested:    len(l.requested),
		InFlight:     l.inflight,
		Commits:      l.commits,
		Discards:     l.discards,
		FilterRuns:   l.filterRuns,
		FilterReuses: l.filterReuses,
		Closed:       l.closed,
	}
	for _, e := range l.requested {
		if e.loaded {
			st.Loaded++
		}
		if e.priority == stream.PriorityHigh {
			st.High++
		}
	}
	if l.hasTarget {
		t := l.target
		st.Target = &t
	}
	return st
}

// SortedIDs waits until no filter and sort computation is in flight and
// returns the unique ids of the committed order.
func (l *Library) SortedIDs(ctx context.Context) ([]string, error) {
	for {
		l.mu.Lock()
		if l.inflight == 0 {
			ids := l.idsLocked()
			l.mu.Unlock()
			return ids, nil
		}
		idle := l.idle
		l.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *Library) idsLocked() []string {
	ids := make([]string, len(l.sorted))
	for i, h := range l.sorted {
		ids[i] = l.cat.UniqueID(h)
	}
	return ids
}

// beginCompute and endCompute track in-flight computations for SortedIDs.
// Both require l.mu.
func (l *Library) beginCompute() {
	if l.inflight == 0 {
		l.idle = make(chan struct{})
	}
	l.inflight++
}

func (l *Library) endCompute() {
	l.inflight--
	if l.inflight == 0 {
		close(l.idle)
	}
}

// Close invalidates in-flight computations, releases every requested item
// and notifies each of them with false. It is idempotent.
//
// Close runs on the coordinator; when the coordinator has already stopped
// it runs on the caller's goroutine instead.
func (l *Library) Close(ctx context.Context) error {
	run := func() { l.closeOnCoordinator() }
	err := l.opts.Coordinator.Do(ctx, run)
	if errors.Is(err, executor.ErrStopped) {
		run()
		return nil
	}
	return err
}

func (l *Library) closeOnCoordinator() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.version++
	released := l.releaseAllLocked()
	l.mu.Unlock()

	for _, h := range released {
		l.cat.Notify(h, false)
	}
	l.opts.Metrics.ForgetLibrary(l.name)

	logger.Debug("Library closed", logger.Library(l.name), logger.KeyUnloads, len(released))
}

// withLogContext tags ctx so that *Ctx log lines carry the library, the
// operation, the task version and the active span.
func (l *Library) withLogContext(ctx context.Context, operation string, version uint64) context.Context {
	lc := logger.NewLogContext(l.name, operation).
		WithVersion(version).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	return logger.WithContext(ctx, lc)
}
