package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/pkg/metrics"
)

// Config configures a Streamer.
type Config struct {
	// Workers is the number of concurrent loads. Default: 4.
	Workers int
	// QueueSize bounds each priority queue. Default: 1024.
	QueueSize int
	// LoadTimeout bounds the source fetches of one request. Default: 30s.
	LoadTimeout time.Duration
}

// DefaultConfig returns the default streamer settings.
func DefaultConfig() Config {
	return Config{Workers: 4, QueueSize: 1024, LoadTimeout: 30 * time.Second}
}

type requestState int

const (
	statePending requestState = iota
	stateLoading
	stateLoaded
	stateFailed
	stateReplaced
	stateReleased
)

// request is the Handle implementation. Mutable fields are guarded by the
// owning streamer's mutex.
type request struct {
	s        *Streamer
	id       string
	key      string
	keys     []string
	priority Priority
	onDone   func(error)
	queuedAt time.Time

	state requestState
	bytes int
}

func (r *request) ID() string         { return r.id }
func (r *request) Priority() Priority { return r.priority }

func (r *request) Loaded() bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.state == stateLoaded
}

// Streamer is a Dispatcher that fetches resources from a Source on a pool
// of workers, always serving high priority requests before default ones.
//
// The resident set is tracked per request key. Releasing a handle drops
// its resources; a later request for the same key fetches them again.
type Streamer struct {
	source  Source
	metrics *metrics.Metrics
	timeout time.Duration

	// Priority channels, workers check high first
	high chan *request
	low  chan *request

	workers   int
	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	inflight map[string]*request // pending or loading, by key
	resident map[string]*request // loaded, by key

	pendingHigh int
	pendingLow  int
	completed   int
	failed      int
	lastError   error
	lastErrorAt time.Time
}

// New creates a streamer reading from src. m may be nil.
func New(src Source, cfg Config, m *metrics.Metrics) *Streamer {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = def.LoadTimeout
	}

	return &Streamer{
		source:    src,
		metrics:   m,
		timeout:   cfg.LoadTimeout,
		high:      make(chan *request, cfg.QueueSize),
		low:       make(chan *request, cfg.QueueSize),
		workers:   cfg.Workers,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		inflight:  make(map[string]*request),
		resident:  make(map[string]*request),
	}
}

// Start launches the workers.
func (s *Streamer) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	logger.Info("Starting streamer", "workers", s.workers, logger.KeySource, s.source.Name())

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	go func() {
		s.wg.Wait()
		close(s.stoppedCh)
	}()
}

// Stop fails queued requests with ErrStopped and waits up to timeout for
// running loads. The source is not closed.
func (s *Streamer) Stop(timeout time.Duration) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if !s.started {
		s.mu.Unlock()
		s.abandonQueued()
		return
	}
	pending := s.pendingHigh + s.pendingLow
	s.mu.Unlock()

	logger.Info("Stopping streamer", logger.KeyPending, pending)
	close(s.stopCh)
	s.abandonQueued()

	select {
	case <-s.stoppedCh:
		logger.Info("Streamer stopped")
	case <-time.After(timeout):
		logger.Warn("Streamer stop timed out", logger.KeyPending, s.Pending())
	}
}

// abandonQueued empties both queues and finishes every request still
// pending with ErrStopped.
func (s *Streamer) abandonQueued() {
	var abandoned []*request

	s.mu.Lock()
	for _, q := range []chan *request{s.high, s.low} {
	drain:
		for {
			select {
			case r := <-q:
				s.adjustPending(r.priority, -1)
				if r.state != statePending {
					continue
				}
				r.state = stateFailed
				if s.inflight[r.key] == r {
					delete(s.inflight, r.key)
				}
				abandoned = append(abandoned, r)
			default:
				break drain
			}
		}
	}
	s.mu.Unlock()

	for _, r := range abandoned {
		s.finish(r, ErrStopped)
	}
}

// RequestLoad queues req. See Dispatcher.
func (s *Streamer) RequestLoad(req LoadRequest, onDone func(error)) Handle {
	r := &request{
		s:        s,
		id:       uuid.NewString(),
		key:      req.Key,
		priority: req.Priority,
		onDone:   onDone,
		queuedAt: time.Now(),
	}
	for _, ref := range req.Refs {
		r.keys = append(r.keys, ref.Keys()...)
	}

	s.mu.Lock()
	if s.stopped {
		r.state = stateFailed
		s.mu.Unlock()
		s.finish(r, ErrStopped)
		return r
	}

	if prev, ok := s.inflight[req.Key]; ok {
		prev.state = stateReplaced
		s.metrics.ObserveStream(prev.priority.String(), metrics.ResultReplaced, 0)
		logger.Debug("Load request replaced",
			logger.KeyHandle, prev.id,
			logger.KeyPriority, req.Priority.String())
	}

	if loaded, ok := s.resident[req.Key]; ok && loaded.state == stateLoaded {
		// Already resident: hand out a loaded handle without refetching.
		loaded.state = stateReplaced
		r.state = stateLoaded
		r.bytes = loaded.bytes
		s.resident[req.Key] = r
		delete(s.inflight, req.Key)
		s.mu.Unlock()
		go r.callback(nil)
		return r
	}

	s.inflight[req.Key] = r
	queue := s.low
	if r.priority == PriorityHigh {
		queue = s.high
	}

	select {
	case queue <- r:
		s.adjustPending(r.priority, 1)
		s.mu.Unlock()
	default:
		r.state = stateFailed
		delete(s.inflight, req.Key)
		s.mu.Unlock()
		logger.Warn("Streamer queue full, dropping request",
			logger.KeyHandle, r.id,
			logger.KeyPriority, r.priority.String())
		s.finish(r, ErrQueueFull)
	}
	return r
}

// ReleaseHandle drops h. A pending request is abandoned without calling
// its callback; a loaded one gives up its resources.
func (s *Streamer) ReleaseHandle(h Handle) {
	r, ok := h.(*request)
	if !ok || r == nil || r.s != s {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.state {
	case statePending, stateLoading:
		if s.inflight[r.key] == r {
			delete(s.inflight, r.key)
		}
	case stateLoaded:
		if s.resident[r.key] == r {
			delete(s.resident, r.key)
		}
	default:
		return
	}
	r.state = stateReleased
	s.metrics.ObserveStream(r.priority.String(), metrics.ResultReleased, 0)
}

// Pending returns the number of queued requests.
func (s *Streamer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingHigh + s.pendingLow
}

// Resident returns the number of request keys currently loaded.
func (s *Streamer) Resident() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resident)
}

// ResidentBytes returns the total bytes held by loaded requests.
func (s *Streamer) ResidentBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, r := range s.resident {
		total += r.bytes
	}
	return total
}

// Stats returns request counters.
func (s *Streamer) Stats() (pending, completed, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingHigh + s.pendingLow, s.completed, s.failed
}

// LastError returns when the last load failed and why.
func (s *Streamer) LastError() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErrorAt, s.lastError
}

// adjustPending must be called with s.mu held.
func (s *Streamer) adjustPending(p Priority, delta int) {
	if p == PriorityHigh {
		s.pendingHigh += delta
		s.metrics.SetQueueDepth(p.String(), s.pendingHigh)
	} else {
		s.pendingLow += delta
		s.metrics.SetQueueDepth(p.String(), s.pendingLow)
	}
}

// worker serves requests, high priority first. The first select drains
// high priority work without blocking; the second waits on both queues so
// idle workers don't spin.
func (s *Streamer) worker(id int) {
	defer s.wg.Done()

	logger.Debug("Streamer worker started", logger.KeyWorkerID, id)

	for {
		select {
		case r := <-s.high:
			s.process(r)
			continue
		case <-s.stopCh:
			logger.Debug("Streamer worker stopped", logger.KeyWorkerID, id)
			return
		default:
		}

		select {
		case r := <-s.high:
			s.process(r)
		case r := <-s.low:
			s.process(r)
		case <-s.stopCh:
			logger.Debug("Streamer worker stopped", logger.KeyWorkerID, id)
			return
		}
	}
}

func (s *Streamer) process(r *request) {
	s.mu.Lock()
	s.adjustPending(r.priority, -1)
	if r.state != statePending {
		s.mu.Unlock()
		return
	}
	r.state = stateLoading
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	total := 0
	var err error
	for _, key := range r.keys {
		var data []byte
		data, err = s.source.Fetch(ctx, key)
		if err != nil {
			err = fmt.Errorf("fetch %q from %s: %w", key, s.source.Name(), err)
			break
		}
		total += len(data)
	}

	s.mu.Lock()
	if r.state != stateLoading {
		// Released or replaced while fetching.
		s.mu.Unlock()
		return
	}
	if s.inflight[r.key] == r {
		delete(s.inflight, r.key)
	}
	if err != nil {
		r.state = stateFailed
		s.failed++
		s.lastError = err
		s.lastErrorAt = time.Now()
	} else {
		r.state = stateLoaded
		r.bytes = total
		s.resident[r.key] = r
		s.completed++
	}
	s.mu.Unlock()

	if err == nil {
		s.metrics.AddBytes(total)
	}
	s.finish(r, err)
}

func (s *Streamer) finish(r *request, err error) {
	result := metrics.ResultLoaded
	if err != nil {
		result = metrics.ResultFailed
		if !errors.Is(err, ErrStopped) {
			logger.Warn("Load failed",
				logger.KeyHandle, r.id,
				logger.KeyPriority, r.priority.String(),
				logger.KeyError, err)
		}
	} else {
		logger.Debug("Load completed",
			logger.KeyHandle, r.id,
			logger.KeyPriority, r.priority.String(),
			logger.KeyBytes, r.bytes)
	}
	s.metrics.ObserveStream(r.priority.String(), result, time.Since(r.queuedAt))
	r.callback(err)
}

func (r *request) callback(err error) {
	if r.onDone != nil {
		r.onDone(err)
	}
}

var _ Dispatcher = (*Streamer)(nil)
