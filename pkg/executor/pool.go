// Package executor provides the two execution contexts the prioritizer runs
// on: a Pool of workers for off-thread filter and sort work, and a single
// Coordinator goroutine that serializes dispatcher calls, observer
// notifications and completion callbacks.
package executor

import (
	"errors"
	"sync"
	"time"

	"github.com/marmos91/assetstream/internal/logger"
)

// ErrStopped is returned when work is submitted after Stop.
var ErrStopped = errors.New("executor: stopped")

// ErrQueueFull is returned by TrySubmit when the queue has no room.
var ErrQueueFull = errors.New("executor: queue full")

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Workers is the number of goroutines running jobs. Default: 4.
	Workers int
	// QueueSize bounds the number of queued jobs. Default: 256.
	QueueSize int
}

// DefaultPoolConfig returns the default pool settings.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Workers: 4, QueueSize: 256}
}

// Pool runs submitted jobs on a fixed set of workers.
//
// A job that panics does not take its worker down: the panic is recovered,
// logged and counted as a failure.
type Pool struct {
	jobs chan func()

	workers   int
	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}

	// submitMu is held shared while a job is being sent and exclusively
	// while stopping, so no job is queued after the workers drained.
	submitMu sync.RWMutex

	mu        sync.Mutex
	started   bool
	stopped   bool
	pending   int
	completed int
	failed    int
}

// NewPool creates a pool. Call Start before submitting.
func NewPool(cfg PoolConfig) *Pool {
	def := DefaultPoolConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	return &Pool{
		jobs:      make(chan func(), cfg.QueueSize),
		workers:   cfg.Workers,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	logger.Debug("Starting worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go func() {
		p.wg.Wait()
		close(p.stoppedCh)
	}()
}

// Submit queues job, blocking while the queue is full.
func (p *Pool) Submit(job func()) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if !p.reserve() {
		return ErrStopped
	}
	p.jobs <- job
	return nil
}

// TrySubmit queues job without blocking.
func (p *Pool) TrySubmit(job func()) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if !p.reserve() {
		return ErrStopped
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		p.release()
		return ErrQueueFull
	}
}

func (p *Pool) reserve() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.pending++
	return true
}

func (p *Pool) release() {
	p.mu.Lock()
	p.pending--
	p.mu.Unlock()
}

// Stop stops accepting work, lets workers drain the queue and waits up to
// timeout for them to exit. On a pool that was never started, the jobs
// queued so far run on the calling goroutine.
func (p *Pool) Stop(timeout time.Duration) {
	p.submitMu.Lock()
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.submitMu.Unlock()
		return
	}
	if !p.started {
		p.stopped = true
		p.mu.Unlock()
		p.submitMu.Unlock()
		p.drain(0)
		return
	}
	p.stopped = true
	pending := p.pending
	p.mu.Unlock()
	close(p.stopCh)
	p.submitMu.Unlock()

	logger.Debug("Stopping worker pool", logger.KeyPending, pending)

	select {
	case <-p.stoppedCh:
	case <-time.After(timeout):
		logger.Warn("Worker pool stop timed out", logger.KeyPending, p.Pending())
	}
}

// Pending returns the number of queued or running jobs.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Stats returns job counters.
func (p *Pool) Stats() (pending, completed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending, p.completed, p.failed
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobs:
			p.run(id, job)
		case <-p.stopCh:
			p.drain(id)
			return
		}
	}
}

func (p *Pool) drain(id int) {
	for {
		select {
		case job := <-p.jobs:
			p.run(id, job)
		default:
			return
		}
	}
}

func (p *Pool) run(id int, job func()) {
	ok := false
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Pool job panicked", logger.KeyWorkerID, id, "panic", r)
		}
		p.mu.Lock()
		p.pending--
		if ok {
			p.completed++
		} else {
			p.failed++
		}
		p.mu.Unlock()
	}()

	job()
	ok = true
}
