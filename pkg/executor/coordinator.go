package executor

import (
	"context"
	"sync"

	"github.com/marmos91/assetstream/internal/logger"
)

// Coordinator runs posted functions one at a time, in post order, on a
// single goroutine.
//
// Functions must not call Do on the same coordinator: that would wait on
// itself. Post is safe from anywhere, including from coordinator
// functions.
type Coordinator struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewCoordinator starts a coordinator goroutine.
func NewCoordinator() *Coordinator {
	c := &Coordinator{done: make(chan struct{})}
	c.cond = sync.NewCond(&c.mu)
	go c.loop()
	return c
}

// Post queues fn. It never blocks. Posts after Stop are dropped and
// reported as false.
func (c *Coordinator) Post(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.queue = append(c.queue, fn)
	c.cond.Signal()
	return true
}

// Do posts fn and waits for it to run, or for ctx to end.
func (c *Coordinator) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !c.Post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until everything posted before the call has run.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.Do(ctx, func() {})
}

// Stop runs what is already queued, then ends the goroutine. It waits for
// the goroutine to exit or ctx to end.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.cond.Signal()
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) loop() {
	defer close(c.done)

	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.cond.Wait()
		}
		if len(c.queue) == 0 && c.closed {
			c.mu.Unlock()
			return
		}
		batch := c.queue
		c.queue = nil
		c.mu.Unlock()

		for _, fn := range batch {
			c.run(fn)
		}
	}
}

func (c *Coordinator) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Coordinator task panicked", "panic", r)
		}
	}()
	fn()
}
