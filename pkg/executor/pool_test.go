package executor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllJobs(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 3, QueueSize: 4})
	p.Start()
	defer p.Stop(time.Second)

	var n atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(50), n.Load())
	assert.Eventually(t, func() bool {
		pending, completed, _ := p.Stats()
		return pending == 0 && completed == 50
	}, time.Second, 5*time.Millisecond)
}

func TestPool_RecoversPanics(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1})
	p.Start()
	defer p.Stop(time.Second)

	require.NoError(t, p.Submit(func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}

	assert.Eventually(t, func() bool {
		_, completed, failed := p.Stats()
		return completed == 1 && failed == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPool_StopDrainsAndRejects(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1, QueueSize: 8})
	p.Start()

	var n atomic.Int32
	for range 5 {
		require.NoError(t, p.Submit(func() {
			time.Sleep(time.Millisecond)
			n.Add(1)
		}))
	}

	p.Stop(5 * time.Second)
	assert.Equal(t, int32(5), n.Load())
	assert.ErrorIs(t, p.Submit(func() {}), ErrStopped)
	assert.ErrorIs(t, p.TrySubmit(func() {}), ErrStopped)

	p.Stop(time.Second) // second stop is a no-op
}

func TestPool_StopWithoutStartRunsQueued(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 2, QueueSize: 4})

	var n atomic.Int32
	for range 3 {
		require.NoError(t, p.Submit(func() { n.Add(1) }))
	}

	p.Stop(time.Second)
	assert.Equal(t, int32(3), n.Load())
	assert.Equal(t, 0, p.Pending())
	assert.ErrorIs(t, p.Submit(func() {}), ErrStopped)
}

func TestPool_TrySubmitQueueFull(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1, QueueSize: 1})
	p.Start()

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	require.NoError(t, p.TrySubmit(func() {}))
	assert.ErrorIs(t, p.TrySubmit(func() {}), ErrQueueFull)

	close(block)
	p.Stop(time.Second)
}

func TestPool_Defaults(t *testing.T) {
	p := NewPool(PoolConfig{})
	assert.Equal(t, DefaultPoolConfig().Workers, p.workers)
	assert.Equal(t, DefaultPoolConfig().QueueSize, cap(p.jobs))
	p.Stop(time.Second) // never started
}
