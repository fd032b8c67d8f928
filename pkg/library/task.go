package library

import (
	"context"
	"slices"
	"sync"

	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/filter"
)

// Token identifies one filter and sort request.
type Token struct {
	Library string
	Version uint64
}

// SortRequest describes a filter and sort recomputation.
type SortRequest struct {
	Criteria   filter.Criteria
	Order      []catalog.Tag
	Descending bool

	// Async runs the computation on the worker pool. FilterAndSort then
	// returns before the result is committed.
	Async bool
}

// Result is the outcome of a committed request.
type Result struct {
	Token   Token
	IDs     []string
	Handles []catalog.Handle

	// FilterReused is true when the cached filtered subset was reused.
	FilterReused bool
}

// Task tracks a filter and sort request until it commits or is discarded.
type Task struct {
	token Token
	done  chan struct{}
	once  sync.Once

	result Result
	err    error
}

func newTask(tok Token) *Task {
	return &Task{token: tok, done: make(chan struct{})}
}

// Token returns the request's token.
func (t *Task) Token() Token {
	return t.token
}

// Done is closed when the task has committed or been discarded.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. A task that lost to a
// newer request returns ErrSuperseded.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (t *Task) finish(res Result, err error) {
	t.once.Do(func() {
		t.result = res
		t.err = err
		close(t.done)
	})
}

// snapshot is everything an async computation reads, captured under the
// library lock.
type snapshot struct {
	criteria   filter.Criteria
	order      []catalog.Tag
	descending bool

	cachedCriteria filter.Criteria
	cachedFiltered []catalog.Handle
	hasCached      bool
}

func (l *Library) snapshotLocked(req SortRequest) snapshot {
	return snapshot{
		criteria:       req.Criteria.Clone(),
		order:          slices.Clone(req.Order),
		descending:     req.Descending,
		cachedCriteria: l.criteria,
		cachedFiltered: l.filtered,
		hasCached:      l.hasFiltered,
	}
}
