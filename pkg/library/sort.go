package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/internal/telemetry"
	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/executor"
	"github.com/marmos91/assetstream/pkg/filter"
	"github.com/marmos91/assetstream/pkg/metrics"
	"github.com/marmos91/assetstream/pkg/sorter"
)

// computed is the product of one filter and sort pass.
type computed struct {
	filtered []catalog.Handle
	sorted   []catalog.Handle
	reused   bool
}

// compute filters and sorts without touching library state.
// It panics with *sorter.InvariantError on a tagged item without a value.
func compute(cat *catalog.Catalog, s snapshot) computed {
	var out computed
	if s.hasCached && s.criteria.Equal(s.cachedCriteria) {
		out.filtered = s.cachedFiltered
		out.reused = true
	} else {
		out.filtered = filter.Apply(cat, s.criteria)
	}
	out.sorted = sorter.Sort(cat, out.filtered, s.order, s.descending)
	return out
}

// FilterAndSort starts a recomputation of the committed order.
//
// In sync mode the work runs on the caller's goroutine under the library
// lock, commits, and onComplete has run on the coordinator by the time
// FilterAndSort returns. A sorting invariant violation panics in the
// caller.
//
// In async mode the work runs on the worker pool. The result commits only
// if no newer request was made in the meantime; onComplete then runs on the
// coordinator. A discarded result never reaches onComplete.
//
// onComplete may be nil.
func (l *Library) FilterAndSort(ctx context.Context, req SortRequest, onComplete func(Result)) (*Task, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	l.version++
	task := newTask(Token{Library: l.name, Version: l.version})
	l.beginCompute()
	snap := l.snapshotLocked(req)

	if !req.Async {
		return task, l.runSync(ctx, task, snap, onComplete)
	}
	l.mu.Unlock()

	job := func() { l.runAsync(ctx, task, snap, onComplete) }
	if l.opts.Pool == nil {
		go job()
		return task, nil
	}
	if err := l.opts.Pool.Submit(job); err != nil {
		l.mu.Lock()
		l.endCompute()
		l.mu.Unlock()
		err = fmt.Errorf("library %q: submit: %w", l.name, err)
		task.finish(Result{Token: task.token}, err)
		return task, err
	}
	return task, nil
}

// runSync is entered with l.mu held and releases it.
func (l *Library) runSync(ctx context.Context, task *Task, snap snapshot, onComplete func(Result)) error {
	ctx, span := telemetry.StartLibrarySpan(ctx, "filter_sort", l.name,
		telemetry.Version(task.token.Version), telemetry.Mode(metrics.OutcomeSync))
	defer span.End()
	ctx = l.withLogContext(ctx, "filter_sort", task.token.Version)

	start := time.Now()
	var out computed
	func() {
		defer func() {
			if r := recover(); r != nil {
				l.endCompute()
				l.mu.Unlock()
				panic(r)
			}
		}()
		out = compute(l.cat, snap)
	}()

	res := l.commitLocked(task.token, snap, out)
	refresh := l.opts.RefreshWindowOnCommit && l.derive != nil
	l.endCompute()
	l.mu.Unlock()

	l.observeCommit(ctx, metrics.OutcomeSync, out, time.Since(start))
	task.finish(res, nil)

	// The order is committed: the notification runs even if ctx ends while
	// it is queued, and before this call returns.
	notifyCtx := context.WithoutCancel(ctx)
	notify := func() {
		if refresh {
			l.refreshTarget(notifyCtx)
		}
		if onComplete != nil {
			onComplete(res)
		}
	}
	if err := l.opts.Coordinator.Do(notifyCtx, notify); errors.Is(err, executor.ErrStopped) {
		notify()
	}
	return nil
}

func (l *Library) runAsync(ctx context.Context, task *Task, snap snapshot, onComplete func(Result)) {
	ctx, span := telemetry.StartLibrarySpan(ctx, "filter_sort", l.name,
		telemetry.Version(task.token.Version), telemetry.Mode("async"))
	defer span.End()
	ctx = l.withLogContext(ctx, "filter_sort", task.token.Version)

	start := time.Now()
	out, err := computeRecovered(l.cat, snap)

	l.mu.Lock()
	if err != nil || l.closed || task.token.Version != l.version {
		l.discards++
		l.endCompute()
		l.mu.Unlock()

		if err == nil {
			err = ErrSuperseded
		}
		l.opts.Metrics.ObserveRecompute(l.name, metrics.OutcomeDiscarded, time.Since(start))
		telemetry.SetAttributes(ctx, telemetry.Outcome(metrics.OutcomeDiscarded))
		if !errors.Is(err, ErrSuperseded) {
			telemetry.RecordError(ctx, err)
			logger.ErrorCtx(ctx, "Filter and sort failed", logger.Err(err))
		} else {
			logger.DebugCtx(ctx, "Discarded stale filter and sort")
		}
		task.finish(Result{Token: task.token}, err)
		return
	}

	res := l.commitLocked(task.token, snap, out)
	refresh := l.opts.RefreshWindowOnCommit && l.derive != nil
	l.endCompute()
	l.mu.Unlock()

	l.observeCommit(ctx, metrics.OutcomeCommitted, out, time.Since(start))

	if !l.opts.Coordinator.Post(func() {
		if refresh {
			l.refreshTarget(context.WithoutCancel(ctx))
		}
		if onComplete != nil {
			onComplete(res)
		}
		task.finish(res, nil)
	}) {
		task.finish(res, nil)
	}
}

// computeRecovered turns an invariant panic into an error so a worker can
// report it through the task.
func computeRecovered(cat *catalog.Catalog, s snapshot) (out computed, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*sorter.InvariantError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()
	return compute(cat, s), nil
}

// commitLocked installs a computed order. Requires l.mu.
func (l *Library) commitLocked(tok Token, snap snapshot, out computed) Result {
	l.criteria = snap.criteria
	l.filtered = out.filtered
	l.hasFiltered = true
	l.sorted = out.sorted

	l.index = make(map[string]int, len(out.sorted))
	for i, h := range out.sorted {
		id := l.cat.UniqueID(h)
		if id == "" {
			continue
		}
		if _, dup := l.index[id]; !dup {
			l.index[id] = i
		}
	}

	l.commits++
	if out.reused {
		l.filterReuses++
	} else {
		l.filterRuns++
	}

	return Result{
		Token:        tok,
		IDs:          l.idsLocked(),
		Handles:      slices.Clone(out.sorted),
		FilterReused: out.reused,
	}
}

func (l *Library) observeCommit(ctx context.Context, outcome string, out computed, d time.Duration) {
	l.opts.Metrics.ObserveRecompute(l.name, outcome, d)
	telemetry.SetAttributes(ctx,
		telemetry.Outcome(outcome),
		telemetry.Filtered(len(out.filtered)),
		telemetry.Sorted(len(out.sorted)),
		telemetry.Reused(out.reused),
	)
	logger.DebugCtx(ctx, "Committed filter and sort",
		logger.KeyOutcome, outcome,
		logger.KeyFiltered, len(out.filtered),
		logger.KeySorted, len(out.sorted),
		logger.KeyReused, out.reused,
	)
}
