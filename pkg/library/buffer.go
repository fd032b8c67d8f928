package library

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/internal/telemetry"
	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/stream"
	"github.com/marmos91/assetstream/pkg/window"
)

// targeter derives a window target from the committed order. n is the
// length of the sorted sequence; indexOf resolves a unique id.
type targeter func(n int, indexOf func(id string) (int, bool)) (window.Target, error)

// SetBufferTargetByIndex keeps sorted position index resident at high
// priority and margin positions on either side at default priority.
func (l *Library) SetBufferTargetByIndex(ctx context.Context, index, margin int) error {
	return l.setTarget(ctx, func(int, func(string) (int, bool)) (window.Target, error) {
		return window.ByIndex(index, margin), nil
	})
}

// SetBufferTargetByUniqueID targets the first sorted item with the given
// unique id. When no such item exists the call fails with ErrItemNotFound
// and nothing is loaded or released.
func (l *Library) SetBufferTargetByUniqueID(ctx context.Context, id string, margin int) error {
	return l.setTarget(ctx, func(_ int, indexOf func(string) (int, bool)) (window.Target, error) {
		i, ok := indexOf(id)
		if !ok {
			return window.Target{}, fmt.Errorf("%w: %q", ErrItemNotFound, id)
		}
		return window.ByIndex(i, margin), nil
	})
}

// SetBufferTargetByPage keeps page pageIndex resident at high priority and
// bufferPages whole pages on either side at default priority.
func (l *Library) SetBufferTargetByPage(ctx context.Context, pageIndex, pageSize, bufferPages int) error {
	return l.setTarget(ctx, func(int, func(string) (int, bool)) (window.Target, error) {
		return window.ByPage(pageIndex, pageSize, bufferPages), nil
	})
}

// SetBufferTargetAroundIndex keeps index and extent positions on either side
// resident at high priority, plus margin positions at default priority.
func (l *Library) SetBufferTargetAroundIndex(ctx context.Context, index, extent, margin int) error {
	return l.setTarget(ctx, func(n int, _ func(string) (int, bool)) (window.Target, error) {
		return window.AroundIndex(n, index, extent, margin), nil
	})
}

func (l *Library) setTarget(ctx context.Context, derive targeter) error {
	var err error
	if doErr := l.opts.Coordinator.Do(ctx, func() {
		err = l.applyTarget(ctx, derive, true)
	}); doErr != nil {
		return doErr
	}
	return err
}

// refreshTarget re-applies the remembered target against the current order.
// Runs on the coordinator.
func (l *Library) refreshTarget(ctx context.Context) {
	l.mu.Lock()
	derive := l.derive
	l.mu.Unlock()
	if derive == nil {
		return
	}
	if err := l.applyTarget(ctx, derive, false); err != nil {
		logger.WarnCtx(ctx, "Buffer refresh after commit failed", logger.Library(l.name), logger.Err(err))
	}
}

// plan is the effect of a buffer update, applied after the lock is dropped.
type plan struct {
	loads      int
	unloads    int
	reassigned int
	unloaded   []catalog.Handle
}

// applyTarget runs on the coordinator.
func (l *Library) applyTarget(ctx context.Context, derive targeter, remember bool) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}

	n := len(l.sorted)
	target, err := derive(n, l.indexOfLocked)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if remember {
		l.derive = derive
	}
	l.target, l.hasTarget = target, true

	ctx, span := telemetry.StartLibrarySpan(ctx, "buffer", l.name,
		telemetry.Window(target.Start, target.End, target.Margin)...)
	defer span.End()
	ctx = l.withLogContext(ctx, "buffer", l.version)

	sets := window.Compute(n, target)
	p := l.diffLocked(sets)
	requested := len(l.requested)
	l.mu.Unlock()

	for _, h := range p.unloaded {
		l.cat.Notify(h, false)
	}

	l.opts.Metrics.SetRequested(l.name, requested)
	telemetry.SetAttributes(ctx, telemetry.Loads(p.loads), telemetry.Unloads(p.unloads))
	logger.DebugCtx(ctx, "Buffer target applied",
		logger.KeyMode, target.Mode.String(),
		logger.KeyStart, target.Start,
		logger.KeyEnd, target.End,
		logger.KeyMargin, target.Margin,
		logger.KeyCore, len(sets.Core),
		logger.KeyResident, requested,
		logger.KeyLoads, p.loads,
		logger.KeyUnloads, p.unloads,
	)
	return nil
}

func (l *Library) indexOfLocked(id string) (int, bool) {
	i, ok := l.index[id]
	return i, ok
}

// diffLocked reconciles the requested set with sets. Requires l.mu.
//
// Items leaving the window are released. New core items load at high
// priority and new margin items at default priority, in sorted order. An
// item whose tier changed is re-requested only while it is still loading;
// a resident item just moves to its new tier.
func (l *Library) diffLocked(sets window.Sets) plan {
	want := make(map[catalog.Handle]stream.Priority, len(sets.Core)+len(sets.Margin))
	order := make([]catalog.Handle, 0, len(sets.Core)+len(sets.Margin))
	for _, i := range sets.Core {
		h := l.sorted[i]
		want[h] = stream.PriorityHigh
		order = append(order, h)
	}
	for _, i := range sets.Margin {
		h := l.sorted[i]
		if _, dup := want[h]; dup {
			continue
		}
		want[h] = stream.PriorityDefault
		order = append(order, h)
	}

	var p plan
	leaving := make([]catalog.Handle, 0)
	for h := range l.requested {
		if _, keep := want[h]; !keep {
			leaving = append(leaving, h)
		}
	}
	slices.Sort(leaving)
	for _, h := range leaving {
		l.releaseLocked(h)
		p.unloads++
	}
	p.unloaded = leaving

	for _, h := range order {
		prio := want[h]
		e, ok := l.requested[h]
		switch {
		case !ok:
			l.requestLocked(h, prio)
			p.loads++
		case e.priority == prio:
			// unchanged
		case e.loaded:
			e.priority = prio
			p.reassigned++
			l.opts.Metrics.RecordReprioritize(l.name, prio.String())
		default:
			l.requestLocked(h, prio)
			p.reassigned++
			l.opts.Metrics.RecordReprioritize(l.name, prio.String())
		}
	}
	return p
}

// requestLocked issues a load for h at prio, replacing any pending request
// for the same item. Requires l.mu.
func (l *Library) requestLocked(h catalog.Handle, prio stream.Priority) {
	e := &entry{priority: prio}
	l.requested[h] = e

	req := stream.LoadRequest{
		Key:      l.loadKey(h),
		Refs:     l.cat.Item(h).Resources,
		Priority: prio,
	}
	e.handle = l.opts.Dispatcher.RequestLoad(req, func(err error) {
		l.opts.Coordinator.Post(func() { l.complete(h, e, err) })
	})
	l.opts.Metrics.RecordLoad(l.name, prio.String())
}

// releaseLocked abandons h's request. Requires l.mu.
func (l *Library) releaseLocked(h catalog.Handle) {
	e := l.requested[h]
	delete(l.requested, h)
	if e.handle != nil {
		l.opts.Dispatcher.ReleaseHandle(e.handle)
	}
	l.opts.Metrics.RecordUnload(l.name)
}

// releaseAllLocked releases every requested item in handle order and
// returns them. Requires l.mu.
func (l *Library) releaseAllLocked() []catalog.Handle {
	all := make([]catalog.Handle, 0, len(l.requested))
	for h := range l.requested {
		all = append(all, h)
	}
	slices.Sort(all)
	for _, h := range all {
		l.releaseLocked(h)
	}
	return all
}

// complete handles a dispatcher completion on the coordinator. Completions
// for a request that has since been released or replaced are ignored.
func (l *Library) complete(h catalog.Handle, e *entry, err error) {
	l.mu.Lock()
	if l.requested[h] != e {
		l.mu.Unlock()
		return
	}
	if err != nil {
		delete(l.requested, h)
		requested := len(l.requested)
		l.mu.Unlock()

		logger.Warn("Item load failed",
			logger.Library(l.name),
			logger.Item(l.cat.UniqueID(h)),
			logger.Priority(e.priority.String()),
			logger.Err(err))
		l.opts.Metrics.SetRequested(l.name, requested)
		l.cat.Notify(h, false)
		return
	}
	e.loaded = true
	l.mu.Unlock()

	l.cat.Notify(h, true)
}

func (l *Library) loadKey(h catalog.Handle) string {
	return l.keyPrefix + "/" + strconv.Itoa(int(h))
}
