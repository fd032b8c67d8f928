// Package registry is the process-wide table of named libraries.
//
// The boundary operations (RegisterLibrary, FilterAndSort, SortedIDs and
// the SetBufferTarget* family) report failure as false and log a warning,
// so callers that only care about success need no error handling. Go
// callers that want the reason use the error-returning variants (Register,
// Library, Sort, SetBufferTarget).
//
// The registry map has its own lock and is only held for lookups and
// swaps; library work always runs outside it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/library"
)

var (
	// ErrLibraryNotFound is returned for names that are not registered.
	ErrLibraryNotFound = errors.New("registry: library not found")

	// ErrInvalidName is returned when registering under an empty name.
	ErrInvalidName = errors.New("registry: invalid library name")
)

// Registry maps library names to libraries. It is safe for concurrent use.
type Registry struct {
	opts library.Options

	mu   sync.RWMutex
	libs map[string]*library.Library
}

// New creates an empty registry. opts is shared by every library it
// creates.
func New(opts library.Options) *Registry {
	return &Registry{
		opts: opts,
		libs: make(map[string]*library.Library),
	}
}

// Register builds a library from items and installs it under name.
//
// An existing library with the same name is closed first, releasing
// everything it requested, and only then is the new one installed.
func (r *Registry) Register(ctx context.Context, name string, items []catalog.Item) (*library.Library, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	lib, err := library.New(name, items, r.opts)
	if err != nil {
		return nil, err
	}

	// A concurrent Register for the same name can install between our
	// Close and our insert, so keep evicting until the slot is free.
	replaced := false
	for {
		r.mu.Lock()
		old, exists := r.libs[name]
		if !exists {
			r.libs[name] = lib
			n := len(r.libs)
			r.mu.Unlock()
			r.opts.Metrics.SetLibraries(n)
			break
		}
		delete(r.libs, name)
		r.mu.Unlock()

		replaced = true
		if err := old.Close(ctx); err != nil {
			logger.Warn("Closing replaced library failed", logger.Library(name), logger.Err(err))
		}
	}

	logger.Info("Library registered",
		logger.Library(name),
		logger.KeyItems, lib.Catalog().Len(),
		"replaced", replaced)
	return lib, nil
}

// RegisterLibrary is Register reporting only success.
func (r *Registry) RegisterLibrary(ctx context.Context, name string, items []catalog.Item) bool {
	_, err := r.Register(ctx, name, items)
	return r.ok("register", name, err)
}

// Library returns the library registered under name.
func (r *Registry) Library(name string) (*library.Library, error) {
	r.mu.RLock()
	lib, ok := r.libs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLibraryNotFound, name)
	}
	return lib, nil
}

// RemoveLibrary unregisters and closes the library under name, releasing
// everything it requested. Removing an unknown name does nothing. The
// result reports whether a library was removed.
func (r *Registry) RemoveLibrary(ctx context.Context, name string) bool {
	r.mu.Lock()
	lib, ok := r.libs[name]
	if ok {
		delete(r.libs, name)
	}
	n := len(r.libs)
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.opts.Metrics.SetLibraries(n)

	if err := lib.Close(ctx); err != nil {
		logger.Warn("Closing removed library failed", logger.Library(name), logger.Err(err))
	}
	logger.Info("Library removed", logger.Library(name))
	return true
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.libs))
	for name := range r.libs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Len returns the number of registered libraries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.libs)
}

// Status returns a snapshot of the named library.
func (r *Registry) Status(name string) (library.Status, error) {
	lib, err := r.Library(name)
	if err != nil {
		return library.Status{}, err
	}
	return lib.Status(), nil
}

// Close removes every library.
func (r *Registry) Close(ctx context.Context) {
	for _, name := range r.Names() {
		r.RemoveLibrary(ctx, name)
	}
}

// Sort starts a filter and sort on the named library.
func (r *Registry) Sort(ctx context.Context, name string, req library.SortRequest, onComplete func(library.Result)) (*library.Task, error) {
	lib, err := r.Library(name)
	if err != nil {
		return nil, err
	}
	return lib.FilterAndSort(ctx, req, onComplete)
}

// FilterAndSort is Sort reporting only whether the request was accepted.
func (r *Registry) FilterAndSort(ctx context.Context, name string, req library.SortRequest, onComplete func(library.Result)) bool {
	_, err := r.Sort(ctx, name, req, onComplete)
	return r.ok("filter_sort", name, err)
}

// SortedIDs returns the committed order of the named library once no
// computation is in flight.
func (r *Registry) SortedIDs(ctx context.Context, name string) ([]string, bool) {
	lib, err := r.Library(name)
	if err != nil {
		return nil, r.ok("sorted_ids", name, err)
	}
	ids, err := lib.SortedIDs(ctx)
	return ids, r.ok("sorted_ids", name, err)
}

// SetBufferTarget applies t to the named library.
func (r *Registry) SetBufferTarget(ctx context.Context, name string, t Target) error {
	lib, err := r.Library(name)
	if err != nil {
		return err
	}
	return t.Apply(ctx, lib)
}

// SetBufferTargetByIndex targets one sorted position.
func (r *Registry) SetBufferTargetByIndex(ctx context.Context, name string, index, margin int) bool {
	err := r.SetBufferTarget(ctx, name, Target{Kind: TargetIndex, Index: index, Margin: margin})
	return r.ok("buffer_by_index", name, err)
}

// SetBufferTargetByUniqueID targets the first sorted item with id.
func (r *Registry) SetBufferTargetByUniqueID(ctx context.Context, name, id string, margin int) bool {
	err := r.SetBufferTarget(ctx, name, Target{Kind: TargetUniqueID, UniqueID: id, Margin: margin})
	return r.ok("buffer_by_unique_id", name, err)
}

// SetBufferTargetByPage targets one page of the sorted order.
func (r *Registry) SetBufferTargetByPage(ctx context.Context, name string, pageIndex, pageSize, bufferPages int) bool {
	err := r.SetBufferTarget(ctx, name, Target{
		Kind:        TargetPage,
		Page:        pageIndex,
		PageSize:    pageSize,
		BufferPages: bufferPages,
	})
	return r.ok("buffer_by_page", name, err)
}

// SetBufferTargetAroundIndex targets index and extent positions around it.
func (r *Registry) SetBufferTargetAroundIndex(ctx context.Context, name string, index, extent, margin int) bool {
	err := r.SetBufferTarget(ctx, name, Target{Kind: TargetAround, Index: index, Extent: extent, Margin: margin})
	return r.ok("buffer_around_index", name, err)
}

// ok logs err as a warning and reports whether it was nil.
func (r *Registry) ok(operation, name string, err error) bool {
	if err == nil {
		return true
	}
	logger.Warn("Library operation failed",
		logger.KeyOperation, operation,
		logger.Library(name),
		logger.Err(err))
	return false
}
