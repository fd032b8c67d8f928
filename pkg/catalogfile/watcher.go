package catalogfile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/pkg/catalog"
)

// RegisterFunc installs items under a library name.
type RegisterFunc func(ctx context.Context, name string, items []catalog.Item) error

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher re-registers libraries when their catalog files change.
//
// Parent directories are watched instead of the files themselves so
// atomic saves (write to temp, rename over) are seen. A file that fails to
// parse leaves the registered library untouched.
type Watcher struct {
	register RegisterFunc
	debounce time.Duration

	mu      sync.Mutex
	files   map[string]string // cleaned path -> library name
	timers  map[string]*time.Timer
	fsw     *fsnotify.Watcher
	dirs    map[string]int
	stopped bool

	done chan struct{}
}

// NewWatcher creates a watcher calling register on every change. A zero
// debounce uses DefaultDebounce.
func NewWatcher(register RegisterFunc, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalogfile: create watcher: %w", err)
	}
	return &Watcher{
		register: register,
		debounce: debounce,
		files:    make(map[string]string),
		timers:   make(map[string]*time.Timer),
		fsw:      fsw,
		dirs:     make(map[string]int),
		done:     make(chan struct{}),
	}, nil
}

// Add starts watching path for the library name.
func (w *Watcher) Add(name, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("catalogfile: resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("catalogfile: watcher stopped")
	}
	if _, ok := w.files[abs]; ok {
		w.files[abs] = name
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("catalogfile: watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = name
	return nil
}

// Run processes file events until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Catalog watcher error", logger.Err(err))
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ctx, filepath.Clean(ev.Name))
		}
	}
}

// Done is closed once Run has returned.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// schedule arms or re-arms the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	name, ok := w.files[path]
	if !ok || w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			w.reload(context.WithoutCancel(ctx), name, path)
		}
	})
}

func (w *Watcher) reload(ctx context.Context, name, path string) {
	file, err := Load(path)
	if err != nil {
		logger.Warn("Catalog reload skipped", logger.Library(name), logger.Source(path), logger.Err(err))
		return
	}
	if err := w.register(ctx, name, file.CatalogItems()); err != nil {
		logger.Warn("Catalog reload failed", logger.Library(name), logger.Source(path), logger.Err(err))
		return
	}
	logger.Info("Catalog reloaded", logger.Library(name), logger.Source(path), logger.KeyItems, len(file.Items))
}

// Stop stops watching. Pending reloads are cancelled. It is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if err := w.fsw.Close(); err != nil {
		logger.Debug("Catalog watcher close", logger.Err(err))
	}
}
