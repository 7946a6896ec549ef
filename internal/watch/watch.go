// Package watch debounces filesystem change notifications and triggers an
// incremental re-analysis once events settle, as an optional automatic
// trigger for the same refresh path a manual run already takes.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/diagnostics"
	"github.com/cppindex/cppindex/internal/incremental"
)

// DefaultDebounce is how long the watcher waits after the last event
// before triggering a refresh.
const DefaultDebounce = 300 * time.Millisecond

// Watcher recursively watches a project root and calls Coordinator on
// settle.
type Watcher struct {
	Coordinator *incremental.Coordinator
	Root        string
	Debounce    time.Duration
	// SkipDir reports whether a directory should not be watched (build
	// output, version control metadata, and similar noise).
	SkipDir func(path string) bool
	Logger  *diagnostics.Logger

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

func (w *Watcher) logger() *diagnostics.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return diagnostics.Global()
}

// Start begins watching w.Root and its subdirectories. Callers stop it
// with Stop.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating filesystem watcher")
	}
	w.fsw = fsw

	if err := w.addWatches(w.Root); err != nil {
		fsw.Close()
		return errors.Wrapf(err, "watching %s", w.Root)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(runCtx)
	return nil
}

// Stop tears down the filesystem watcher and waits for the event loop to
// exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.SkipDir != nil && w.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger().Warningf("watch: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	log := w.logger()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warningf("watch: filesystem watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.SkipDir == nil || !w.SkipDir(event.Name) {
				if err := w.fsw.Add(event.Name); err != nil {
					w.logger().Warningf("watch: failed to watch new directory %s: %v", event.Name, err)
				}
			}
			return
		}
	}
	w.scheduleRefresh()
}

func (w *Watcher) scheduleRefresh() {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounce, w.refresh)
}

func (w *Watcher) refresh() {
	log := w.logger()
	result, err := w.Coordinator.PerformIncrementalAnalysis(context.Background())
	if err != nil {
		log.Warningf("watch: incremental analysis failed: %v", err)
		return
	}
	log.Infof("watch: analyzed %d, removed %d, %s", result.FilesAnalyzed, result.FilesRemoved, result.Elapsed)
}
