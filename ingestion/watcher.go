package ingestion

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a Watcher waits for events to settle before
// ingesting a batch.
const DefaultDebounce = 500 * time.Millisecond

// BatchHandler receives the result of every batch a Watcher ingests.
type BatchHandler func(outcome *Outcome, err error)

// Watcher keeps a documents directory indexed. Created and modified files
// with a supported extension are ingested in batches; removed files have
// their chunks deleted.
type Watcher struct {
	pipeline  *Pipeline
	dir       string
	debounce  time.Duration
	onBatch   BatchHandler
	logger    *slog.Logger
	ready     chan struct{}
	readyOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher) error

// WithDebounce sets the quiet period that ends a batch.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) error {
		if d > 0 {
			w.debounce = d
		}
		return nil
	}
}

// WithBatchHandler sets a callback invoked after each ingested batch.
func WithBatchHandler(fn BatchHandler) WatcherOption {
	return func(w *Watcher) error {
		w.onBatch = fn
		return nil
	}
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(pipeline *Pipeline, dir string, opts ...WatcherOption) (*Watcher, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	w := &Watcher{
		pipeline: pipeline,
		dir:      dir,
		debounce: DefaultDebounce,
		onBatch:  func(*Outcome, error) {},
		logger:   pipeline.logger.With("watch", dir),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Ready is closed once Run has started watching the directory tree.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches the directory until ctx is cancelled. It returns nil on
// cancellation and an error if the watch could not be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	changed := map[string]struct{}{}
	removed := map[string]struct{}{}

	if err := w.addTree(fw, w.dir, nil); err != nil {
		return err
	}
	w.readyOnce.Do(func() { close(w.ready) })
	w.logger.Info("watching for document changes", "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(fw, event, changed, removed) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)

		case <-timer.C:
			w.flush(ctx, changed, removed)
			clear(changed)
			clear(removed)
		}
	}
}

// handle records one event and reports whether anything was queued.
func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event, changed, removed map[string]struct{}) bool {
	path := event.Name
	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.IsDir() {
			// Files may land in a new directory before its watch is added.
			var found []string
			if err := w.addTree(fw, path, &found); err != nil {
				w.logger.Error("error watching directory", "path", path, "err", err)
			}
			for _, f := range found {
				changed[f] = struct{}{}
				delete(removed, f)
			}
			return len(found) > 0
		}
		if !info.Mode().IsRegular() || !w.wanted(path) {
			return false
		}
		changed[path] = struct{}{}
		delete(removed, path)
		return true

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if !w.wanted(path) {
			return false
		}
		removed[path] = struct{}{}
		delete(changed, path)
		return true
	}
	return false
}

func (w *Watcher) wanted(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".") && w.pipeline.loader.Supports(path)
}

// addTree watches root and every directory below it. Supported files found
// on the way are appended to found when it is not nil.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string, found *[]string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return fw.Add(path)
		}
		if found != nil && d.Type().IsRegular() && w.wanted(path) {
			*found = append(*found, path)
		}
		return nil
	})
}

func (w *Watcher) flush(ctx context.Context, changed, removed map[string]struct{}) {
	if len(removed) > 0 {
		if _, err := w.pipeline.Remove(ctx, slices.Sorted(maps.Keys(removed))); err != nil {
			w.logger.Error("error removing documents", "err", err)
		}
	}
	if len(changed) == 0 {
		return
	}

	paths := slices.Sorted(maps.Keys(changed))
	w.logger.Debug("ingesting batch", "documents", len(paths))
	outcome, err := w.pipeline.Ingest(ctx, paths)
	if err != nil {
		w.logger.Error("batch ingest failed", "err", err)
	} else {
		w.logger.Info("batch ingested", "summary", outcome.Summary())
	}
	w.onBatch(outcome, err)
}
