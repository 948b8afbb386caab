// Package watch re-runs a callback when watched files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a set of files for changes.
type Watcher struct {
	files    map[string]bool
	callback func(path string) error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger for callback and watcher errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher for files. The directories holding them are watched
// so that editors which replace files on save are still observed.
func New(files []string, callback func(path string) error, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		callback: callback,
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Run calls the callback once per changed file after writes settle. It
// blocks until ctx is done and then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var debounceCh <-chan time.Time
	pending := make(map[string]bool)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] {
				continue
			}
			pending[path] = true
			timer.Reset(w.debounce)
			debounceCh = timer.C

		case <-debounceCh:
			debounceCh = nil
			for path := range pending {
				if err := w.callback(path); err != nil {
					w.logger.Error("watch callback failed", "file", path, "error", err)
				}
			}
			clear(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
