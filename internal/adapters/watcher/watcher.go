package watcher

import (
	"context"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultDebounceWindow coalesces the several events editors emit per save.
const DefaultDebounceWindow = 100 * time.Millisecond

// ConfigWatcher watches a single file through its parent directory, so that
// editors replacing the file by rename are noticed too.
type ConfigWatcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	window    time.Duration
	debouncer *Debouncer
	changes   chan string
	done      chan struct{}
	stopOnce  sync.Once
}

// NewConfigWatcher creates a watcher. Nothing is watched until Start.
func NewConfigWatcher(logger ports.Logger, window time.Duration) (*ConfigWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	return &ConfigWatcher{
		fsWatcher: fsw,
		logger:    logger,
		window:    window,
		changes:   make(chan string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching path.
func (w *ConfigWatcher) Start(ctx context.Context, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve config path"), "path", path)
	}

	w.debouncer = NewDebouncer(w.window, func([]string) {
		select {
		case w.changes <- path:
		default:
		}
	})

	if err := w.fsWatcher.Add(filepath.Dir(path)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch config directory"), "path", path)
	}

	go w.process(ctx, path)
	return nil
}

// Changes yields the config path after each debounced change, until the
// watcher stops.
func (w *ConfigWatcher) Changes() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			select {
			case <-w.done:
				return
			case p := <-w.changes:
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Stop stops watching and ends Changes.
func (w *ConfigWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.debouncer != nil {
			w.debouncer.Stop()
		}
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *ConfigWatcher) process(ctx context.Context, path string) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debouncer.Add(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err.Error())
		}
	}
}
