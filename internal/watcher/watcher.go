// Package watcher reloads the SDK configuration when its file changes.
package watcher

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called once per settled change.
type ReloadFunc func() error

// Watcher watches one file by watching its directory, so that editors that
// replace the file on save are handled too.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	reload    ReloadFunc
	logger    *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for path. A non-positive debounce uses
// DefaultDebounce.
func New(log *slog.Logger, path string, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	if reload == nil {
		return nil, errors.New("reload func is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		path:      absPath,
		debounce:  debounce,
		reload:    reload,
		logger:    log.With(slog.String("component", "config_watcher"), slog.String("path", absPath)),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.eventLoop()
	w.logger.Info("watching config file")
	return nil
}

// Stop ends watching. A pending reload is dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	if err := w.reload(); err != nil {
		// The previous configuration stays in effect.
		w.logger.Error("config reload failed", slog.Any("error", err))
		return
	}
	w.logger.Info("config reloaded")
}
