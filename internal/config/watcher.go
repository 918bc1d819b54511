package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"atxcontrol/internal/clock"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DebounceDelay coalesces the burst of events an editor save produces
const DebounceDelay = 500 * time.Millisecond

// ReloadFunc receives every successfully parsed config
type ReloadFunc func(Config)

// Watcher reloads the config file when it changes on disk. Parse errors are
// logged and the previous config stays live.
type Watcher struct {
	path     string
	onReload ReloadFunc
	clock    clock.Clock
	logger   *zap.Logger

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	pending clock.Timer
	stopped bool
}

// NewWatcher creates a watcher for path; Start begins watching
func NewWatcher(path string, onReload ReloadFunc, clk clock.Clock, logger *zap.Logger) *Watcher {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		clock:    clk,
		logger:   logger.Named("config"),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start watches the directory holding the file, so that editors which
// replace the file by rename are still seen.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw

	w.logger.Info("Watching config file for changes", zap.String("path", w.path))
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.Error(err))

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("Config file event", zap.String("op", event.Op.String()))
	w.schedule()
}

// schedule (re)arms the debounce timer
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = w.clock.AfterFunc(DebounceDelay, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	stopped := w.stopped
	w.pending = nil
	w.mu.Unlock()
	if stopped {
		return
	}

	cfg, err := Load(w.path, w.logger)
	if err != nil {
		w.logger.Error("Failed to reload config, keeping previous", zap.Error(err))
		return
	}

	w.logger.Info("Config file changed, reloading")
	w.onReload(cfg)
}

// Stop ends watching and cancels a pending reload
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.mu.Unlock()

	close(w.stopChan)
	if w.watcher != nil {
		w.watcher.Close()
		<-w.done
	}
	w.logger.Info("Stopped config watcher")
}
