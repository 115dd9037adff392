package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before a rule reload fires.
const DefaultDebounceInterval = 100 * time.Millisecond

// Watcher reloads a project rule file when it changes on disk. Rapid edits
// are debounced so editors that write in multiple passes trigger one reload.
type Watcher struct {
	set      *Set
	path     string
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

// NewWatcher creates a watcher for the rule file at path, installing reloads
// into set.
func NewWatcher(set *Set, path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default().With("component", "rules-watcher")
	}
	return &Watcher{
		set:      set,
		path:     path,
		interval: DefaultDebounceInterval,
		logger:   logger,
	}
}

// Watch blocks until the context is cancelled, reloading the rule file on
// every change. A failed reload keeps the previous rules active and is
// logged, not fatal.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("rules watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory so create-and-rename saves are seen even when the
	// file is replaced rather than rewritten.
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w.logger.Info("rules watcher started",
		"path", w.path,
		"debounce_ms", w.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rules watcher stopped")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("rule file event", "path", ev.Name, "op", ev.Op.String())
			w.schedule()

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("rules watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return filepath.Clean(ev.Name) == filepath.Clean(w.path)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, w.reload)
}

func (w *Watcher) reload() {
	if err := LoadInto(w.set, w.path); err != nil {
		w.logger.Error("rule reload failed, previous rules stay active", "error", err)
		return
	}
	w.logger.Info("project rules reloaded",
		"path", w.path,
		"project_rules", w.set.ProjectCount(),
	)
}
