package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called with the path of a watched file that changed.
type ChangeHandler func(path string)

// Watcher watches a set of files and notifies handlers when they change.
// The parent directories are watched so editors that save by rename are seen.
// Changes are debounced per file (300ms).
type Watcher struct {
	files    map[string]bool
	watcher  *fsnotify.Watcher
	handlers []ChangeHandler
	debounce time.Duration
	stopChan chan struct{}
	mu       sync.Mutex
	timers   map[string]*time.Timer
}

// NewWatcher creates a watcher for the given files.
func NewWatcher(paths ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		files[filepath.Clean(p)] = true
	}

	return &Watcher{
		files:    files,
		watcher:  w,
		debounce: 300 * time.Millisecond,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// SetDebounce overrides the debounce interval. Call before Start.
func (fw *Watcher) SetDebounce(d time.Duration) {
	fw.debounce = d
}

// OnChange registers a handler to be called when a watched file changes.
func (fw *Watcher) OnChange(handler ChangeHandler) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// OnConfigChange registers a handler that receives the reloaded config.
// Reload failures are logged and the handler is skipped.
func (fw *Watcher) OnConfigChange(handler func(cfg *Config)) {
	fw.OnChange(func(path string) {
		slog.Info("config file changed, reloading", "path", path)
		cfg, err := Load(path)
		if err != nil {
			slog.Error("config reload failed", "error", err)
			return
		}
		handler(cfg)
		slog.Info("config reloaded successfully")
	})
}

// Start begins watching.
func (fw *Watcher) Start() error {
	dirs := map[string]bool{}
	for f := range fw.files {
		dirs[filepath.Dir(f)] = true
	}
	for d := range dirs {
		if err := fw.watcher.Add(d); err != nil {
			return err
		}
	}

	fw.stopChan = make(chan struct{})
	go fw.watchLoop()

	slog.Info("file watcher started", "files", len(fw.files))
	return nil
}

// Stop halts the watcher and cancels pending notifications.
func (fw *Watcher) Stop() {
	if fw.stopChan != nil {
		close(fw.stopChan)
	}
	fw.watcher.Close()

	fw.mu.Lock()
	for _, t := range fw.timers {
		t.Stop()
	}
	fw.mu.Unlock()
	slog.Info("file watcher stopped")
}

func (fw *Watcher) watchLoop() {
	for {
		select {
		case <-fw.stopChan:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(event.Name)
			if !fw.files[path] {
				continue
			}
			fw.schedule(path)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("file watcher error", "error", err)
		}
	}
}

// schedule resets the debounce timer of path.
func (fw *Watcher) schedule(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if t, ok := fw.timers[path]; ok {
		t.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.fire(path)
	})
}

func (fw *Watcher) fire(path string) {
	fw.mu.Lock()
	delete(fw.timers, path)
	handlers := make([]ChangeHandler, len(fw.handlers))
	copy(handlers, fw.handlers)
	fw.mu.Unlock()

	for _, h := range handlers {
		h(path)
	}
}
