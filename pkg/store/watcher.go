package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called with the key of a blob rewritten or removed on disk.
type ChangeFunc func(key string)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// DebounceMs groups rapid events for one key. Defaults to 200.
	DebounceMs int
	// Keys restricts notifications; empty means every key.
	Keys []string
}

// Watcher notifies about blobs changed by other processes sharing the
// store directory. Writes from this process are reported too; callers
// compare contents if they need to tell them apart.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *FileStore
	onChange ChangeFunc
	logger  *slog.Logger
	options WatchOptions
	keys    map[string]bool

	// Debouncing
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// Lifecycle
	stopChan chan struct{}
	done     chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// NewWatcher creates a watcher over the store's directory. A nil logger
// uses slog.Default().
func NewWatcher(store *FileStore, onChange ChangeFunc, options WatchOptions, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	keys := make(map[string]bool, len(options.Keys))
	for _, k := range options.Keys {
		keys[k] = true
	}
	return &Watcher{
		watcher:        fw,
		store:          store,
		onChange:       onChange,
		logger:         logger,
		options:        options,
		keys:           keys,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.store.Dir(), err)
	}
	w.started = true
	w.logger.Info("store watcher started", "dir", w.store.Dir())
	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	w.logger.Info("store watcher stopped")
	return err
}

func (w *Watcher) eventLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("store watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	key, ok := w.store.KeyForPath(event.Name)
	if !ok {
		return
	}
	if len(w.keys) > 0 && !w.keys[key] {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("store event", "op", event.Op.String(), "key", key)
	w.debounce(key)
}

// debounce schedules a notification after the debounce delay. Later events
// for the same key within the window replace the pending one.
func (w *Watcher) debounce(key string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[key]; exists {
		timer.Stop()
	}
	w.debounceTimers[key] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.debounceMu.Lock()
			delete(w.debounceTimers, key)
			w.debounceMu.Unlock()

			select {
			case <-w.stopChan:
				return
			default:
			}
			w.store.Invalidate(key)
			w.onChange(key)
		},
	)
}

// Pending returns the number of debounced notifications not yet delivered.
func (w *Watcher) Pending() int {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	return len(w.debounceTimers)
}
