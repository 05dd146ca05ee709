package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/vanderheijden86/execgraph/pkg/datasource/memory"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

// WatcherState represents the current state of the dataset watcher.
type WatcherState int

const (
	// WatcherIdle means the watcher is waiting for file changes.
	WatcherIdle WatcherState = iota
	// WatcherProcessing means a reload is in progress.
	WatcherProcessing
	// WatcherStopped means the watcher has been stopped.
	WatcherStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string // "read", "parse", "apply"
	Cause   error
	Time    time.Time
	Retries int
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// DatasetReloadedMsg is sent to the UI after a changed dataset was applied.
type DatasetReloadedMsg struct {
	Path  string
	Nodes int
	Edges int
	Hash  uint64
}

// DatasetErrorMsg is sent when a reload fails. The previous data stays live.
type DatasetErrorMsg struct {
	Err         error
	Recoverable bool
}

// WatcherConfig configures the DatasetWatcher.
type WatcherConfig struct {
	Path          string
	DebounceDelay time.Duration
	// Apply installs freshly parsed data, typically memory.Store.Replace
	// followed by a cache invalidation.
	Apply func(ctx context.Context, data model.GraphData) error
	// Notify delivers messages to the UI, typically tea.Program.Send.
	Notify func(tea.Msg)
	Logger *zerolog.Logger
}

// DatasetWatcher reloads a JSON dataset when it changes on disk. Rapid
// writes are coalesced and unchanged content is skipped by hash.
type DatasetWatcher struct {
	path          string
	debounceDelay time.Duration
	apply         func(context.Context, model.GraphData) error
	notify        func(tea.Msg)
	log           zerolog.Logger

	mu         sync.RWMutex
	state      WatcherState
	dirty      bool
	started    bool
	lastHash   uint64
	lastError  *WorkerError
	errorCount int

	fsw *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDatasetWatcher creates a watcher. An empty path yields a watcher that
// never fires.
func NewDatasetWatcher(cfg WatcherConfig) (*DatasetWatcher, error) {
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &DatasetWatcher{
		debounceDelay: cfg.DebounceDelay,
		apply:         cfg.Apply,
		notify:        cfg.Notify,
		log:           logger.With().Str("component", "watcher").Logger(),
		state:         WatcherIdle,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	if cfg.Path == "" {
		return w, nil
	}

	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		cancel()
		return nil, err
	}
	w.path = abs
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.fsw = fsw
	return w, nil
}

// Start begins watching. Start is idempotent.
func (w *DatasetWatcher) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.fsw == nil {
		close(w.done)
		return nil
	}
	// Editors often replace files by rename, so the directory is watched.
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		close(w.done)
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	if b, err := os.ReadFile(w.path); err == nil {
		w.mu.Lock()
		w.lastHash = xxhash.Sum64(b)
		w.mu.Unlock()
	}
	go w.loop()
	return nil
}

// Stop halts the watcher. Stop is idempotent.
func (w *DatasetWatcher) Stop() {
	w.mu.Lock()
	if w.state == WatcherStopped {
		w.mu.Unlock()
		return
	}
	w.state = WatcherStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
	}
	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh reloads immediately, ignoring the debounce.
func (w *DatasetWatcher) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WatcherStopped {
		w.mu.Unlock()
		return
	}
	if w.state == WatcherProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	go w.process()
}

// State returns the current watcher state.
func (w *DatasetWatcher) State() WatcherState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error (nil if the last reload succeeded).
func (w *DatasetWatcher) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// LastHash returns the content hash of the last applied dataset.
func (w *DatasetWatcher) LastHash() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

func (w *DatasetWatcher) loop() {
	defer close(w.done)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounceDelay)
			} else {
				timer.Reset(w.debounceDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.process()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *DatasetWatcher) process() {
	w.mu.Lock()
	if w.state != WatcherIdle {
		if w.state == WatcherProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WatcherProcessing
	w.dirty = false
	w.mu.Unlock()

	msg := w.reload()

	w.mu.Lock()
	if w.state == WatcherStopped {
		w.mu.Unlock()
		return
	}
	wasDirty := w.dirty
	w.state = WatcherIdle
	w.mu.Unlock()

	if msg != nil && w.notify != nil {
		w.notify(msg)
	}
	if wasDirty {
		go w.process()
	}
}

// reload reads, parses and applies the dataset. It returns nil when the
// content is unchanged.
func (w *DatasetWatcher) reload() tea.Msg {
	if w.path == "" {
		return nil
	}
	start := time.Now()

	var raw []byte
	if werr := w.safeCompute("read", func() error {
		var err error
		raw, err = os.ReadFile(w.path)
		return err
	}); werr != nil {
		return w.fail(werr)
	}

	hash := xxhash.Sum64(raw)
	if hash == w.LastHash() {
		w.recordError(nil)
		w.log.Debug().Str("path", w.path).Msg("dataset unchanged, skipping reload")
		return nil
	}

	var data model.GraphData
	if werr := w.safeCompute("parse", func() error {
		var err error
		data, err = memory.Decode(raw)
		return err
	}); werr != nil {
		return w.fail(werr)
	}

	if w.apply != nil {
		if werr := w.safeCompute("apply", func() error {
			return w.apply(w.ctx, data)
		}); werr != nil {
			return w.fail(werr)
		}
	}

	w.recordError(nil)
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	w.log.Info().
		Str("path", w.path).
		Int("nodes", len(data.Nodes)).
		Int("edges", len(data.Edges)).
		Dur("duration", time.Since(start)).
		Msg("dataset reloaded")
	return DatasetReloadedMsg{Path: w.path, Nodes: len(data.Nodes), Edges: len(data.Edges), Hash: hash}
}

func (w *DatasetWatcher) fail(werr *WorkerError) tea.Msg {
	w.recordError(werr)
	w.log.Error().Err(werr.Cause).Str("phase", werr.Phase).Int("retries", werr.Retries).Msg("dataset reload failed")
	return DatasetErrorMsg{Err: *werr, Recoverable: true}
}

// safeCompute executes fn and recovers from any panics.
func (w *DatasetWatcher) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{Phase: phase, Cause: err, Time: time.Now()}
		}
	}()
	return result
}

func (w *DatasetWatcher) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}
