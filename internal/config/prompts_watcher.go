package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay batches rapid filesystem events into one notification.
const DebounceDelay = 100 * time.Millisecond

// PromptsWatcher monitors a prompt directory and invokes a callback
// after changes settle. The REPL uses it to hot-reload the prompt
// library while a session is running.
type PromptsWatcher struct {
	watcher  *fsnotify.Watcher
	onChange func()
	logger   *slog.Logger

	debounceMu    sync.Mutex
	debounceDelay time.Duration
	debounceTimer *time.Timer

	done    chan struct{}
	stopped chan struct{}
}

// WatchPrompts starts watching dir for prompt changes. onChange runs on
// the watcher goroutine after each debounced batch of events. Call
// Close when done.
func WatchPrompts(dir string, onChange func(), logger *slog.Logger) (*PromptsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	pw := &PromptsWatcher{
		watcher:       watcher,
		onChange:      onChange,
		logger:        logger,
		debounceDelay: DebounceDelay,
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go pw.eventLoop()
	return pw, nil
}

// SetDebounceDelay adjusts the batching delay. For tests.
func (pw *PromptsWatcher) SetDebounceDelay(d time.Duration) {
	pw.debounceMu.Lock()
	defer pw.debounceMu.Unlock()
	pw.debounceDelay = d
}

// Close stops the watcher. No callbacks fire after Close returns.
func (pw *PromptsWatcher) Close() error {
	close(pw.done)
	err := pw.watcher.Close()
	<-pw.stopped

	pw.debounceMu.Lock()
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
		pw.debounceTimer = nil
	}
	pw.debounceMu.Unlock()
	return err
}

func (pw *PromptsWatcher) eventLoop() {
	defer close(pw.stopped)

	for {
		select {
		case <-pw.done:
			return

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			pw.handleEvent(event)

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.Warn("prompts watcher error", "error", err)
			}
		}
	}
}

func (pw *PromptsWatcher) handleEvent(event fsnotify.Event) {
	// Only markdown files matter; editors produce plenty of other noise.
	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	if pw.logger != nil {
		pw.logger.Debug("prompt file changed", "path", event.Name, "op", event.Op.String())
	}

	pw.debounceMu.Lock()
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, pw.fire)
	pw.debounceMu.Unlock()
}

func (pw *PromptsWatcher) fire() {
	select {
	case <-pw.done:
		return
	default:
	}
	if pw.onChange != nil {
		pw.onChange()
	}
}
