package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.ChangeWatcher = (*Watcher)(nil)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports content changes of one file.
// The parent directory is watched so editors that replace the file on save
// are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return &Watcher{path: abs, debounce: debounce}
}

// Watch blocks until ctx is done. onChange runs on the watch goroutine
// whenever the file settles with content different from the last seen content.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	// The state at start is the baseline and never fires.
	last, _ := fileFingerprint(w.path)
	logger.Info("Watching %s for changes", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Debug("File event %s on %s", event.Op, event.Name)
			timer.Reset(w.debounce)

		case <-timer.C:
			current, err := fileFingerprint(w.path)
			if err != nil {
				logger.Warn("Watched file %s unreadable, waiting for it to return: %v", w.path, err)
				continue
			}
			if current == last {
				logger.Debug("File %s touched without content change", w.path)
				continue
			}
			last = current
			onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error: %v", err)
		}
	}
}
