// Package watch reports changes to a single file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls back after a file was written, created or replaced.
type Watcher struct {
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{debounce: debounce, logger: logger.Named("FileWatcher")}
}

// Run watches path until ctx is cancelled. The parent directory is watched
// so that files replaced by rename are still seen. onChange runs on the
// watcher goroutine, once per burst of events.
func (w *Watcher) Run(ctx context.Context, path string, onChange func(path string)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Debug("Watching file", zap.String("path", target))

	// С go 1.23 Reset не требует вычитывать канал таймера
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event, target) {
				continue
			}
			w.logger.Debug("File event", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(w.debounce)

		case <-timer.C:
			onChange(target)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))

		case <-ctx.Done():
			w.logger.Debug("File watcher stopping", zap.String("path", target))
			return nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
