package fs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/log"
)

// DefaultDebounce is how long the watcher waits after the last write
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// DescriptionWatcher reloads a description file whenever it is rewritten.
type DescriptionWatcher struct {
	path     string
	debounce time.Duration
	logger   log.Logger
}

// NewDescriptionWatcher creates a watcher for path. A non-positive
// debounce uses DefaultDebounce.
func NewDescriptionWatcher(path string, debounce time.Duration, logger log.Logger) *DescriptionWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &DescriptionWatcher{path: path, debounce: debounce, logger: logger}
}

// Watch blocks until ctx ends and calls handle with every successfully
// reloaded description. Writes closer together than the debounce delay
// produce one reload. Documents that fail to load are logged and skipped.
// handle is never called concurrently.
func (w *DescriptionWatcher) Watch(ctx context.Context, handle func(domain.Description)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching description file", log.String("path", w.path))

	name := filepath.Base(w.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			desc, err := LoadDescription(w.path)
			if err != nil {
				w.logger.Warn("ignoring description change", log.String("path", w.path), log.Err(err))
				continue
			}
			w.logger.Info("description reloaded",
				log.String("path", w.path),
				log.Int("commands", len(desc.Commands)),
			)
			handle(desc)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.logger.Warn("file watcher error", log.Err(err))
		}
	}
}
