package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Watcher feeds filesystem change events into the index so it stays
// current between full rebuilds.
type Watcher struct {
	index   *Index
	watcher *fsnotify.Watcher
}

// NewWatcher wraps an fsnotify watcher over every directory under the
// given roots. fsnotify watches are not recursive, so each subdirectory is
// registered individually.
func NewWatcher(index *Index, roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{index: index, watcher: fsw}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", p, err)
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return errors.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

// Run pumps events until ctx is cancelled. Creates, writes and renames all
// funnel into UpdatePath, which decides between re-index and removal by
// statting the path.
func (w *Watcher) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Chmod == event.Op {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// a new directory needs its own watch
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						logger.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
					}
					continue
				}
			}
			if err := w.index.UpdatePath(ctx, event.Name); err != nil {
				logger.Warn().Err(err).Str("path", event.Name).Msg("failed to update index for changed file")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}
