package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Benny93/tsmap/internal/logging"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives one batch of changed source paths, sorted.
type ChangeFunc func(changed []string) error

// WatchTree monitors root for changes to TS/JS sources and calls onChange
// once per batch of changes that arrive within debounce of each other.
// Directories created while watching are added. Errors from onChange are
// logged and watching continues. Blocks until ctx is cancelled.
func WatchTree(ctx context.Context, root string, debounce time.Duration, onChange ChangeFunc) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	matcher, err := loadIgnoreMatcher(root)
	if err != nil {
		return fmt.Errorf("loading ignore rules: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	addDirs := func(dir string) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && shouldSkipDir(d.Name(), path, root, matcher) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
	}
	if err := addDirs(root); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(debounce)
	batchTimer.Stop()

	logging.Info("Watching %s for changes (Ctrl+C to stop)", root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if isDir(event.Name) {
					if !shouldSkipDir(filepath.Base(event.Name), event.Name, root, matcher) {
						if err := addDirs(event.Name); err != nil {
							logging.Warn("watching %s: %v", event.Name, err)
						}
					}
					continue
				}
			}
			if event.Op == fsnotify.Chmod || !isWatchedSource(event.Name, root, matcher) {
				continue
			}
			changed[event.Name] = true
			batchTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("watch error: %v", err)

		case <-batchTimer.C:
			if len(changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(changed))
			for p := range changed {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			changed = make(map[string]bool)

			logging.Debug("%d changed file(s)", len(batch))
			if err := onChange(batch); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Error("processing changes: %v", err)
			}
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
