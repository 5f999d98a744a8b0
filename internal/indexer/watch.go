package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches bursts of filesystem events (a camera import
// drops hundreds of files in seconds) into a single refresh.
const defaultDebounce = 2 * time.Second

// Watcher triggers RefreshIndex when files change inside monitored
// folders. Only the monitored directories themselves are watched; refresh
// diffs them non-recursively, so events in unmonitored subtrees would be
// noise.
type Watcher struct {
	idx      *Indexer
	debounce time.Duration
}

// NewWatcher creates a Watcher around idx. A non-positive debounce falls
// back to the default.
func NewWatcher(idx *Indexer, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{idx: idx, debounce: debounce}
}

// Run refreshes once to catch changes since the last run, then blocks
// watching every monitored folder until ctx is cancelled. Events are
// debounced: a refresh fires only after the filesystem has been quiet for
// the debounce window.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := w.idx.RefreshIndex(ctx); err != nil {
		logging.Error("Initial refresh failed: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	watched, err := w.addMonitoredFolders(ctx, watcher)
	if err != nil {
		return err
	}
	if watched == 0 {
		return fmt.Errorf("no monitored folders to watch")
	}

	logging.Info("Watching %d monitored folders (debounce %v)", watched, w.debounce)
	metrics.WatcherWatchedFolders.Set(float64(watched))

	return w.processEvents(ctx, watcher)
}

// addMonitoredFolders registers every live monitored folder with the
// watcher and returns how many it added.
func (w *Watcher) addMonitoredFolders(ctx context.Context, watcher *fsnotify.Watcher) (int, error) {
	folders, err := w.idx.db.GetMonitoredFolders(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list monitored folders: %w", err)
	}

	watched := 0
	for i := range folders {
		if err := watcher.Add(folders[i].Path); err != nil {
			logging.Warn("failed to watch %s: %v", folders[i].Path, err)
			metrics.WatcherErrors.Inc()
			continue
		}
		watched++
	}
	return watched, nil
}

// processEvents handles watcher events until ctx is cancelled.
func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher) error {
	// The timer starts stopped; it only runs while a refresh is pending.
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()
			logging.Debug("Watcher event: %s %s", eventType(event.Op), event.Name)

			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()

		case <-debounce.C:
			if _, err := w.idx.RefreshIndex(ctx); err != nil {
				logging.Error("Refresh after change failed: %v", err)
			}
		}
	}
}

// relevantEvent filters out hidden files and event types refresh cannot
// act on. Removes and renames are ignored: refresh never tombstones.
func relevantEvent(event fsnotify.Event) bool {
	if strings.Contains(event.Name, "/.") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write) != 0
}

// eventType returns the metric label for an fsnotify operation.
func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
