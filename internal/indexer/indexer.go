package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/memory"
	"photo-library/internal/metrics"
	"photo-library/internal/workers"
)

// defaultWorkers caps the per-run worker pool when nothing overrides it.
// Hashing and EXIF reads hit the write-serialized store, so more workers
// mostly buy lock contention.
const defaultWorkers = 4

// Indexer discovers image files on disk and records them in the library
// database. Each run scans, extracts metadata, hashes content and inserts
// rows through a worker pool that lives only for that call.
type Indexer struct {
	db         *database.Database
	scanner    *media.Scanner
	extractor  *media.Extractor
	monitor    *memory.Monitor
	numWorkers int
}

// Options configures an Indexer.
type Options struct {
	// Workers is the pool size per run. Zero picks a CPU-derived default
	// capped at 4, overridable with INDEX_WORKERS.
	Workers int

	// Monitor, when non-nil, pauses workers between files while memory
	// usage sits above the critical watermark.
	Monitor *memory.Monitor
}

// IndexResult aggregates one IndexFolder run.
type IndexResult struct {
	FoldersAdded  int           `json:"foldersAdded"`
	PhotosAdded   int           `json:"photosAdded"`
	PhotosSkipped int           `json:"photosSkipped"`
	PhotosFailed  int           `json:"photosFailed"`
	Elapsed       time.Duration `json:"elapsed"`
}

// RefreshResult aggregates one RefreshIndex run.
type RefreshResult struct {
	FoldersUpdated int           `json:"foldersUpdated"`
	PhotosAdded    int           `json:"photosAdded"`
	Elapsed        time.Duration `json:"elapsed"`
}

// New creates an Indexer backed by db.
func New(db *database.Database, opts Options) *Indexer {
	n := opts.Workers
	if n <= 0 {
		n = workers.ForMixed(defaultWorkers)
	}

	return &Indexer{
		db:         db,
		scanner:    media.NewScanner(),
		extractor:  media.NewExtractor(),
		monitor:    opts.Monitor,
		numWorkers: n,
	}
}

// IndexFolder indexes every image under root. With recursive false only
// root's direct children are considered. The monitored flag is recorded on
// the root's folder row and marks it for RefreshIndex and the watcher.
//
// A root that cannot be statted aborts the whole run with a zero-value
// result and a nil error; nothing is registered. Per-file failures after
// that point are isolated: they reduce PhotosAdded and never abort
// sibling work.
func (idx *Indexer) IndexFolder(ctx context.Context, root string, recursive, monitored bool) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	metrics.IndexerRunsTotal.WithLabelValues("index").Inc()
	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve index root %s: %w", root, err)
	}

	// All-or-nothing tier: a root we cannot stat means no folder record,
	// no partial progress.
	info, err := filesystem.StatWithRetry(absRoot, filesystem.DefaultRetryConfig())
	if err != nil || !info.IsDir() {
		logging.Error("Cannot index %s: not a readable directory", absRoot)
		result.Elapsed = time.Since(start)
		return result, nil
	}

	logging.Info("Indexing %s (recursive=%v, monitored=%v, workers=%d)",
		absRoot, recursive, monitored, idx.numWorkers)

	scanned, err := idx.scanner.Scan(absRoot, recursive)
	if err != nil {
		logging.Error("Scan of %s failed: %v", absRoot, err)
		result.Elapsed = time.Since(start)
		return result, nil
	}

	rootFolder, created, err := idx.db.AddFolder(ctx, absRoot, filepath.Base(absRoot), nil, monitored)
	if err != nil {
		return nil, fmt.Errorf("failed to register folder %s: %w", absRoot, err)
	}
	// Registration counts whether the row is new or reused; the run
	// "added" the root to its scope either way.
	result.FoldersAdded++
	if !created && rootFolder.IsMonitored != monitored {
		if err := idx.db.SetFolderMonitored(ctx, rootFolder.ID, monitored); err != nil {
			logging.Warn("Failed to update monitor flag for %s: %v", absRoot, err)
		}
	}

	jobs := idx.collectJobs(ctx, scanned, rootFolder, result)

	counts := idx.runPool(ctx, jobs)
	result.PhotosAdded = int(counts.added.Load())
	result.PhotosSkipped = int(counts.skipped.Load())
	result.PhotosFailed = int(counts.failed.Load())
	result.Elapsed = time.Since(start)

	idx.recordRun(result.PhotosAdded, result.PhotosSkipped, result.PhotosFailed, len(scanned), result.Elapsed)

	logging.Info("Indexed %s in %v: %d folders, %d photos added, %d skipped, %d failed",
		absRoot, result.Elapsed.Round(time.Millisecond),
		result.FoldersAdded, result.PhotosAdded, result.PhotosSkipped, result.PhotosFailed)

	return result, nil
}

// collectJobs resolves a folder id for every scanned directory and flattens
// the scan map into pool jobs. Directories are visited in sorted order so
// folder rows are created deterministically.
func (idx *Indexer) collectJobs(ctx context.Context, scanned map[string][]string, rootFolder *database.Folder, result *IndexResult) []fileJob {
	dirs := make([]string, 0, len(scanned))
	for dir := range scanned {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var jobs []fileJob
	for _, dir := range dirs {
		folderID := idx.resolveFolder(ctx, dir, rootFolder, result)
		for _, path := range scanned[dir] {
			jobs = append(jobs, fileJob{path: path, folderID: folderID})
		}
	}
	return jobs
}

// resolveFolder finds or creates the folder row for dir. Any failure falls
// back to the root folder id so the directory's files still get indexed.
func (idx *Indexer) resolveFolder(ctx context.Context, dir string, rootFolder *database.Folder, result *IndexResult) int64 {
	if dir == rootFolder.Path {
		return rootFolder.ID
	}

	folder, err := idx.db.GetFolderByPath(ctx, dir)
	if err != nil {
		logging.Warn("Failed to look up folder %s: %v", dir, err)
		return rootFolder.ID
	}
	if folder != nil {
		return folder.ID
	}

	folder, created, err := idx.db.AddFolder(ctx, dir, filepath.Base(dir), &rootFolder.ID, false)
	if err != nil {
		logging.Warn("Failed to create folder record for %s, using root: %v", dir, err)
		return rootFolder.ID
	}
	if created {
		result.FoldersAdded++
	}
	return folder.ID
}

// RefreshIndex rescans every monitored folder, non-recursively, and indexes
// only paths the store does not already know. Folders whose path vanished
// are skipped without counting. Rows for vanished files are never removed.
func (idx *Indexer) RefreshIndex(ctx context.Context) (*RefreshResult, error) {
	start := time.Now()
	result := &RefreshResult{}

	metrics.IndexerRunsTotal.WithLabelValues("refresh").Inc()
	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	folders, err := idx.db.GetMonitoredFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored folders: %w", err)
	}

	logging.Info("Refreshing %d monitored folders", len(folders))

	totalAdded := 0
	totalSkipped := 0
	totalFailed := 0

	for i := range folders {
		folder := &folders[i]

		if _, err := filesystem.StatWithRetry(folder.Path, filesystem.DefaultRetryConfig()); err != nil {
			logging.Warn("Monitored folder no longer exists, skipping: %s", folder.Path)
			continue
		}

		if err := idx.db.TouchFolderScanned(ctx, folder.ID); err != nil {
			logging.Warn("Failed to stamp scan time for %s: %v", folder.Path, err)
			continue
		}
		result.FoldersUpdated++

		added, skipped, failed := idx.refreshFolder(ctx, folder)
		totalAdded += added
		totalSkipped += skipped
		totalFailed += failed
	}

	result.PhotosAdded = totalAdded
	result.Elapsed = time.Since(start)

	idx.recordRun(totalAdded, totalSkipped, totalFailed, result.FoldersUpdated, result.Elapsed)

	logging.Info("Refresh complete in %v: %d folders updated, %d new photos",
		result.Elapsed.Round(time.Millisecond), result.FoldersUpdated, result.PhotosAdded)

	return result, nil
}

// refreshFolder diffs one folder's directory listing against its known
// file paths and indexes the delta.
func (idx *Indexer) refreshFolder(ctx context.Context, folder *database.Folder) (added, skipped, failed int) {
	// Trashed rows still count as known: their paths were indexed once
	// and must not come back on refresh.
	existing, err := idx.db.GetPhotosByFolder(ctx, folder.ID)
	if err != nil {
		logging.Warn("Failed to load photos for %s: %v", folder.Path, err)
		return 0, 0, 0
	}
	known := make(map[string]struct{}, len(existing))
	for i := range existing {
		known[existing[i].FilePath] = struct{}{}
	}

	scanned, err := idx.scanner.Scan(folder.Path, false)
	if err != nil {
		logging.Warn("Failed to scan %s: %v", folder.Path, err)
		return 0, 0, 0
	}

	var jobs []fileJob
	for _, paths := range scanned {
		for _, path := range paths {
			if _, ok := known[path]; ok {
				continue
			}
			jobs = append(jobs, fileJob{path: path, folderID: folder.ID})
		}
	}
	if len(jobs) == 0 {
		return 0, 0, 0
	}

	counts := idx.runPool(ctx, jobs)
	return int(counts.added.Load()), int(counts.skipped.Load()), int(counts.failed.Load())
}

// recordRun updates the shared indexer metrics after a run.
func (idx *Indexer) recordRun(added, skipped, failed, folders int, elapsed time.Duration) {
	metrics.IndexerPhotosAdded.Add(float64(added))
	metrics.IndexerPhotosSkipped.Add(float64(skipped))
	metrics.IndexerPhotosFailed.Add(float64(failed))
	metrics.IndexerFoldersProcessed.Add(float64(folders))
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(elapsed.Seconds())
}
