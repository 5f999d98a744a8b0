package metrics

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"photo-library/internal/logging"
)

// StatsProvider supplies current library statistics for gauge updates.
type StatsProvider interface {
	GetStats() Stats
}

// DBMetricsUpdater lets the database layer refresh its own gauges
// (open connections and similar) on the collector's schedule.
type DBMetricsUpdater interface {
	UpdateDBMetrics()
}

// Stats holds the current library statistics
type Stats struct {
	TotalPhotos    int
	TotalFolders   int
	TotalFavorites int
	TotalTags      int
	TotalAlbums    int
	TotalTrashed   int
	TotalSizeBytes int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider     StatsProvider
	dbMetricsUpdater  DBMetricsUpdater
	dbPath            string
	thumbnailCacheDir string
	interval          time.Duration
	stopChan          chan struct{}
	lastGCCount       uint32
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// SetThumbnailCacheDir enables thumbnail cache size collection for the given directory.
func (c *Collector) SetThumbnailCacheDir(dir string) {
	c.thumbnailCacheDir = dir
}

// SetDBMetricsUpdater registers a database layer to refresh on each cycle.
func (c *Collector) SetDBMetricsUpdater(updater DBMetricsUpdater) {
	c.dbMetricsUpdater = updater
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.dbMetricsUpdater != nil {
		c.dbMetricsUpdater.UpdateDBMetrics()
	}

	c.collectDBSize()
	c.collectMemoryMetrics()
	c.collectThumbnailCacheSize()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryPhotosTotal.Set(float64(stats.TotalPhotos))
	LibraryFoldersTotal.Set(float64(stats.TotalFolders))
	LibraryFavoritesTotal.Set(float64(stats.TotalFavorites))
	LibraryTagsTotal.Set(float64(stats.TotalTags))
	LibraryAlbumsTotal.Set(float64(stats.TotalAlbums))
	LibraryTrashedTotal.Set(float64(stats.TotalTrashed))
	LibrarySizeBytes.Set(float64(stats.TotalSizeBytes))

	logging.Debug("Metrics collected: photos=%d, folders=%d, favorites=%d, tags=%d, albums=%d",
		stats.TotalPhotos, stats.TotalFolders, stats.TotalFavorites, stats.TotalTags, stats.TotalAlbums)
}

// collectDBSize reports the on-disk size of the SQLite files.
// WAL mode keeps up to three files alive: main, -wal, and -shm.
func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}

	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			// WAL and SHM files come and go with checkpoints
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}

func (c *Collector) collectMemoryMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	MemoryUsageBytes.Set(float64(m.HeapAlloc))

	if m.NumGC > c.lastGCCount {
		MemoryGCRuns.Add(float64(m.NumGC - c.lastGCCount))
	}
	c.lastGCCount = m.NumGC
}

func (c *Collector) collectThumbnailCacheSize() {
	if c.thumbnailCacheDir == "" {
		return
	}

	size, count, err := c.getDirSize(c.thumbnailCacheDir)
	if err != nil {
		logging.Debug("Failed to measure thumbnail cache: %v", err)
		ThumbnailCacheSizeBytes.Set(0)
		ThumbnailCacheFileCount.Set(0)
		return
	}

	ThumbnailCacheSizeBytes.Set(float64(size))
	ThumbnailCacheFileCount.Set(float64(count))
}

func (c *Collector) getDirSize(dir string) (int64, int, error) {
	var size int64
	var count int

	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
			count++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return size, count, nil
}
