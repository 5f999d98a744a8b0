package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_auth_attempts_total",
			Help: "Total number of API authentication attempts",
		},
		[]string{"status"}, // "success" or "failure"
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_library_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
		[]string{"mode"}, // "index" or "refresh"
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_last_run_timestamp",
			Help: "Timestamp of the last indexer run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)

	IndexerPhotosAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_photos_added_total",
			Help: "Total number of photos added by the indexer",
		},
	)

	IndexerPhotosSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_photos_skipped_total",
			Help: "Total number of files skipped because their path was already indexed",
		},
	)

	IndexerPhotosFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_photos_failed_total",
			Help: "Total number of files that failed metadata extraction or insertion",
		},
	)

	IndexerFoldersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_folders_processed_total",
			Help: "Total number of folders processed by the indexer",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_running",
			Help: "Whether an indexing run is currently in progress (1 = running, 0 = idle)",
		},
	)
)

// Scanner metrics
var (
	ScannerScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_scanner_scans_total",
			Help: "Total number of directory scans",
		},
		[]string{"mode", "status"}, // mode: "recursive" or "flat"
	)

	ScannerScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_scanner_scan_duration_seconds",
			Help:    "Directory scan duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	ScannerImagesFound = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_scanner_images_found",
			Help:    "Number of image files found per scan",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"mode"},
	)
)

// Duplicate detection metrics
var (
	DedupScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_dedup_scans_total",
			Help: "Total number of duplicate detection scans",
		},
		[]string{"scope", "status"}, // scope: "library" or "folder"
	)

	DedupScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_dedup_scan_duration_seconds",
			Help:    "Duplicate detection scan duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"scope"},
	)

	DedupGroupsFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_dedup_groups",
			Help: "Number of duplicate groups found by the last scan",
		},
	)

	DedupWastedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_dedup_wasted_bytes",
			Help: "Redundant bytes reported by the last duplicate statistics query",
		},
	)

	DedupDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_dedup_deletes_total",
			Help: "Total number of duplicate deletions",
		},
		[]string{"mode", "status"}, // mode: "trash" or "permanent"
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_library_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailCacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_thumbnail_cache_size_bytes",
			Help: "Total size of the thumbnail cache directory in bytes",
		},
	)

	ThumbnailCacheFileCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_thumbnail_cache_files",
			Help: "Number of files in the thumbnail cache directory",
		},
	)
)

// Library metrics
var (
	LibraryPhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_photos_total",
			Help: "Total number of indexed photos",
		},
	)

	LibraryFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_folders_total",
			Help: "Total number of registered folders",
		},
	)

	LibraryFavoritesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_favorites_total",
			Help: "Total number of favorite photos",
		},
	)

	LibraryTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_tags_total",
			Help: "Total number of tags",
		},
	)

	LibraryAlbumsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_albums_total",
			Help: "Total number of albums",
		},
	)

	LibraryTrashedTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_trashed_total",
			Help: "Total number of photos in the trash",
		},
	)

	LibrarySizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_size_bytes",
			Help: "Total size of all indexed photos in bytes",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_fs_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_fs_retry_failures_total",
			Help: "Total number of filesystem operations that exhausted their retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_fs_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	WatcherWatchedFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_watcher_watched_folders",
			Help: "Number of monitored folders currently being watched",
		},
	)
)

// Memory metrics
var (
	MemoryUsageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_memory_usage_bytes",
			Help: "Current heap usage observed by the memory monitor",
		},
	)

	MemoryLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_memory_limit_bytes",
			Help: "Configured soft memory limit (0 = unlimited)",
		},
	)

	MemoryThrottleEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_memory_throttle_events_total",
			Help: "Total number of times workers were paused for memory pressure",
		},
	)

	MemoryGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_memory_gc_runs_total",
			Help: "Total number of garbage collection runs observed by the collector",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_library_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
