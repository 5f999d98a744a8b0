// Package metrics provides Prometheus instrumentation for the photo library.
//
// This package defines and exposes various metrics that can be scraped by Prometheus
// to monitor the health, performance, and behavior of the application. All metrics
// are prefixed with "photo_library_" to avoid naming collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
// Monitor database query performance and storage:
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//
// ## Indexer Metrics
//
// Track photo library indexing operations:
//   - IndexerRunsTotal: Counter of indexer runs by mode (index/refresh)
//   - IndexerLastRunTimestamp: Gauge of last run time
//   - IndexerLastRunDuration: Gauge of last run duration
//   - IndexerPhotosAdded: Counter of photos added
//   - IndexerPhotosSkipped: Counter of already-indexed files skipped
//   - IndexerPhotosFailed: Counter of files that failed processing
//   - IndexerFoldersProcessed: Counter of folders processed
//   - IndexerIsRunning: Gauge indicating if indexing is active
//
// ## Scanner Metrics
//
// Track directory scanning:
//   - ScannerScansTotal: Counter of scans by mode (recursive/flat) and status
//   - ScannerScanDuration: Histogram of scan duration by mode
//   - ScannerImagesFound: Histogram of image counts per scan
//
// ## Duplicate Detection Metrics
//
// Monitor duplicate scans and cleanup:
//   - DedupScansTotal: Counter of scans by scope (library/folder) and status
//   - DedupScanDuration: Histogram of scan duration by scope
//   - DedupGroupsFound: Gauge of duplicate groups from the last scan
//   - DedupWastedBytes: Gauge of redundant bytes from the last statistics query
//   - DedupDeletesTotal: Counter of deletions by mode (trash/permanent) and status
//
// ## Thumbnail Metrics
//
// Monitor thumbnail generation and caching:
//   - ThumbnailGenerationsTotal: Counter by status
//   - ThumbnailGenerationDuration: Histogram of generation time
//   - ThumbnailCacheHits: Counter of cache hits
//   - ThumbnailCacheMisses: Counter of cache misses
//   - ThumbnailCacheSizeBytes: Gauge of cache size in bytes
//   - ThumbnailCacheFileCount: Gauge of cached thumbnail count
//
// ## Library Metrics
//
// Track library contents:
//   - LibraryPhotosTotal: Gauge of indexed photos
//   - LibraryFoldersTotal: Gauge of registered folders
//   - LibraryFavoritesTotal: Gauge of favorite photos
//   - LibraryTagsTotal: Gauge of tags
//   - LibraryAlbumsTotal: Gauge of albums
//   - LibraryTrashedTotal: Gauge of trashed photos
//   - LibrarySizeBytes: Gauge of total photo bytes
//
// ## Filesystem Metrics
//
// Track retry behavior on flaky mounts (NFS, SMB):
//   - FilesystemRetryAttempts: Counter of retries by operation
//   - FilesystemRetrySuccess: Counter of eventual successes by operation
//   - FilesystemRetryFailures: Counter of exhausted retries by operation
//   - FilesystemStaleErrors: Counter of NFS stale handle errors by operation
//
// ## Watcher Metrics
//
// Track filesystem watch mode:
//   - WatcherEventsTotal: Counter of events by type
//   - WatcherErrors: Counter of watcher errors
//   - WatcherWatchedFolders: Gauge of folders under watch
//
// ## Memory Metrics
//
// Monitor Go runtime memory and pressure:
//   - MemoryUsageBytes: Gauge of current heap allocation
//   - MemoryLimitBytes: Gauge of the configured soft limit
//   - MemoryThrottleEvents: Counter of worker pauses under pressure
//   - MemoryGCRuns: Counter of completed GC cycles
//
// ## Application Info
//
// Expose build information:
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To expose them, mount the promhttp.Handler() on your
// metrics endpoint:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	import "photo-library/internal/metrics"
//
//	// Increment a counter
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/photos", "200").Inc()
//
//	// Observe a histogram value
//	metrics.HTTPRequestDuration.WithLabelValues("GET", "/api/photos").Observe(0.123)
//
//	// Set a gauge value
//	metrics.DBConnectionsOpen.Set(5)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and updates the corresponding gauges.
// This is useful for metrics that need to be calculated from external
// sources like the database:
//
//	collector := metrics.NewCollector(statsProvider, dbPath, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// The collector automatically updates:
//   - Library statistics (photos, folders, tags, albums)
//   - Database file sizes
//   - Go runtime memory statistics
//   - Thumbnail cache size, when a cache directory is configured
//
// # Prometheus Queries
//
// Example PromQL queries for common use cases:
//
// Request rate by endpoint:
//
//	sum(rate(photo_library_http_requests_total[5m])) by (path)
//
// P95 response time:
//
//	histogram_quantile(0.95, sum(rate(photo_library_http_request_duration_seconds_bucket[5m])) by (le))
//
// Error rate:
//
//	sum(rate(photo_library_http_requests_total{status=~"5.."}[5m])) / sum(rate(photo_library_http_requests_total[5m]))
//
// Thumbnail cache hit rate:
//
//	rate(photo_library_thumbnail_cache_hits_total[5m]) /
//	(rate(photo_library_thumbnail_cache_hits_total[5m]) + rate(photo_library_thumbnail_cache_misses_total[5m]))
//
// Database query latency by operation:
//
//	histogram_quantile(0.95, sum(rate(photo_library_db_query_duration_seconds_bucket[5m])) by (le, operation))
//
// Indexer failure ratio:
//
//	rate(photo_library_indexer_photos_failed_total[1h]) /
//	(rate(photo_library_indexer_photos_added_total[1h]) + rate(photo_library_indexer_photos_failed_total[1h]))
package metrics
