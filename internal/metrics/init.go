package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- HTTP metrics for common endpoints ---
	paths := []string{"/api/photos", "/api/folders", "/api/search", "/api/duplicates", "/api/tags", "/api/albums", "/api/stats", "/health"}
	methods := []string{"GET", "POST", "PUT", "DELETE"}
	statuses := []string{"200", "201", "400", "404", "500"}

	for _, path := range paths {
		for _, method := range methods {
			for _, status := range statuses {
				HTTPRequestsTotal.WithLabelValues(method, path, status)
			}
			HTTPRequestDuration.WithLabelValues(method, path)
		}
	}

	// --- Database metrics ---
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	dbOps := []string{
		"initialize_schema", "add_folder", "get_folder", "add_photo",
		"get_photo", "update_photo", "search_photos", "find_duplicates",
		"add_tag", "add_album", "move_to_trash", "permanent_delete",
		"begin_transaction", "commit", "rollback",
	}
	for _, op := range dbOps {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	// --- Indexer metrics ---
	for _, mode := range []string{"index", "refresh"} {
		IndexerRunsTotal.WithLabelValues(mode)
	}

	// --- Scanner metrics ---
	for _, mode := range []string{"recursive", "flat"} {
		ScannerScansTotal.WithLabelValues(mode, "success")
		ScannerScansTotal.WithLabelValues(mode, "error")
		ScannerScanDuration.WithLabelValues(mode)
		ScannerImagesFound.WithLabelValues(mode)
	}

	// --- Duplicate detection metrics ---
	for _, scope := range []string{"library", "folder"} {
		DedupScansTotal.WithLabelValues(scope, "success")
		DedupScansTotal.WithLabelValues(scope, "error")
		DedupScanDuration.WithLabelValues(scope)
	}
	for _, mode := range []string{"trash", "permanent"} {
		DedupDeletesTotal.WithLabelValues(mode, "success")
		DedupDeletesTotal.WithLabelValues(mode, "error")
	}

	// --- Thumbnail metrics ---
	ThumbnailGenerationsTotal.WithLabelValues("success")
	ThumbnailGenerationsTotal.WithLabelValues("error")
	ThumbnailGenerationsTotal.WithLabelValues("error_not_found")
	ThumbnailGenerationsTotal.WithLabelValues("error_decode")

	// --- Filesystem retry metrics ---
	for _, op := range []string{"stat", "open", "readdir"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	// --- Watcher metrics ---
	for _, eventType := range []string{"create", "write", "remove", "rename"} {
		WatcherEventsTotal.WithLabelValues(eventType)
	}
}
