// Package startup loads configuration from the environment and prints
// the sectioned report that frames the application log from boot to
// shutdown.
//
// [LoadConfig] reads every setting, applies defaults, resolves the
// configured paths to absolute ones, and prepares the data, cache, and
// trash directories before any subsystem starts. A .env file in the
// working directory is merged into the environment first, so local
// development needs no wrapper script. Settings:
//
//   - LIBRARY_DIR: photo library root (default /photos)
//   - DATA_DIR: database and trash location (default /data)
//   - CACHE_DIR: thumbnail location (default /cache)
//   - PORT: HTTP server port (default 8080)
//   - METRICS_PORT: Prometheus listener port (default 9090)
//   - METRICS_ENABLED: serve /metrics (default true)
//   - INDEX_WORKERS: parallel indexing workers (default 4)
//   - INDEX_RECURSIVE: descend into subdirectories (default true)
//   - WATCH_DEBOUNCE: quiet period before a watcher-triggered refresh (default 2s)
//   - CORS_ORIGINS: comma-separated allowed origins (default *)
//   - API_PASSWORD_HASH: bcrypt hash; setting it turns on bearer-token auth
//   - LOG_LEVEL: debug, info, warn, or error (default info)
//   - LOG_MEDIA_FILES: include photo and thumbnail requests in the access log (default false)
//   - LOG_HEALTH_CHECKS: include health probes in the access log (default true)
//   - MEMORY_LIMIT: container memory limit used to derive GOMEMLIMIT
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap (default 0.85)
//   - GOMEMLIMIT: direct override, takes precedence over MEMORY_LIMIT
//
// The data directory must be writable or LoadConfig fails, since the
// database lives there. The thumbnail and trash directories are
// optional: when one cannot be created or written, the corresponding
// feature is disabled and startup continues. A problem with the library
// directory only warns, because the mount may appear after the
// container starts.
//
// The remaining exported functions each print one section of the
// report as main brings subsystems up, and one line per step during
// graceful shutdown:
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogDatabaseInit(time.Since(dbStart))
//	startup.LogIndexerInit(config.IndexWorkers, config.RecursiveIndex)
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(start),
//	})
//
//	// On SIGTERM:
//	startup.LogShutdownInitiated("SIGTERM")
//	startup.LogShutdownStep("Stopping HTTP server")
//	startup.LogShutdownComplete()
//
// Build-time values (Version, Commit, BuildTime) are injected with
// ldflags and surfaced through [GetBuildInfo].
package startup
