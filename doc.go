// Package main provides the photo-library command line tool and server.
//
// photo-library indexes directories of photos into a SQLite catalog,
// extracts EXIF metadata, detects exact duplicates by content hash, and
// organizes the collection with tags, albums, ratings, and favorites. The
// same binary runs one-shot commands, a filesystem watcher, and an HTTP
// API server.
//
// # Commands
//
// The first argument selects the command:
//
//   - index: scan a folder tree into the library
//   - refresh: rescan monitored folders for new files
//   - watch: watch monitored folders and refresh on changes
//   - duplicates: list groups of photos with identical content
//   - search: query the library by keyword, date, rating, tag, or album
//   - tag, album: manage tags and albums
//   - trash, delete: soft or hard delete a photo
//   - stats: print library-wide counts
//   - serve: start the HTTP API server
//   - version: print build information
//
// # Application Lifecycle (serve)
//
// The server follows a structured initialization sequence:
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Database Initialization: Opens SQLite database in WAL mode and migrates
//  3. Memory Configuration: Sets GOMEMLIMIT from environment or container limits
//  4. Component Initialization:
//     - Memory Monitor: Pauses indexing workers under memory pressure
//     - Thumbnail Generator: Initializes libvips when available
//     - Indexer: Scans folders and extracts photo metadata on demand
//     - Metrics Collector: Gathers Prometheus metrics
//     - Watcher: Refreshes monitored folders on filesystem events
//  5. HTTP Server Setup: Configures routes, middleware, and starts server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Servers
//
// The serve command runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - API endpoints for indexing, search, duplicates, tags, and albums
//     - Photo file and thumbnail serving
//     - Optional bearer-token authentication
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
// Configuration is through environment variables; see
// [photo-library/internal/startup] for the complete list. The most
// important ones:
//
//   - LIBRARY_DIR: Root directory containing photos (default: /photos)
//   - DATA_DIR: Directory for the SQLite database and trash (default: /data)
//   - CACHE_DIR: Directory for the thumbnail cache (default: /cache)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - INDEX_WORKERS: Metadata extraction parallelism (default: 4)
//   - API_PASSWORD_HASH: bcrypt hash enabling API authentication
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server:
//
//  1. Stops the metrics collector
//  2. Stops the memory monitor
//  3. Shuts down the metrics server
//  4. Drains the main HTTP server (30s timeout)
//  5. Closes the database
//
// # Build Requirements
//
// SQLite requires CGO. libvips is optional: when the library is present
// thumbnails use it for decode-time shrinking, otherwise a pure-Go path
// handles them.
//
// # Related Packages
//
//   - [photo-library/internal/database]: SQLite catalog and queries
//   - [photo-library/internal/indexer]: Folder scanning and the watcher
//   - [photo-library/internal/media]: Metadata extraction, hashing, thumbnails
//   - [photo-library/internal/dedup]: Duplicate detection and ranking
//   - [photo-library/internal/handlers]: HTTP request handlers
//   - [photo-library/internal/middleware]: HTTP middleware (auth, logging, metrics)
//   - [photo-library/internal/startup]: Configuration and startup logging
package main
