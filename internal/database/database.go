package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database is the photo store. It owns the SQLite connection and is the
// only writer of durable library state.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New creates a new Database instance.
// IMPORTANT: dbPath should be the full path to the database FILE (e.g., "/data/photos.db"),
// and the parent directory must already exist and be writable.
// Use startup.LoadConfig() to ensure proper directory validation before calling this.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// Diagnose potential permission issues
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// Use WAL mode and other optimizations
	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Allow multiple readers - increased for better concurrency under load
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	-- Folders containing photos
	CREATE TABLE IF NOT EXISTS folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		parent_id INTEGER REFERENCES folders(id),
		date_added INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		date_scanned INTEGER,
		is_monitored INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);

	-- Main photos table
	CREATE TABLE IF NOT EXISTS photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL UNIQUE,
		file_name TEXT NOT NULL,
		folder_id INTEGER REFERENCES folders(id),
		file_size INTEGER NOT NULL DEFAULT 0,
		file_hash TEXT,
		perceptual_hash TEXT,
		width INTEGER,
		height INTEGER,
		date_taken INTEGER,
		camera_make TEXT,
		camera_model TEXT,
		iso INTEGER,
		aperture REAL,
		exposure_time REAL,
		focal_length REAL,
		latitude REAL,
		longitude REAL,
		altitude REAL,
		date_added INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		date_modified INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		rating INTEGER NOT NULL DEFAULT 0,
		is_favorite INTEGER NOT NULL DEFAULT 0,
		is_trashed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_photos_folder_id ON photos(folder_id);
	CREATE INDEX IF NOT EXISTS idx_photos_date_taken ON photos(date_taken);
	CREATE INDEX IF NOT EXISTS idx_photos_rating ON photos(rating);
	CREATE INDEX IF NOT EXISTS idx_photos_favorite ON photos(is_favorite);
	CREATE INDEX IF NOT EXISTS idx_photos_file_hash ON photos(file_hash);

	-- Tags table (hierarchical via parent_id)
	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		parent_id INTEGER REFERENCES tags(id)
	);

	CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name COLLATE NOCASE);

	-- Photo-Tag relationship table
	CREATE TABLE IF NOT EXISTS photo_tags (
		photo_id INTEGER NOT NULL REFERENCES photos(id),
		tag_id INTEGER NOT NULL REFERENCES tags(id),
		PRIMARY KEY (photo_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_photo_tags_tag ON photo_tags(tag_id);

	-- Albums: virtual ordered collections
	CREATE TABLE IF NOT EXISTS albums (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		date_created INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		date_modified INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS album_photos (
		album_id INTEGER NOT NULL REFERENCES albums(id),
		photo_id INTEGER NOT NULL REFERENCES photos(id),
		order_index INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (album_id, photo_id)
	);

	CREATE INDEX IF NOT EXISTS idx_album_photos_album ON album_photos(album_id);
	`

	_, err := d.db.ExecContext(ctx, schema)
	if err != nil {
		return err
	}

	// Run migrations
	return d.runMigrations(ctx)
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: Add perceptual_hash column if it doesn't exist
	// (groundwork for similarity detection; older databases lack it)
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('photos')
		WHERE name='perceptual_hash'
	`).Scan(&columnExists)

	if err != nil {
		return fmt.Errorf("failed to check for perceptual_hash column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding perceptual_hash column to photos table")

		_, err = d.db.ExecContext(ctx, `
			ALTER TABLE photos ADD COLUMN perceptual_hash TEXT
		`)
		if err != nil {
			return fmt.Errorf("failed to add perceptual_hash column: %w", err)
		}

		logging.Info("Migration complete: perceptual_hash column added")
	}

	// Migration 2: Add is_trashed column if it doesn't exist
	var trashedExists bool
	err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('photos')
		WHERE name='is_trashed'
	`).Scan(&trashedExists)

	if err != nil {
		return fmt.Errorf("failed to check for is_trashed column: %w", err)
	}

	if !trashedExists {
		logging.Info("Migrating database: adding is_trashed column to photos table")

		_, err = d.db.ExecContext(ctx, `
			ALTER TABLE photos ADD COLUMN is_trashed INTEGER NOT NULL DEFAULT 0
		`)
		if err != nil {
			return fmt.Errorf("failed to add is_trashed column: %w", err)
		}

		logging.Info("Migration complete: is_trashed column added")
	}

	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the location of the database file.
func (d *Database) Path() string {
	return d.dbPath
}

// Ping verifies the connection is still usable. The readiness probe polls
// this, so it stays a single round trip.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// observeQuery starts timing a named query and returns the function that
// records its outcome. Call the returned func exactly once with the final
// error before returning.
func observeQuery(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		recordQuery(operation, start, err)
	}
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// GetStats implements metrics.StatsProvider for the collector loop.
// Errors surface as zero-valued gauges rather than failing collection.
func (d *Database) GetStats() metrics.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	stats, err := d.CalculateStats(ctx)
	if err != nil {
		logging.Debug("stats collection failed: %v", err)
		return metrics.Stats{}
	}

	return metrics.Stats{
		TotalPhotos:    stats.TotalPhotos,
		TotalFolders:   stats.TotalFolders,
		TotalFavorites: stats.TotalFavorites,
		TotalTags:      stats.TotalTags,
		TotalAlbums:    stats.TotalAlbums,
		TotalTrashed:   stats.TotalTrashed,
		TotalSizeBytes: stats.TotalSizeBytes,
	}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	// Check directory permissions
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	// Check if directory is writable by testing
	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error
	logging.Debug("Database directory is writable")

	// Check main database file
	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	// Check WAL file
	walPath := dbPath + "-wal"
	if walInfo, err := os.Stat(walPath); err == nil {
		logging.Debug("WAL file exists: %s (mode: %v, size: %d bytes)", walPath, walInfo.Mode(), walInfo.Size())
		if walInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("WAL file is read-only! Mode: %v - this will cause write failures", walInfo.Mode())
			// Try to fix it
			if chmodErr := os.Chmod(walPath, 0o600); chmodErr != nil {
				logging.Error("Failed to fix WAL file permissions: %v", chmodErr)
			} else {
				logging.Info("Fixed WAL file permissions")
			}
		}
	}

	// Check SHM file
	shmPath := dbPath + "-shm"
	if shmInfo, err := os.Stat(shmPath); err == nil {
		logging.Debug("SHM file exists: %s (mode: %v, size: %d bytes)", shmPath, shmInfo.Mode(), shmInfo.Size())
		if shmInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("SHM file is read-only! Mode: %v - this will cause write failures", shmInfo.Mode())
			// Try to fix it
			if chmodErr := os.Chmod(shmPath, 0o600); chmodErr != nil {
				logging.Error("Failed to fix SHM file permissions: %v", chmodErr)
			} else {
				logging.Info("Fixed SHM file permissions")
			}
		}
	}

	return nil
}
