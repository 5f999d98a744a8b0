package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"photo-library/internal/logging"
)

// AddFolder registers a folder record, reusing any existing row for the
// same path. The returned bool reports whether a new row was created.
// An existing row keeps its flags; callers that need to change
// is_monitored on reuse use SetFolderMonitored.
func (d *Database) AddFolder(ctx context.Context, path, name string, parentID *int64, isMonitored bool) (*Folder, bool, error) {
	done := observeQuery("add_folder")

	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		err := errors.New("folder path cannot be empty")
		done(err)
		return nil, false, err
	}
	if name == "" {
		name = filepath.Base(path)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Use passed context with timeout
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	monitored := 0
	if isMonitored {
		monitored = 1
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO folders (path, name, parent_id, date_added, date_scanned, is_monitored)
		VALUES (?, ?, ?, strftime('%s', 'now'), strftime('%s', 'now'), ?)
	`, path, name, parentID, monitored)
	if err != nil {
		done(err)
		return nil, false, fmt.Errorf("failed to add folder: %w", err)
	}

	rows, _ := result.RowsAffected()
	created := rows > 0

	folder, err := d.getFolderByPathUnlocked(ctx, path)
	if err != nil {
		done(err)
		return nil, false, err
	}
	if folder == nil {
		err = fmt.Errorf("folder %s missing after insert", path)
		done(err)
		return nil, false, err
	}

	done(nil)
	return folder, created, nil
}

// GetFolder returns a folder by id, or nil if no such row exists.
func (d *Database) GetFolder(ctx context.Context, folderID int64) (*Folder, error) {
	done := observeQuery("get_folder")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, path, name, parent_id, date_added, date_scanned, is_monitored
		FROM folders WHERE id = ?
	`, folderID)

	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	return folder, err
}

// GetFolderByPath returns a folder by path, or nil if no such row exists.
func (d *Database) GetFolderByPath(ctx context.Context, path string) (*Folder, error) {
	done := observeQuery("get_folder_by_path")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	folder, err := d.getFolderByPathUnlocked(ctx, filepath.Clean(path))
	done(err)
	return folder, err
}

// getFolderByPathUnlocked looks up a folder without acquiring the lock.
// Caller must hold at least a read lock.
func (d *Database) getFolderByPathUnlocked(ctx context.Context, path string) (*Folder, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, path, name, parent_id, date_added, date_scanned, is_monitored
		FROM folders WHERE path = ?
	`, path)

	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return folder, err
}

// GetAllFolders returns every folder record, ordered by path.
func (d *Database) GetAllFolders(ctx context.Context) ([]Folder, error) {
	return d.listFolders(ctx, "get_all_folders", `
		SELECT id, path, name, parent_id, date_added, date_scanned, is_monitored
		FROM folders ORDER BY path
	`)
}

// GetMonitoredFolders returns folders flagged for refresh monitoring.
func (d *Database) GetMonitoredFolders(ctx context.Context) ([]Folder, error) {
	return d.listFolders(ctx, "get_monitored_folders", `
		SELECT id, path, name, parent_id, date_added, date_scanned, is_monitored
		FROM folders WHERE is_monitored = 1 ORDER BY path
	`)
}

func (d *Database) listFolders(ctx context.Context, operation, query string) ([]Folder, error) {
	done := observeQuery(operation)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var folders []Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			logging.Error("error scanning folder row: %v", err)
			continue
		}
		folders = append(folders, *folder)
	}

	err = rows.Err()
	done(err)
	return folders, err
}

// SetFolderMonitored updates the is_monitored flag for a folder.
func (d *Database) SetFolderMonitored(ctx context.Context, folderID int64, monitored bool) error {
	done := observeQuery("set_folder_monitored")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	value := 0
	if monitored {
		value = 1
	}

	_, err := d.db.ExecContext(ctx,
		"UPDATE folders SET is_monitored = ? WHERE id = ?",
		value, folderID,
	)
	done(err)
	return err
}

// TouchFolderScanned stamps a folder's date_scanned with the current time.
func (d *Database) TouchFolderScanned(ctx context.Context, folderID int64) error {
	done := observeQuery("touch_folder_scanned")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"UPDATE folders SET date_scanned = strftime('%s', 'now') WHERE id = ?",
		folderID,
	)
	done(err)
	return err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*Folder, error) {
	var folder Folder
	var parentID sql.NullInt64
	var dateAdded int64
	var dateScanned sql.NullInt64
	var monitored int

	err := row.Scan(&folder.ID, &folder.Path, &folder.Name, &parentID,
		&dateAdded, &dateScanned, &monitored)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		folder.ParentID = &parentID.Int64
	}
	folder.DateAdded = time.Unix(dateAdded, 0)
	if dateScanned.Valid {
		t := time.Unix(dateScanned.Int64, 0)
		folder.DateScanned = &t
	}
	folder.IsMonitored = monitored != 0

	return &folder, nil
}
