package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"photo-library/internal/logging"
)

// ErrPhotoExists reports an insert that hit the file_path uniqueness
// constraint: the path is already indexed. Callers treat this as "skip",
// not as a failure.
var ErrPhotoExists = errors.New("photo already exists")

// photoColumns is the canonical column list for photo scans. Keep in sync
// with scanPhoto.
const photoColumns = `id, file_path, file_name, folder_id, file_size, file_hash,
	perceptual_hash, width, height, date_taken, camera_make, camera_model,
	iso, aperture, exposure_time, focal_length, latitude, longitude, altitude,
	date_added, date_modified, rating, is_favorite, is_trashed`

// photoColumnsP is photoColumns qualified with the "p" table alias, for
// joined queries.
const photoColumnsP = `p.id, p.file_path, p.file_name, p.folder_id, p.file_size, p.file_hash,
	p.perceptual_hash, p.width, p.height, p.date_taken, p.camera_make, p.camera_model,
	p.iso, p.aperture, p.exposure_time, p.focal_length, p.latitude, p.longitude, p.altitude,
	p.date_added, p.date_modified, p.rating, p.is_favorite, p.is_trashed`

// AddPhoto inserts a new photo row and returns its id. If the file_path is
// already present the insert is ignored and ErrPhotoExists is returned;
// racing inserts for the same path resolve the same way, backstopped by
// the unique constraint.
func (d *Database) AddPhoto(ctx context.Context, photo *Photo) (int64, error) {
	done := observeQuery("add_photo")

	if photo == nil || photo.FilePath == "" {
		err := errors.New("photo file path cannot be empty")
		done(err)
		return 0, err
	}
	if photo.FileName == "" {
		photo.FileName = filepath.Base(photo.FilePath)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Use passed context with timeout
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rating := clampRating(photo.Rating)

	result, err := d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO photos (
			file_path, file_name, folder_id, file_size, file_hash, perceptual_hash,
			width, height, date_taken, camera_make, camera_model,
			iso, aperture, exposure_time, focal_length,
			latitude, longitude, altitude,
			date_added, date_modified, rating, is_favorite, is_trashed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			strftime('%s', 'now'), strftime('%s', 'now'), ?, ?, 0)
	`,
		photo.FilePath,
		photo.FileName,
		photo.FolderID,
		photo.FileSize,
		nullIfEmpty(photo.FileHash),
		nullIfEmpty(photo.PerceptualHash),
		photo.Width,
		photo.Height,
		unixOrNil(photo.DateTaken),
		nullIfEmpty(photo.CameraMake),
		nullIfEmpty(photo.CameraModel),
		photo.ISO,
		photo.Aperture,
		photo.ExposureTime,
		photo.FocalLength,
		photo.Latitude,
		photo.Longitude,
		photo.Altitude,
		rating,
		boolToInt(photo.IsFavorite),
	)
	if err != nil {
		done(err)
		return 0, fmt.Errorf("failed to add photo: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		done(nil)
		return 0, ErrPhotoExists
	}

	id, err := result.LastInsertId()
	done(err)
	return id, err
}

// GetPhoto returns a photo by id, or nil if no such row exists.
func (d *Database) GetPhoto(ctx context.Context, photoID int64) (*Photo, error) {
	done := observeQuery("get_photo")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE id = ?", photoID)

	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	return photo, err
}

// GetPhotoByPath returns a photo by file path, or nil if no such row
// exists. This is the indexer's idempotence check.
func (d *Database) GetPhotoByPath(ctx context.Context, path string) (*Photo, error) {
	done := observeQuery("get_photo_by_path")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE file_path = ?", path)

	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	return photo, err
}

// GetPhotosByFolder returns every photo row for a folder, trashed included.
// Refresh diffs against this set, so trashed paths still count as known.
func (d *Database) GetPhotosByFolder(ctx context.Context, folderID int64) ([]Photo, error) {
	done := observeQuery("get_photos_by_folder")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE folder_id = ? ORDER BY file_name", folderID)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var photos []Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			logging.Error("error scanning photo row: %v", err)
			continue
		}
		photos = append(photos, *photo)
	}

	err = rows.Err()
	done(err)
	return photos, err
}

// SetPhotoRating updates a photo's rating, clamped to [0, 5], and bumps
// date_modified.
func (d *Database) SetPhotoRating(ctx context.Context, photoID int64, rating int) error {
	done := observeQuery("set_photo_rating")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		UPDATE photos SET rating = ?, date_modified = strftime('%s', 'now')
		WHERE id = ?
	`, clampRating(rating), photoID)
	done(err)
	return err
}

// SetPhotoFavorite updates a photo's favorite flag and bumps date_modified.
func (d *Database) SetPhotoFavorite(ctx context.Context, photoID int64, favorite bool) error {
	done := observeQuery("set_photo_favorite")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		UPDATE photos SET is_favorite = ?, date_modified = strftime('%s', 'now')
		WHERE id = ?
	`, boolToInt(favorite), photoID)
	done(err)
	return err
}

// clampRating pins a rating into the valid 0-5 range rather than erroring.
func clampRating(rating int) int {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		return 5
	}
	return rating
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullIfEmpty maps an empty string to SQL NULL so optional text columns
// stay NULL instead of collecting empty strings (file_hash grouping
// depends on this).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// unixOrNil maps a nil time to SQL NULL and a set time to Unix seconds.
func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// scanPhoto decodes one photo row in photoColumns order.
func scanPhoto(row rowScanner) (*Photo, error) {
	var photo Photo
	var folderID sql.NullInt64
	var fileHash, perceptualHash sql.NullString
	var width, height, iso sql.NullInt64
	var dateTaken sql.NullInt64
	var cameraMake, cameraModel sql.NullString
	var aperture, exposureTime, focalLength sql.NullFloat64
	var latitude, longitude, altitude sql.NullFloat64
	var dateAdded, dateModified int64
	var favorite, trashed int

	err := row.Scan(
		&photo.ID, &photo.FilePath, &photo.FileName, &folderID, &photo.FileSize,
		&fileHash, &perceptualHash, &width, &height, &dateTaken,
		&cameraMake, &cameraModel, &iso, &aperture, &exposureTime, &focalLength,
		&latitude, &longitude, &altitude,
		&dateAdded, &dateModified, &photo.Rating, &favorite, &trashed,
	)
	if err != nil {
		return nil, err
	}

	if folderID.Valid {
		photo.FolderID = &folderID.Int64
	}
	photo.FileHash = fileHash.String
	photo.PerceptualHash = perceptualHash.String
	if width.Valid {
		w := int(width.Int64)
		photo.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		photo.Height = &h
	}
	if dateTaken.Valid {
		t := time.Unix(dateTaken.Int64, 0)
		photo.DateTaken = &t
	}
	photo.CameraMake = cameraMake.String
	photo.CameraModel = cameraModel.String
	if iso.Valid {
		i := int(iso.Int64)
		photo.ISO = &i
	}
	if aperture.Valid {
		photo.Aperture = &aperture.Float64
	}
	if exposureTime.Valid {
		photo.ExposureTime = &exposureTime.Float64
	}
	if focalLength.Valid {
		photo.FocalLength = &focalLength.Float64
	}
	if latitude.Valid {
		photo.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		photo.Longitude = &longitude.Float64
	}
	if altitude.Valid {
		photo.Altitude = &altitude.Float64
	}
	photo.DateAdded = time.Unix(dateAdded, 0)
	photo.DateModified = time.Unix(dateModified, 0)
	photo.IsFavorite = favorite != 0
	photo.IsTrashed = trashed != 0

	return &photo, nil
}
