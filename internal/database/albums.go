package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-library/internal/logging"
)

// CreateAlbum creates a new album and returns it.
func (d *Database) CreateAlbum(ctx context.Context, name, description string) (*Album, error) {
	done := observeQuery("create_album")

	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("album name cannot be empty")
		done(err)
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO albums (name, description, date_created, date_modified)
		VALUES (?, ?, strftime('%s', 'now'), strftime('%s', 'now'))
	`, name, description)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to create album: %w", err)
	}

	id, _ := result.LastInsertId()
	now := time.Now()

	done(nil)
	return &Album{
		ID:           id,
		Name:         name,
		Description:  description,
		DateCreated:  now,
		DateModified: now,
	}, nil
}

// GetAlbum returns an album by id, or nil if no such row exists.
func (d *Database) GetAlbum(ctx context.Context, albumID int64) (*Album, error) {
	done := observeQuery("get_album")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, description, date_created, date_modified
		FROM albums WHERE id = ?
	`, albumID)

	album, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	return album, err
}

// GetAllAlbums returns every album, ordered by name.
func (d *Database) GetAllAlbums(ctx context.Context) ([]Album, error) {
	done := observeQuery("get_all_albums")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, description, date_created, date_modified
		FROM albums ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var albums []Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			logging.Error("error scanning album row: %v", err)
			continue
		}
		albums = append(albums, *album)
	}

	err = rows.Err()
	done(err)
	return albums, err
}

// UpdateAlbum changes an album's name and/or description. Nil fields are
// left untouched; updating nothing is a no-op.
func (d *Database) UpdateAlbum(ctx context.Context, albumID int64, name, description *string) error {
	done := observeQuery("update_album")

	setClauses := []string{}
	args := []interface{}{}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			err := errors.New("album name cannot be empty")
			done(err)
			return err
		}
		setClauses = append(setClauses, "name = ?")
		args = append(args, trimmed)
	}
	if description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *description)
	}
	if len(setClauses) == 0 {
		done(nil)
		return nil
	}

	setClauses = append(setClauses, "date_modified = strftime('%s', 'now')")
	args = append(args, albumID)

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "UPDATE albums SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	_, err := d.db.ExecContext(ctx, query, args...)
	done(err)
	return err
}

// DeleteAlbum removes an album and its membership rows. Photos themselves
// are untouched.
func (d *Database) DeleteAlbum(ctx context.Context, albumID int64) error {
	done := observeQuery("delete_album")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM album_photos WHERE album_id = ?", albumID); err != nil {
		done(err)
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", albumID); err != nil {
		done(err)
		return err
	}

	err = tx.Commit()
	if err == nil {
		committed = true
	}
	done(err)
	return err
}

// AddPhotoToAlbum puts a photo into an album. A nil orderIndex appends to
// the end (max order + 1); re-adding an existing member updates its
// position. Membership changes bump the album's date_modified.
func (d *Database) AddPhotoToAlbum(ctx context.Context, albumID, photoID int64, orderIndex *int) error {
	done := observeQuery("add_photo_to_album")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	index := 0
	if orderIndex != nil {
		index = *orderIndex
	} else {
		var maxOrder sql.NullInt64
		err := d.db.QueryRowContext(ctx,
			"SELECT MAX(order_index) FROM album_photos WHERE album_id = ?",
			albumID,
		).Scan(&maxOrder)
		if err != nil {
			done(err)
			return fmt.Errorf("failed to determine album order: %w", err)
		}
		if maxOrder.Valid {
			index = int(maxOrder.Int64) + 1
		}
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO album_photos (album_id, photo_id, order_index)
		VALUES (?, ?, ?)
	`, albumID, photoID, index)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to add photo to album: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		"UPDATE albums SET date_modified = strftime('%s', 'now') WHERE id = ?",
		albumID,
	)
	done(err)
	return err
}

// RemovePhotoFromAlbum takes a photo out of an album.
func (d *Database) RemovePhotoFromAlbum(ctx context.Context, albumID, photoID int64) error {
	done := observeQuery("remove_photo_from_album")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"DELETE FROM album_photos WHERE album_id = ? AND photo_id = ?",
		albumID, photoID,
	)
	if err != nil {
		done(err)
		return err
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		_, err = d.db.ExecContext(ctx,
			"UPDATE albums SET date_modified = strftime('%s', 'now') WHERE id = ?",
			albumID,
		)
	}
	done(err)
	return err
}

// ReorderAlbumPhotos applies a photo-id to order-index map to an album's
// membership rows.
func (d *Database) ReorderAlbumPhotos(ctx context.Context, albumID int64, orderMap map[int64]int) error {
	done := observeQuery("reorder_album_photos")

	if len(orderMap) == 0 {
		done(nil)
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	for photoID, orderIndex := range orderMap {
		if _, err = tx.ExecContext(ctx, `
			UPDATE album_photos SET order_index = ?
			WHERE album_id = ? AND photo_id = ?
		`, orderIndex, albumID, photoID); err != nil {
			done(err)
			return err
		}
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE albums SET date_modified = strftime('%s', 'now') WHERE id = ?",
		albumID,
	); err != nil {
		done(err)
		return err
	}

	err = tx.Commit()
	if err == nil {
		committed = true
	}
	done(err)
	return err
}

// GetPhotosInAlbum returns an album's photos in display order
// (order_index, then photo id as the tie-break).
func (d *Database) GetPhotosInAlbum(ctx context.Context, albumID int64) ([]Photo, error) {
	done := observeQuery("get_photos_in_album")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+photoColumnsP+`
		FROM photos p
		INNER JOIN album_photos ap ON p.id = ap.photo_id
		WHERE ap.album_id = ?
		ORDER BY ap.order_index, p.id
	`, albumID)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query album photos: %w", err)
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

// GetAlbumsForPhoto returns the albums containing a photo, ordered by name.
func (d *Database) GetAlbumsForPhoto(ctx context.Context, photoID int64) ([]Album, error) {
	done := observeQuery("get_albums_for_photo")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.description, a.date_created, a.date_modified
		FROM albums a
		INNER JOIN album_photos ap ON a.id = ap.album_id
		WHERE ap.photo_id = ?
		ORDER BY a.name COLLATE NOCASE
	`, photoID)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query albums for photo: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var albums []Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			logging.Error("error scanning album row: %v", err)
			continue
		}
		albums = append(albums, *album)
	}

	err = rows.Err()
	done(err)
	return albums, err
}

func scanAlbum(row rowScanner) (*Album, error) {
	var album Album
	var description sql.NullString
	var dateCreated, dateModified int64

	err := row.Scan(&album.ID, &album.Name, &description, &dateCreated, &dateModified)
	if err != nil {
		return nil, err
	}

	album.Description = description.String
	album.DateCreated = time.Unix(dateCreated, 0)
	album.DateModified = time.Unix(dateModified, 0)

	return &album, nil
}
