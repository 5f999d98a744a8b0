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

// normalizeTagName canonicalizes a tag name before it hits the store.
func normalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AddTag returns the tag with the given name, creating it if needed. The
// name is normalized (trimmed, lowercased) first; an empty normalized name
// is an error.
func (d *Database) AddTag(ctx context.Context, name string, parentID *int64) (*Tag, error) {
	done := observeQuery("add_tag")

	name = normalizeTagName(name)
	if name == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Use passed context with timeout
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Try to get existing tag
	tag, err := d.getTagByNameUnlocked(ctx, name)
	if err != nil {
		done(err)
		return nil, err
	}
	if tag != nil {
		done(nil)
		return tag, nil
	}

	// Create new tag
	result, err := d.db.ExecContext(ctx,
		"INSERT INTO tags (name, parent_id) VALUES (?, ?)",
		name, parentID,
	)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	id, _ := result.LastInsertId()
	tag = &Tag{ID: id, Name: name, ParentID: parentID}

	done(nil)
	return tag, nil
}

// GetTagByName returns a tag by normalized name, or nil if none exists.
func (d *Database) GetTagByName(ctx context.Context, name string) (*Tag, error) {
	done := observeQuery("get_tag_by_name")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := d.getTagByNameUnlocked(ctx, normalizeTagName(name))
	done(err)
	return tag, err
}

// getTagByNameUnlocked looks a tag up without acquiring the lock.
// Caller must hold at least a read lock and pass a normalized name.
func (d *Database) getTagByNameUnlocked(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	var parentID sql.NullInt64

	err := d.db.QueryRowContext(ctx,
		"SELECT id, name, parent_id FROM tags WHERE name = ? COLLATE NOCASE",
		name,
	).Scan(&tag.ID, &tag.Name, &parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		tag.ParentID = &parentID.Int64
	}
	return &tag, nil
}

// GetAllTags returns every tag, ordered by name.
func (d *Database) GetAllTags(ctx context.Context) ([]Tag, error) {
	done := observeQuery("get_all_tags")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT id, name, parent_id FROM tags ORDER BY name COLLATE NOCASE")
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var parentID sql.NullInt64
		if err := rows.Scan(&tag.ID, &tag.Name, &parentID); err != nil {
			logging.Error("error scanning tag row: %v", err)
			continue
		}
		if parentID.Valid {
			tag.ParentID = &parentID.Int64
		}
		tags = append(tags, tag)
	}

	err = rows.Err()
	done(err)
	return tags, err
}

// DeleteTag removes a tag, its photo links, and re-parents its children to
// the top level.
func (d *Database) DeleteTag(ctx context.Context, tagID int64) error {
	done := observeQuery("delete_tag")

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

	// Remove tag from photos first
	if _, err = tx.ExecContext(ctx, "DELETE FROM photo_tags WHERE tag_id = ?", tagID); err != nil {
		done(err)
		return err
	}

	// Orphaned children move to the top level
	if _, err = tx.ExecContext(ctx, "UPDATE tags SET parent_id = NULL WHERE parent_id = ?", tagID); err != nil {
		done(err)
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", tagID); err != nil {
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

// TagPhoto links a tag to a photo. Linking twice is a no-op.
func (d *Database) TagPhoto(ctx context.Context, photoID, tagID int64) error {
	done := observeQuery("tag_photo")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO photo_tags (photo_id, tag_id) VALUES (?, ?)",
		photoID, tagID,
	)
	done(err)
	return err
}

// UntagPhoto removes a tag link from a photo.
func (d *Database) UntagPhoto(ctx context.Context, photoID, tagID int64) error {
	done := observeQuery("untag_photo")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"DELETE FROM photo_tags WHERE photo_id = ? AND tag_id = ?",
		photoID, tagID,
	)
	done(err)
	return err
}

// GetTagsForPhoto returns all tags on a photo, ordered by name.
func (d *Database) GetTagsForPhoto(ctx context.Context, photoID int64) ([]Tag, error) {
	done := observeQuery("get_tags_for_photo")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.parent_id
		FROM tags t
		INNER JOIN photo_tags pt ON t.id = pt.tag_id
		WHERE pt.photo_id = ?
		ORDER BY t.name COLLATE NOCASE
	`, photoID)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query photo tags: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var parentID sql.NullInt64
		if err := rows.Scan(&tag.ID, &tag.Name, &parentID); err != nil {
			logging.Error("error scanning tag row: %v", err)
			continue
		}
		if parentID.Valid {
			tag.ParentID = &parentID.Int64
		}
		tags = append(tags, tag)
	}

	err = rows.Err()
	done(err)
	return tags, err
}

// GetPhotosByTag returns photos carrying a tag, newest date_taken first.
func (d *Database) GetPhotosByTag(ctx context.Context, tagID int64, limit, offset int) ([]Photo, error) {
	done := observeQuery("get_photos_by_tag")

	if limit < 1 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+photoColumnsP+`
		FROM photos p
		INNER JOIN photo_tags pt ON p.id = pt.photo_id
		WHERE pt.tag_id = ?
		ORDER BY p.date_taken DESC
		LIMIT ? OFFSET ?
	`, tagID, limit, offset)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query photos by tag: %w", err)
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
