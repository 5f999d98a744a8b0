package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"photo-library/internal/logging"
)

// ErrPhotoNotFound reports an operation against a photo id with no row.
var ErrPhotoNotFound = errors.New("photo not found")

// MoveToTrash relocates a photo's file into trashDir and marks the row
// trashed. The bytes stay recoverable; file_path is repointed at the trash
// destination so the original path can be indexed again. A name collision
// in the trash directory gets a uuid suffix. Trashing a trashed photo is a
// no-op.
func (d *Database) MoveToTrash(ctx context.Context, photoID int64, trashDir string) error {
	photo, err := d.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return ErrPhotoNotFound
	}
	if photo.IsTrashed {
		return nil
	}

	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return fmt.Errorf("failed to create trash directory: %w", err)
	}

	dest := filepath.Join(trashDir, photo.FileName)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(photo.FileName)
		base := strings.TrimSuffix(photo.FileName, ext)
		dest = filepath.Join(trashDir, base+"-"+uuid.NewString()+ext)
	}

	if err := os.Rename(photo.FilePath, dest); err != nil {
		return fmt.Errorf("failed to move %s to trash: %w", photo.FilePath, err)
	}

	if err := d.markTrashed(ctx, photoID, dest); err != nil {
		// Row update failed after the file moved; put the file back so the
		// index still matches the disk.
		if restoreErr := os.Rename(dest, photo.FilePath); restoreErr != nil {
			logging.Error("failed to restore %s from trash after database error: %v", photo.FilePath, restoreErr)
		}
		return err
	}

	logging.Info("Moved photo %d to trash: %s", photoID, dest)
	return nil
}

// markTrashed flips is_trashed and repoints file_path at the trash
// destination.
func (d *Database) markTrashed(ctx context.Context, photoID int64, trashPath string) error {
	done := observeQuery("mark_trashed")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		UPDATE photos SET is_trashed = 1, file_path = ?, date_modified = strftime('%s', 'now')
		WHERE id = ?
	`, trashPath, photoID)
	done(err)
	return err
}

// PermanentlyDelete removes a photo's file from disk and deletes its row
// along with tag and album links. A file already gone from disk does not
// block the row deletion.
func (d *Database) PermanentlyDelete(ctx context.Context, photoID int64) error {
	photo, err := d.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return ErrPhotoNotFound
	}

	if err := os.Remove(photo.FilePath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", photo.FilePath, err)
		}
		logging.Warn("File already missing when deleting photo %d: %s", photoID, photo.FilePath)
	}

	if err := d.deletePhotoRows(ctx, photoID); err != nil {
		return err
	}

	logging.Info("Permanently deleted photo %d: %s", photoID, photo.FilePath)
	return nil
}

// deletePhotoRows removes a photo row and its join-table links in one
// transaction.
func (d *Database) deletePhotoRows(ctx context.Context, photoID int64) error {
	done := observeQuery("delete_photo")

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

	if _, err = tx.ExecContext(ctx, "DELETE FROM photo_tags WHERE photo_id = ?", photoID); err != nil {
		done(err)
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM album_photos WHERE photo_id = ?", photoID); err != nil {
		done(err)
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", photoID); err != nil {
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
