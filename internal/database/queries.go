package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"photo-library/internal/logging"
)

// Default and maximum page sizes for SearchPhotos.
const (
	defaultSearchLimit = 100
	maxSearchLimit     = 1000
)

// validSortColumns whitelists ORDER BY targets; anything else falls back
// to date_taken.
var validSortColumns = map[string]bool{
	"id":            true,
	"file_name":     true,
	"date_taken":    true,
	"date_added":    true,
	"date_modified": true,
	"rating":        true,
}

// SearchPhotos runs a filtered, paged photo query. Trashed photos are
// excluded unless opts.IncludeTrash is set.
func (d *Database) SearchPhotos(ctx context.Context, opts SearchOptions) ([]Photo, error) {
	done := observeQuery("search_photos")

	// Pagination clamps
	if opts.Limit < 1 {
		opts.Limit = defaultSearchLimit
	}
	if opts.Limit > maxSearchLimit {
		opts.Limit = maxSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	queryParts := []string{"SELECT " + photoColumnsP + " FROM photos p"}
	args := []interface{}{}

	// Join tables if needed
	if len(opts.TagIDs) > 0 {
		queryParts = append(queryParts, "JOIN photo_tags pt ON p.id = pt.photo_id")
	}
	if opts.AlbumID != nil {
		queryParts = append(queryParts, "JOIN album_photos ap ON p.id = ap.photo_id")
	}

	whereClauses := []string{}

	if opts.Keyword != "" {
		whereClauses = append(whereClauses,
			"(p.file_name LIKE ? OR p.camera_make LIKE ? OR p.camera_model LIKE ?)")
		pattern := "%" + opts.Keyword + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if len(opts.FolderIDs) > 0 {
		placeholders := strings.Repeat("?, ", len(opts.FolderIDs)-1) + "?"
		whereClauses = append(whereClauses, fmt.Sprintf("p.folder_id IN (%s)", placeholders))
		for _, id := range opts.FolderIDs {
			args = append(args, id)
		}
	}

	if opts.DateFrom != nil {
		whereClauses = append(whereClauses, "p.date_taken >= ?")
		args = append(args, opts.DateFrom.Unix())
	}
	if opts.DateTo != nil {
		whereClauses = append(whereClauses, "p.date_taken <= ?")
		args = append(args, opts.DateTo.Unix())
	}

	if opts.MinRating != nil {
		whereClauses = append(whereClauses, "p.rating >= ?")
		args = append(args, clampRating(*opts.MinRating))
	}

	if opts.FavoritesOnly {
		whereClauses = append(whereClauses, "p.is_favorite = 1")
	}

	if len(opts.TagIDs) > 0 {
		placeholders := strings.Repeat("?, ", len(opts.TagIDs)-1) + "?"
		whereClauses = append(whereClauses, fmt.Sprintf("pt.tag_id IN (%s)", placeholders))
		for _, id := range opts.TagIDs {
			args = append(args, id)
		}
	}

	if opts.AlbumID != nil {
		whereClauses = append(whereClauses, "ap.album_id = ?")
		args = append(args, *opts.AlbumID)
	}

	if !opts.IncludeTrash {
		whereClauses = append(whereClauses, "p.is_trashed = 0")
	}

	if len(whereClauses) > 0 {
		queryParts = append(queryParts, "WHERE "+strings.Join(whereClauses, " AND "))
	}

	// Joins can fan rows out; collapse back to one row per photo
	if len(opts.TagIDs) > 0 || opts.AlbumID != nil {
		queryParts = append(queryParts, "GROUP BY p.id")
	}

	sortBy := opts.SortBy
	if !validSortColumns[sortBy] {
		sortBy = "date_taken"
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	queryParts = append(queryParts, fmt.Sprintf("ORDER BY p.%s %s", sortBy, direction))

	queryParts = append(queryParts, "LIMIT ? OFFSET ?")
	args = append(args, opts.Limit, opts.Offset)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, strings.Join(queryParts, " "), args...)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to search photos: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	photos := []Photo{}
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

// FindDuplicateHashGroups returns one HashGroup per file_hash shared by
// two or more photos. Photo ids within a group come back in insertion (id)
// order. Groups are derived fresh each call, never persisted.
func (d *Database) FindDuplicateHashGroups(ctx context.Context) ([]HashGroup, error) {
	done := observeQuery("find_duplicate_hash_groups")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT file_hash, GROUP_CONCAT(id) AS photo_ids
		FROM (SELECT file_hash, id FROM photos WHERE file_hash IS NOT NULL ORDER BY id)
		GROUP BY file_hash
		HAVING COUNT(*) > 1
	`)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query duplicate groups: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var groups []HashGroup
	for rows.Next() {
		var hash, idList string
		if err := rows.Scan(&hash, &idList); err != nil {
			logging.Error("error scanning duplicate group row: %v", err)
			continue
		}

		group := HashGroup{FileHash: hash}
		for _, field := range strings.Split(idList, ",") {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				logging.Error("bad photo id %q in duplicate group %s: %v", field, hash, err)
				continue
			}
			group.PhotoIDs = append(group.PhotoIDs, id)
		}
		if len(group.PhotoIDs) > 1 {
			groups = append(groups, group)
		}
	}

	err = rows.Err()
	done(err)
	return groups, err
}

// GetPhotosByIDs hydrates a set of photo ids. Unknown ids are silently
// absent from the result; order follows the input ids.
func (d *Database) GetPhotosByIDs(ctx context.Context, photoIDs []int64) ([]Photo, error) {
	done := observeQuery("get_photos_by_ids")

	if len(photoIDs) == 0 {
		done(nil)
		return []Photo{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	placeholders := strings.Repeat("?, ", len(photoIDs)-1) + "?"
	args := make([]interface{}, len(photoIDs))
	for i, id := range photoIDs {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to query photos by ids: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	byID := make(map[int64]Photo, len(photoIDs))
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			logging.Error("error scanning photo row: %v", err)
			continue
		}
		byID[photo.ID] = *photo
	}
	if err = rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	photos := make([]Photo, 0, len(byID))
	for _, id := range photoIDs {
		if photo, ok := byID[id]; ok {
			photos = append(photos, photo)
		}
	}

	done(nil)
	return photos, nil
}

// CalculateStats computes current library statistics.
func (d *Database) CalculateStats(ctx context.Context) (LibraryStats, error) {
	done := observeQuery("calculate_stats")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats LibraryStats

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM photos WHERE is_trashed = 0", &stats.TotalPhotos},
		{"SELECT COUNT(*) FROM folders", &stats.TotalFolders},
		{"SELECT COUNT(*) FROM photos WHERE is_favorite = 1 AND is_trashed = 0", &stats.TotalFavorites},
		{"SELECT COUNT(*) FROM tags", &stats.TotalTags},
		{"SELECT COUNT(*) FROM albums", &stats.TotalAlbums},
		{"SELECT COUNT(*) FROM photos WHERE is_trashed = 1", &stats.TotalTrashed},
	}

	for _, q := range queries {
		if err := d.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			done(err)
			return stats, err
		}
	}

	err := d.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(file_size), 0) FROM photos WHERE is_trashed = 0",
	).Scan(&stats.TotalSizeBytes)

	done(err)
	return stats, err
}
