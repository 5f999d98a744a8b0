package dedup

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/bits"
	"sort"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Service finds and manages groups of photos sharing a content hash.
type Service struct {
	db       *database.Database
	trashDir string
}

// NewService creates a duplicate detection service backed by db. Soft
// deletes move files into trashDir.
func NewService(db *database.Database, trashDir string) *Service {
	return &Service{db: db, trashDir: trashDir}
}

// DuplicateGroup is one set of photos sharing a file hash, in store order.
type DuplicateGroup struct {
	FileHash string           `json:"fileHash"`
	Photos   []database.Photo `json:"photos"`
}

// DuplicateStatistics summarizes the library's duplicate load.
type DuplicateStatistics struct {
	TotalGroups      int     `json:"totalGroups"`
	TotalDuplicates  int     `json:"totalDuplicates"`
	WastedSpaceBytes int64   `json:"wastedSpaceBytes"`
	WastedSpaceMB    float64 `json:"wastedSpaceMb"`
	LargestGroupSize int     `json:"largestGroupSize"`
}

// FindExactDuplicates returns every group of at least two photos whose
// file hashes match exactly. Photo ids that no longer resolve shrink
// their group; a group left with fewer than two photos is dropped rather
// than reported as a singleton.
func (s *Service) FindExactDuplicates(ctx context.Context) ([]DuplicateGroup, error) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.DedupScansTotal.WithLabelValues("library", status).Inc()
		metrics.DedupScanDuration.WithLabelValues("library").Observe(time.Since(start).Seconds())
	}()

	hashGroups, err := s.db.FindDuplicateHashGroups(ctx)
	if err != nil {
		status = "error"
		return nil, fmt.Errorf("failed to query duplicate hash groups: %w", err)
	}

	groups := make([]DuplicateGroup, 0, len(hashGroups))
	for i := range hashGroups {
		photos, err := s.db.GetPhotosByIDs(ctx, hashGroups[i].PhotoIDs)
		if err != nil {
			status = "error"
			return nil, fmt.Errorf("failed to resolve duplicate group %s: %w", hashGroups[i].FileHash, err)
		}
		if len(photos) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			FileHash: hashGroups[i].FileHash,
			Photos:   photos,
		})
	}

	metrics.DedupGroupsFound.Set(float64(len(groups)))
	logging.Debug("Found %d duplicate groups across the library", len(groups))
	return groups, nil
}

// FindDuplicatesInFolder groups one folder's photos by file hash in
// memory and returns the groups of at least two. Groups come back in
// first-seen order of their hash; photos without a hash are ignored.
func (s *Service) FindDuplicatesInFolder(ctx context.Context, folderID int64) ([]DuplicateGroup, error) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.DedupScansTotal.WithLabelValues("folder", status).Inc()
		metrics.DedupScanDuration.WithLabelValues("folder").Observe(time.Since(start).Seconds())
	}()

	photos, err := s.db.GetPhotosByFolder(ctx, folderID)
	if err != nil {
		status = "error"
		return nil, fmt.Errorf("failed to load photos for folder %d: %w", folderID, err)
	}

	byHash := make(map[string][]database.Photo)
	var order []string
	for i := range photos {
		hash := photos[i].FileHash
		if hash == "" {
			continue
		}
		if _, seen := byHash[hash]; !seen {
			order = append(order, hash)
		}
		byHash[hash] = append(byHash[hash], photos[i])
	}

	var groups []DuplicateGroup
	for _, hash := range order {
		if len(byHash[hash]) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{FileHash: hash, Photos: byHash[hash]})
	}

	logging.Debug("Found %d duplicate groups in folder %d", len(groups), folderID)
	return groups, nil
}

// SuggestDuplicatesToKeep orders a group's photo ids best-first. The
// ordering is a recommendation only; nothing is deleted here.
func (s *Service) SuggestDuplicatesToKeep(group DuplicateGroup) []int64 {
	type scored struct {
		id    int64
		score int64
	}

	ranked := make([]scored, len(group.Photos))
	for i := range group.Photos {
		ranked[i] = scored{id: group.Photos[i].ID, score: scorePhoto(&group.Photos[i])}
	}

	// Stable: equal scores keep their store order.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	ids := make([]int64, len(ranked))
	for i := range ranked {
		ids[i] = ranked[i].id
	}
	return ids
}

// scorePhoto ranks one duplicate. Resolution dominates; metadata
// completeness, rating and favorite status break near-ties.
func scorePhoto(p *database.Photo) int64 {
	var score int64

	if p.Width != nil && p.Height != nil {
		score += int64(*p.Width) * int64(*p.Height)
	}
	if p.DateTaken != nil {
		score += 10
	}
	if p.CameraMake != "" && p.CameraModel != "" {
		score += 5
	}
	if p.ISO != nil || p.Aperture != nil || p.ExposureTime != nil {
		score += 5
	}
	score += int64(p.Rating) * 20
	if p.IsFavorite {
		score += 50
	}

	return score
}

// GetDuplicateStatistics aggregates the current duplicate groups.
// WastedSpaceBytes sums sizes over each group except its first member in
// store order, not its best-scored one.
func (s *Service) GetDuplicateStatistics(ctx context.Context) (*DuplicateStatistics, error) {
	groups, err := s.FindExactDuplicates(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DuplicateStatistics{TotalGroups: len(groups)}
	for i := range groups {
		size := len(groups[i].Photos)
		stats.TotalDuplicates += size - 1
		for j := 1; j < size; j++ {
			stats.WastedSpaceBytes += groups[i].Photos[j].FileSize
		}
		if size > stats.LargestGroupSize {
			stats.LargestGroupSize = size
		}
	}
	stats.WastedSpaceMB = float64(stats.WastedSpaceBytes) / (1024 * 1024)

	metrics.DedupWastedBytes.Set(float64(stats.WastedSpaceBytes))
	return stats, nil
}

// DeleteDuplicate removes one photo from a duplicate group. With
// permanent false the file moves to the trash directory and stays
// recoverable; with permanent true both the file and the row are gone.
func (s *Service) DeleteDuplicate(ctx context.Context, photoID int64, permanent bool) error {
	mode := "trash"
	if permanent {
		mode = "permanent"
	}

	var err error
	if permanent {
		err = s.db.PermanentlyDelete(ctx, photoID)
	} else {
		err = s.db.MoveToTrash(ctx, photoID, s.trashDir)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DedupDeletesTotal.WithLabelValues(mode, status).Inc()

	if err != nil {
		return fmt.Errorf("failed to delete duplicate %d: %w", photoID, err)
	}
	return nil
}

// CalculateHashSimilarity returns 1 − hamming/bits over two hex digests,
// 0.0 on length mismatch or malformed hex. Exact-hash dedup never calls
// this; it is groundwork for perceptual hashes stored in the same column
// format.
func CalculateHashSimilarity(hash1, hash2 string) float64 {
	b1, err := hex.DecodeString(hash1)
	if err != nil {
		return 0.0
	}
	b2, err := hex.DecodeString(hash2)
	if err != nil {
		return 0.0
	}
	if len(b1) != len(b2) || len(b1) == 0 {
		return 0.0
	}

	hamming := 0
	for i := range b1 {
		hamming += bits.OnesCount8(b1[i] ^ b2[i])
	}

	return 1.0 - float64(hamming)/float64(len(b1)*8)
}
