package media

import (
	"io/fs"
	"path/filepath"
	"time"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Scanner walks the file system looking for image files. It holds no
// state and never modifies anything it visits.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan finds image files under root and groups them by their containing
// directory. Keys are absolute paths; directories holding no images are
// omitted. With recursive false only root's direct children are
// considered.
//
// A missing or unreadable root yields an empty map and a nil error.
// Callers that must distinguish "empty" from "gone" stat the root
// themselves before scanning; the indexer does.
func (s *Scanner) Scan(root string, recursive bool) (map[string][]string, error) {
	mode := "flat"
	if recursive {
		mode = "recursive"
	}

	start := time.Now()
	status := "success"
	result := make(map[string][]string)

	defer func() {
		metrics.ScannerScansTotal.WithLabelValues(mode, status).Inc()
		metrics.ScannerScanDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		metrics.ScannerImagesFound.WithLabelValues(mode).Observe(float64(countImages(result)))
	}()

	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		logging.Error("failed to resolve scan root %s: %v", root, err)
		status = "error"
		return result, nil
	}

	info, err := filesystem.StatWithRetry(absRoot, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Error("scan root does not exist: %s", absRoot)
		status = "error"
		return result, nil
	}
	if !info.IsDir() {
		logging.Error("scan root is not a directory: %s", absRoot)
		status = "error"
		return result, nil
	}

	if recursive {
		s.walkTree(absRoot, result)
	} else {
		s.listDirectory(absRoot, result)
	}

	logging.Info("Scan of %s complete: %d images in %d folders in %v",
		absRoot, countImages(result), len(result), time.Since(start).Round(time.Millisecond))

	return result, nil
}

// walkTree descends the whole tree under root. Unreadable subtrees are
// logged and skipped rather than aborting the scan.
func (s *Scanner) walkTree(root string, result map[string][]string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("skipping unreadable path during scan %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if IsImageFile(path) {
			dir := filepath.Dir(path)
			result[dir] = append(result[dir], path)
		}
		return nil
	})
	if err != nil {
		logging.Error("failed to walk %s: %v", root, err)
	}
}

// listDirectory collects images among root's direct children only.
func (s *Scanner) listDirectory(root string, result map[string][]string) {
	entries, err := filesystem.ReadDirWithRetry(root, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Error("failed to read directory %s: %v", root, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if IsImageFile(path) {
			result[root] = append(result[root], path)
		}
	}
}

func countImages(result map[string][]string) int {
	total := 0
	for _, files := range result {
		total += len(files)
	}
	return total
}
