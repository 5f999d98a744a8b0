package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailSize is the bounding box thumbnails are fitted into.
	ThumbnailSize = 200

	// thumbnailQuality is the JPEG quality for encoded thumbnails.
	thumbnailQuality = 80
)

// ThumbnailGenerator produces and caches small JPEG previews of photos.
// The cache key is derived from the source path, so a photo keeps its
// thumbnail across restarts until the path changes.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
	mu       sync.Mutex
}

// NewThumbnailGenerator creates a generator writing to cacheDir. When
// disabled, Thumbnail returns an error without touching the disk.
func NewThumbnailGenerator(cacheDir string, enabled bool) *ThumbnailGenerator {
	if enabled {
		logging.Debug("ThumbnailGenerator: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("ThumbnailGenerator: disabled")
	}
	return &ThumbnailGenerator{
		cacheDir: cacheDir,
		enabled:  enabled,
	}
}

// IsEnabled reports whether thumbnail generation is turned on.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// CachePath returns where the thumbnail for photoPath lives, whether or
// not it has been generated yet.
func (t *ThumbnailGenerator) CachePath(photoPath string) string {
	hash := md5.Sum([]byte(photoPath))
	return filepath.Join(t.cacheDir, fmt.Sprintf("%x.jpg", hash))
}

// Thumbnail returns the path of a cached 200x200 JPEG preview for the
// photo at photoPath, generating it on first request. Concurrent
// requests for the same photo generate it once.
func (t *ThumbnailGenerator) Thumbnail(ctx context.Context, photoPath string) (string, error) {
	if !t.enabled {
		return "", fmt.Errorf("thumbnails disabled")
	}

	if _, err := os.Stat(photoPath); err != nil {
		return "", fmt.Errorf("file not accessible: %w", err)
	}

	cachePath := t.CachePath(photoPath)
	if _, err := os.Stat(cachePath); err == nil {
		logging.Debug("Thumbnail cache hit: %s", photoPath)
		metrics.ThumbnailCacheHits.Inc()
		return cachePath, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Another request may have generated it while we waited on the lock.
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	err := t.generate(photoPath, cachePath)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(status).Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	return cachePath, nil
}

func (t *ThumbnailGenerator) generate(photoPath, cachePath string) error {
	logging.Debug("Thumbnail generating: %s", photoPath)

	img, err := t.loadSource(photoPath)
	if err != nil {
		return fmt.Errorf("thumbnail generation failed: %w", err)
	}

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to cache thumbnail %s: %w", cachePath, err)
	}

	logging.Debug("Thumbnail cached: %s", cachePath)
	return nil
}

// loadSource decodes the photo at a size suitable for thumbnailing.
// libvips shrinks during decode, which keeps large originals out of
// memory; the pure-Go path constrains the decode instead.
func (t *ThumbnailGenerator) loadSource(photoPath string) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := LoadImageWithVips(photoPath, ThumbnailSize, ThumbnailSize)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, falling back", photoPath, err)
	}

	return LoadImageConstrained(photoPath, MaxImageDimension, MaxImagePixels)
}
