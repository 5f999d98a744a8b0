package media

import (
	"fmt"
	"image"
	"math"
	"os"

	"photo-library/internal/logging"

	// Pixel decoders registered for image.DecodeConfig and imaging.Open.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension caps the width or height of a decoded image.
	MaxImageDimension = 4096

	// MaxImagePixels caps the decoded area. 20MP is roughly 80MB as RGBA,
	// which keeps a handful of concurrent decodes inside the memory budget.
	MaxImagePixels = 20_000_000
)

// ImageDimensions holds a width and height read from an image header.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads dimensions from the image header without
// decoding pixel data.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// LoadImageConstrained opens an image and downscales anything larger than
// maxDimension on a side or maxPixels in area. Without the cap, oversized
// camera files balloon into multi-hundred-megabyte RGBA buffers during
// indexing.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		// No readable header. Let the full decoder have a go.
		logging.Debug("Could not size %s (%v), decoding directly", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := constrainDimensions(dims.Width, dims.Height, maxDimension, maxPixels)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if width == dims.Width && height == dims.Height {
		return img, nil
	}

	logging.Info("Downscaling large image %s from %dx%d to %dx%d",
		path, dims.Width, dims.Height, width, height)
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// constrainDimensions scales a width and height to honor the per-side and
// total-pixel caps, preserving aspect ratio. Dimensions already inside the
// caps come back unchanged.
func constrainDimensions(width, height, maxDimension, maxPixels int) (int, int) {
	w, h := width, height

	if w > maxDimension || h > maxDimension {
		if w > h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
	}

	if w*h > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(w*h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}

	return w, h
}
