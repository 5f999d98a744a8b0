package media

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// imageExtensions lists the formats the library indexes. Anything else
// falls through to the MIME table before being rejected.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true, ".webp": true,
}

// IsImageFile reports whether path names a supported image: a known
// extension, or an extension the MIME table maps to image/*. RAW and
// video formats are out of scope.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if imageExtensions[ext] {
		return true
	}
	return strings.HasPrefix(mime.TypeByExtension(ext), "image/")
}

// PhotoMetadata is everything the indexer learns about one file. File
// stats are always valid; image-derived fields are nil or empty when the
// file could not be decoded, with Err recording why.
type PhotoMetadata struct {
	FilePath string
	FileName string
	FileSize int64
	ModTime  time.Time

	Width  *int
	Height *int

	DateTaken    *time.Time
	CameraMake   string
	CameraModel  string
	ISO          *int
	Aperture     *float64
	ExposureTime *float64
	FocalLength  *float64
	Latitude     *float64
	Longitude    *float64
	Altitude     *float64

	Err error
}
