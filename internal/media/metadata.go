package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifDateLayout is the only timestamp layout EXIF defines. Anything
// else in DateTimeOriginal is treated as absent.
const exifDateLayout = "2006:01:02 15:04:05"

// Extractor reads file stats, pixel dimensions and EXIF fields from
// image files. It never writes to the files it inspects.
type Extractor struct{}

// NewExtractor creates a new Extractor instance.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract gathers everything it can about the file at path. The returned
// record is never nil: file stats are populated whenever the file can be
// statted, and a decode failure sets Err while leaving the image-derived
// fields zero.
func (e *Extractor) Extract(path string) *PhotoMetadata {
	meta := &PhotoMetadata{
		FilePath: path,
		FileName: filepath.Base(path),
	}

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		meta.Err = fmt.Errorf("failed to stat file: %w", err)
		return meta
	}
	meta.FileSize = info.Size()
	meta.ModTime = info.ModTime()

	dims, err := GetImageDimensions(path)
	if err != nil {
		meta.Err = fmt.Errorf("failed to decode image: %w", err)
		return meta
	}
	meta.Width = &dims.Width
	meta.Height = &dims.Height

	// EXIF is best effort. Files without it (PNGs, screenshots) are
	// perfectly good photos.
	e.readEXIF(path, meta)

	return meta
}

func (e *Extractor) readEXIF(path string, meta *PhotoMetadata) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Debug("Could not open %s for EXIF read: %v", path, err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close %s after EXIF read: %v", path, err)
		}
	}()

	x, err := exif.Decode(file)
	if err != nil {
		logging.Debug("No EXIF data in %s: %v", path, err)
		return
	}

	meta.CameraMake = exifString(x, exif.Make)
	meta.CameraModel = exifString(x, exif.Model)
	meta.DateTaken = exifDate(x)
	meta.ISO = exifInt(x, exif.ISOSpeedRatings)
	meta.Aperture = exifRational(x, exif.FNumber)
	meta.ExposureTime = exifRational(x, exif.ExposureTime)
	meta.FocalLength = exifRational(x, exif.FocalLength)

	readGPS(x, meta)
}

// cleanEXIFString strips the whitespace and NUL padding some cameras
// leave in string tags.
func cleanEXIFString(s string) string {
	return strings.Trim(s, "\x00 \t\r\n")
}

// exifString returns the cleaned string value of a tag, or "" when the
// tag is absent or not a string.
func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	val, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return cleanEXIFString(val)
}

func exifInt(x *exif.Exif, name exif.FieldName) *int {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	val, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &val
}

// exifRational converts the first rational of a tag to float64. A zero
// denominator reads as absent.
func exifRational(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	return ratToFloat(tag, 0)
}

func ratToFloat(tag *tiff.Tag, index int) *float64 {
	num, den, err := tag.Rat2(index)
	if err != nil || den == 0 {
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

// exifDate parses DateTimeOriginal. Cameras that write any other layout
// get a nil date rather than a wrong one.
func exifDate(x *exif.Exif) *time.Time {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return nil
	}
	raw, err := tag.StringVal()
	if err != nil {
		return nil
	}
	parsed, err := time.Parse(exifDateLayout, cleanEXIFString(raw))
	if err != nil {
		logging.Debug("Unparseable DateTimeOriginal %q: %v", raw, err)
		return nil
	}
	return &parsed
}

// readGPS fills in latitude, longitude and altitude. Each coordinate
// needs both its value and its reference tag; malformed or partial
// blocks contribute nothing.
func readGPS(x *exif.Exif, meta *PhotoMetadata) {
	if ref := exifString(x, exif.GPSLatitudeRef); ref != "" {
		if lat := dmsToDegrees(x, exif.GPSLatitude); lat != nil {
			if ref == "S" {
				*lat = -*lat
			}
			meta.Latitude = lat
		}
	}

	if ref := exifString(x, exif.GPSLongitudeRef); ref != "" {
		if lon := dmsToDegrees(x, exif.GPSLongitude); lon != nil {
			if ref == "W" {
				*lon = -*lon
			}
			meta.Longitude = lon
		}
	}

	altTag, err := x.Get(exif.GPSAltitude)
	if err != nil {
		return
	}
	refTag, err := x.Get(exif.GPSAltitudeRef)
	if err != nil {
		return
	}
	alt := ratToFloat(altTag, 0)
	ref, refErr := refTag.Int(0)
	if alt == nil || refErr != nil {
		return
	}
	// Reference 1 means below sea level.
	if ref == 1 {
		*alt = -*alt
	}
	meta.Altitude = alt
}

// dmsToDegrees folds a degrees/minutes/seconds rational triple into
// decimal degrees.
func dmsToDegrees(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}

	deg := ratToFloat(tag, 0)
	min := ratToFloat(tag, 1)
	sec := ratToFloat(tag, 2)
	if deg == nil || min == nil || sec == nil {
		return nil
	}

	val := *deg + *min/60.0 + *sec/3600.0
	return &val
}
