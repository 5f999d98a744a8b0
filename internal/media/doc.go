// Package media provides the file-level building blocks of the photo
// library: directory scanning, metadata and EXIF extraction, content
// hashing, and thumbnail generation.
//
// The Scanner and Extractor are pure readers; nothing in this package
// writes to a source file. Thumbnails are cached on disk keyed by the
// source path, with a libvips fast path and a pure-Go fallback.
package media
