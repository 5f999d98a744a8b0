// Package indexer populates the photo library from the filesystem.
//
// IndexFolder scans a directory tree, extracts metadata and a content hash
// per image, and inserts photo rows keyed by file path. RefreshIndex
// rescans the folders flagged as monitored and indexes only paths the
// store does not already know; it never removes rows for vanished files.
//
// Per-file work fans out across a bounded worker pool constructed inside
// each call and torn down on return. Re-indexing a known path is a no-op:
// the path lookup skips it, and the uniqueness constraint on file_path
// resolves racing inserts to exactly one winner.
//
// Watcher layers fsnotify on top of RefreshIndex: events from monitored
// folders are debounced into a single refresh once the filesystem goes
// quiet.
package indexer
