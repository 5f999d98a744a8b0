// Package database provides SQLite database operations for the photo
// library.
//
// It handles storage and retrieval of:
//   - Photo metadata (file stats, EXIF, content hashes)
//   - Folder records and monitoring flags
//   - Tags and albums, including their photo links
//   - Duplicate hash groups and library statistics
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization. The photos.file_path
// unique constraint is the backstop that keeps racing indexer inserts
// from creating duplicate rows.
package database
