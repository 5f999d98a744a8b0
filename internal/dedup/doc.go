// Package dedup detects photos whose file contents are byte-identical.
//
// Grouping rides on the content hash the indexer stores per photo: the
// library-wide scan asks the store for hash groups and hydrates them,
// the per-folder scan groups one folder's rows in memory. Suggestions
// rank a group's members by resolution, metadata completeness, rating
// and favorite status without ever deleting anything; deletion is a
// separate, explicit call that defaults to the recoverable trash.
package dedup
