// Package handlers provides HTTP request handlers for the photo library API.
//
// It includes handlers for:
//   - Index and refresh triggers
//   - Photo metadata, files and thumbnails
//   - Search with combinable filters
//   - Duplicate groups, statistics and keep suggestions
//   - Tags and albums
//   - Health checks, stats and version info
package handlers
