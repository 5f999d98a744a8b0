package database

import "time"

// Folder is a directory known to the library. A folder row exists for the
// root of every indexed tree and for each subdirectory that contained at
// least one image when it was scanned.
type Folder struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Name        string     `json:"name"`
	ParentID    *int64     `json:"parentId,omitempty"`
	DateAdded   time.Time  `json:"dateAdded"`
	DateScanned *time.Time `json:"dateScanned,omitempty"`
	IsMonitored bool       `json:"isMonitored"`
}

// Photo is one indexed image file. Pointer fields are absent when the
// source image carried no usable EXIF for them.
type Photo struct {
	ID             int64      `json:"id"`
	FilePath       string     `json:"filePath"`
	FileName       string     `json:"fileName"`
	FolderID       *int64     `json:"folderId,omitempty"`
	FileSize       int64      `json:"fileSize"`
	FileHash       string     `json:"fileHash,omitempty"`
	PerceptualHash string     `json:"perceptualHash,omitempty"`
	Width          *int       `json:"width,omitempty"`
	Height         *int       `json:"height,omitempty"`
	DateTaken      *time.Time `json:"dateTaken,omitempty"`
	CameraMake     string     `json:"cameraMake,omitempty"`
	CameraModel    string     `json:"cameraModel,omitempty"`
	ISO            *int       `json:"iso,omitempty"`
	Aperture       *float64   `json:"aperture,omitempty"`
	ExposureTime   *float64   `json:"exposureTime,omitempty"`
	FocalLength    *float64   `json:"focalLength,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	Altitude       *float64   `json:"altitude,omitempty"`
	DateAdded      time.Time  `json:"dateAdded"`
	DateModified   time.Time  `json:"dateModified"`
	Rating         int        `json:"rating"`
	IsFavorite     bool       `json:"isFavorite"`
	IsTrashed      bool       `json:"isTrashed"`
}

// Tag is a label photos can carry. Tags may form a hierarchy via ParentID.
type Tag struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parentId,omitempty"`
}

// Album is a virtual, ordered collection of photos.
type Album struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DateCreated  time.Time `json:"dateCreated"`
	DateModified time.Time `json:"dateModified"`
}

// HashGroup is one set of photo ids sharing a file hash, as returned by
// FindDuplicateHashGroups. Groups are derived at query time and never
// persisted.
type HashGroup struct {
	FileHash string  `json:"fileHash"`
	PhotoIDs []int64 `json:"photoIds"`
}

// SearchOptions filters and pages a photo search. Nil pointer fields are
// "don't care". Zero Limit falls back to the default page size.
type SearchOptions struct {
	Keyword       string
	FolderIDs     []int64
	DateFrom      *time.Time
	DateTo        *time.Time
	MinRating     *int
	FavoritesOnly bool
	TagIDs        []int64
	AlbumID       *int64
	IncludeTrash  bool
	Limit         int
	Offset        int
	SortBy        string
	SortDesc      bool
}

// LibraryStats summarizes the whole library for the CLI and /api/stats.
type LibraryStats struct {
	TotalPhotos    int   `json:"totalPhotos"`
	TotalFolders   int   `json:"totalFolders"`
	TotalFavorites int   `json:"totalFavorites"`
	TotalTags      int   `json:"totalTags"`
	TotalAlbums    int   `json:"totalAlbums"`
	TotalTrashed   int   `json:"totalTrashed"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
}
