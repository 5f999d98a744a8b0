package handlers

import (
	"sync/atomic"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/dedup"
	"photo-library/internal/indexer"
	"photo-library/internal/media"
	"photo-library/internal/startup"
)

// Handlers is the REST glue over the library core. Every handler is a
// thin pass-through: decode, validate, call the service, encode.
type Handlers struct {
	db      *database.Database
	indexer *indexer.Indexer
	dedup   *dedup.Service
	thumbs  *media.ThumbnailGenerator

	libraryDir       string
	trashEnabled     bool
	defaultRecursive bool

	startTime time.Time

	// indexing guards the index/refresh triggers; only one run at a time.
	indexing atomic.Bool
}

func New(db *database.Database, idx *indexer.Indexer, config *startup.Config) *Handlers {
	return &Handlers{
		db:               db,
		indexer:          idx,
		dedup:            dedup.NewService(db, config.TrashDir),
		thumbs:           media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled),
		libraryDir:       config.LibraryDir,
		trashEnabled:     config.TrashEnabled,
		defaultRecursive: config.RecursiveIndex,
		startTime:        time.Now(),
	}
}
