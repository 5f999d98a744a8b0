package indexer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"photo-library/internal/database"
	"photo-library/internal/logging"
	"photo-library/internal/media"
)

// fileJob is one image file queued for extraction, hashing and insert.
type fileJob struct {
	path     string
	folderID int64
}

// poolCounts aggregates per-file outcomes across workers.
type poolCounts struct {
	added   atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// runPool fans jobs out to a bounded set of workers and blocks until every
// job is handled. Cancelling ctx drains the remaining jobs unprocessed;
// they appear in no count.
func (idx *Indexer) runPool(ctx context.Context, jobs []fileJob) *poolCounts {
	counts := &poolCounts{}
	if len(jobs) == 0 {
		return counts
	}

	n := idx.numWorkers
	if n > len(jobs) {
		n = len(jobs)
	}

	logging.Debug("Starting %d workers for %d files", n, len(jobs))

	jobCh := make(chan fileJob, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go idx.worker(ctx, i, jobCh, counts, &wg)
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	wg.Wait()
	return counts
}

// worker consumes jobs until the channel closes. After cancellation it
// keeps draining so runPool's producer loop never blocks.
func (idx *Indexer) worker(ctx context.Context, id int, jobCh <-chan fileJob, counts *poolCounts, wg *sync.WaitGroup) {
	defer wg.Done()

	logging.Debug("Worker %d started", id)

	for job := range jobCh {
		select {
		case <-ctx.Done():
			continue
		default:
		}

		idx.processFile(ctx, job, counts)
	}

	logging.Debug("Worker %d finished", id)
}

// processFile runs the per-file pipeline: existence check, metadata
// extraction, content hash, insert. Every failure is logged and counted,
// never propagated; the uniqueness constraint on file_path backstops
// racing inserts of the same path.
func (idx *Indexer) processFile(ctx context.Context, job fileJob, counts *poolCounts) {
	if idx.monitor != nil && !idx.monitor.WaitIfPaused() {
		// Monitor stop means the process is shutting down.
		return
	}

	existing, err := idx.db.GetPhotoByPath(ctx, job.path)
	if err != nil {
		logging.Warn("Failed to check for existing photo %s: %v", job.path, err)
		counts.failed.Add(1)
		return
	}
	if existing != nil {
		logging.Debug("Photo already indexed: %s", job.path)
		counts.skipped.Add(1)
		return
	}

	meta := idx.extractor.Extract(job.path)
	if meta.Err != nil {
		logging.Warn("Failed to read image %s: %v", job.path, meta.Err)
		counts.failed.Add(1)
		return
	}

	hash, err := media.HashFile(job.path)
	if err != nil {
		logging.Warn("Failed to hash %s: %v", job.path, err)
		counts.failed.Add(1)
		return
	}

	photo := photoFromMetadata(meta, hash, job.folderID)
	if _, err := idx.db.AddPhoto(ctx, photo); err != nil {
		if errors.Is(err, database.ErrPhotoExists) {
			counts.skipped.Add(1)
			return
		}
		logging.Warn("Failed to insert photo %s: %v", job.path, err)
		counts.failed.Add(1)
		return
	}

	counts.added.Add(1)
}

// photoFromMetadata merges an extracted metadata record and a content hash
// into a row ready for insertion.
func photoFromMetadata(meta *media.PhotoMetadata, hash string, folderID int64) *database.Photo {
	return &database.Photo{
		FilePath:     meta.FilePath,
		FileName:     meta.FileName,
		FolderID:     &folderID,
		FileSize:     meta.FileSize,
		FileHash:     hash,
		Width:        meta.Width,
		Height:       meta.Height,
		DateTaken:    meta.DateTaken,
		CameraMake:   meta.CameraMake,
		CameraModel:  meta.CameraModel,
		ISO:          meta.ISO,
		Aperture:     meta.Aperture,
		ExposureTime: meta.ExposureTime,
		FocalLength:  meta.FocalLength,
		Latitude:     meta.Latitude,
		Longitude:    meta.Longitude,
		Altitude:     meta.Altitude,
	}
}
