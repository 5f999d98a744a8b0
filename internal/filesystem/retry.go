// Package filesystem wraps os calls that touch network mounts. NFS
// servers can hand back stale file handle errors (ESTALE) after a
// re-export or failover; a short retry usually clears them.
package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// RetryConfig bounds how persistently an operation is retried.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig retries three times, backing off from 50ms to a
// 500ms cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isNFSStaleError reports whether err is, or wraps, ESTALE.
func isNFSStaleError(err error) bool {
	return errors.Is(err, syscall.ESTALE)
}

// withRetry runs op until it succeeds, fails with a non-stale error, or
// exhausts the configured retries. Only stale handle errors are
// retried; everything else returns to the caller immediately.
func withRetry(opName, path string, config RetryConfig, op func() error) error {
	backoff := config.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", opName, attempt, path)
				metrics.FilesystemRetrySuccess.WithLabelValues(opName).Inc()
			}
			return nil
		}
		if !isNFSStaleError(err) {
			return err
		}

		lastErr = err
		metrics.FilesystemStaleErrors.WithLabelValues(opName).Inc()

		if attempt == config.MaxRetries {
			break
		}

		metrics.FilesystemRetryAttempts.WithLabelValues(opName).Inc()
		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			opName, path, backoff, attempt+1, config.MaxRetries)
		time.Sleep(backoff)

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", opName, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetryFailures.WithLabelValues(opName).Inc()
	return lastErr
}

// StatWithRetry is os.Stat with stale handle retries.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, config, func() error {
		var statErr error
		info, statErr = os.Stat(path)
		return statErr
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// OpenWithRetry is os.Open with stale handle retries.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	var file *os.File
	err := withRetry("open", path, config, func() error {
		var openErr error
		file, openErr = os.Open(path)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ReadDirWithRetry is os.ReadDir with stale handle retries. On failure
// any partial listing is discarded.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	var entries []os.DirEntry
	err := withRetry("readdir", path, config, func() error {
		var readErr error
		entries, readErr = os.ReadDir(path)
		return readErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
