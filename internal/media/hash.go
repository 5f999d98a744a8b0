package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
)

// hashBlockSize is the read granularity for content hashing. SHA-256
// digests are identical regardless of block size; 64 KiB keeps memory
// flat no matter how large the file is.
const hashBlockSize = 64 * 1024

// HashFile computes the SHA-256 digest of the file at path, streaming
// the contents in fixed-size blocks. The result is 64 lowercase hex
// characters.
func HashFile(path string) (string, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close %s after hashing: %v", path, err)
		}
	}()

	hasher := sha256.New()
	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(hasher, file, buf); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
