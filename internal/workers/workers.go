package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count sizes a worker pool from the CPUs available to the process.
// GOMAXPROCS tracks the container CPU quota, so the result respects
// cgroup limits without any extra probing. multiplier scales the CPU
// count for the workload (see ForCPU, ForIO, ForMixed) and limit, when
// positive, caps the result. INDEX_WORKERS overrides the calculation.
func Count(multiplier float64, limit int) int {
	n := overrideFromEnv()
	if n == 0 {
		n = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// overrideFromEnv returns the INDEX_WORKERS value, or 0 when unset or
// unusable.
func overrideFromEnv() int {
	raw := os.Getenv("INDEX_WORKERS")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// ForCPU sizes a pool for CPU-bound work, one worker per CPU.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO sizes a pool for I/O-bound work, two workers per CPU.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed sizes a pool for mixed work at 1.5 workers per CPU. Indexing
// is the canonical mixed workload: hashing is CPU-heavy while EXIF reads
// and stat calls wait on the disk.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
