/*
Package workers provides utilities for determining optimal worker pool sizes
in containerized environments.

When running in containers, the number of available CPUs may be limited by
cgroup constraints. Go 1.19+ sets GOMAXPROCS from the container CPU limit,
while runtime.NumCPU() still reports the host machine's CPU count. This
package sizes worker pools from GOMAXPROCS so indexing runs respect the
container's actual allowance.

Basic usage:

	import "photo-library/internal/workers"

	// CPU-intensive work (hashing, image decode): 1 worker per CPU
	n := workers.ForCPU(8)

	// I/O-bound work (stat, directory reads): 2 workers per CPU
	n := workers.ForIO(16)

	// Mixed work (the index pipeline: read + decode + hash + insert)
	n := workers.ForMixed(12)

All functions respect the INDEX_WORKERS environment variable, allowing
operators to override the automatic calculation:

	INDEX_WORKERS=4 photo-library index /photos -recursive

The indexer only consults this package when its configured worker count is
explicitly set to 0 (auto); the default worker count is fixed and
deterministic.

All functions are safe for concurrent use.
*/
package workers
