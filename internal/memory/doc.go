// Package memory keeps the process inside a container memory budget.
//
// Go discovers GOMAXPROCS from cgroup CPU quotas on its own, but it never
// reads the cgroup memory limit: GOMEMLIMIT has to be set explicitly or the
// heap grows until the kernel OOM-kills the container. [ConfigureFromEnv]
// closes that gap. Called before the first large allocations, it checks the
// environment in order:
//
//   - GOMEMLIMIT: honored untouched when set; the runtime already parsed it.
//   - MEMORY_LIMIT: container limit in bytes, usually injected through the
//     Kubernetes Downward API (resourceFieldRef: limits.memory). It is
//     scaled by MEMORY_RATIO and installed via debug.SetMemoryLimit.
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap, default
//     0.85. GOMEMLIMIT only governs heap memory, so the remainder is
//     headroom for libvips buffers, CGO allocations, and goroutine stacks.
//     Lower it for thumbnail-heavy workloads.
//
// GOMEMLIMIT is a soft limit: nearing it makes the collector run harder, it
// does not make allocations fail. For bulk indexing that is not enough on
// its own, so [Monitor] adds backpressure on top. It samples heap usage on
// an interval and pauses indexing work at the critical water mark; the pause
// holds until usage drops below the lower high water mark, which stops
// workers from flapping when usage sits near the boundary. Workers gate
// themselves with WaitIfPaused:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	// inside each worker, before decoding the next file:
//	if !monitor.WaitIfPaused() {
//	    return // monitor stopped, shut down
//	}
//
// Stop releases every blocked worker with a false return so shutdown never
// hangs on a paused pool.
package memory
