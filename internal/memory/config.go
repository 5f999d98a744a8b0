package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"photo-library/internal/logging"
)

// DefaultMemoryRatio is the fraction of the container memory limit handed
// to the Go heap. The remainder is headroom for libvips buffers, decode
// scratch space, and goroutine stacks, none of which GOMEMLIMIT governs.
const DefaultMemoryRatio = 0.85

// ConfigResult reports what ConfigureFromEnv decided.
type ConfigResult struct {
	Configured     bool    // whether a Go memory limit is in effect
	Source         string  // "GOMEMLIMIT", "MEMORY_LIMIT", or "none"
	ContainerLimit int64   // container limit in bytes, 0 when unknown
	GoMemLimit     int64   // effective GOMEMLIMIT in bytes, 0 when unset
	Ratio          float64 // ratio applied to the container limit, 0 when not applicable
}

// ConfigureFromEnv derives GOMEMLIMIT from the container's memory limit.
// Call it early in main, before the first large allocations.
//
// An explicit GOMEMLIMIT wins and is reported as-is. Otherwise MEMORY_LIMIT
// (bytes, typically injected through the Kubernetes Downward API) is scaled
// by MEMORY_RATIO and installed with debug.SetMemoryLimit. With neither set,
// the runtime default of no limit stands.
func ConfigureFromEnv() ConfigResult {
	if os.Getenv("GOMEMLIMIT") != "" {
		res := ConfigResult{Source: "GOMEMLIMIT"}
		// The runtime parsed the variable at startup; read the value back.
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			res.Configured = true
			res.GoMemLimit = limit
			logging.Info("Honoring GOMEMLIMIT from environment: %s", formatBytes(limit))
		}
		return res
	}

	limitStr := os.Getenv("MEMORY_LIMIT")
	if limitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT alone")
		return ConfigResult{Source: "none"}
	}
	containerLimit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring MEMORY_LIMIT %q: not a positive byte count", limitStr)
		return ConfigResult{Source: "none"}
	}

	ratio := ratioFromEnv()
	goLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goLimit)
	logging.Info("Set GOMEMLIMIT to %s (%.0f%% of %s container limit)",
		formatBytes(goLimit), ratio*100, formatBytes(containerLimit))

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goLimit,
		Ratio:          ratio,
	}
}

// ratioFromEnv reads MEMORY_RATIO, falling back to DefaultMemoryRatio when
// the variable is absent, unparseable, or outside (0, 1].
func ratioFromEnv() float64 {
	raw := os.Getenv("MEMORY_RATIO")
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Warn("Ignoring MEMORY_RATIO %q: %v", raw, err)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1 {
		logging.Warn("Ignoring MEMORY_RATIO %v: outside (0, 1]", ratio)
		return DefaultMemoryRatio
	}
	return ratio
}

// formatBytes renders a byte count with binary units for log lines.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n)
	suffix := ""
	for _, s := range []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"} {
		value /= unit
		suffix = s
		if value < unit {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
