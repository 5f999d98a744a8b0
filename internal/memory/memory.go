package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Config tunes the memory monitor.
type Config struct {
	// MemoryLimitBytes is the budget the monitor measures against.
	// 0 means take the limit from GOMEMLIMIT, or disable backpressure
	// when that is unset too.
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of the limit below which a paused
	// monitor resumes.
	HighWaterMark float64

	// CriticalWaterMark is the fraction of the limit at which the
	// monitor pauses heavy work.
	CriticalWaterMark float64

	// CheckInterval is how often usage is sampled.
	CheckInterval time.Duration
}

// DefaultConfig returns the monitor settings used by the server.
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage against a limit and exposes a pause signal
// that indexing workers block on. Between the critical and high water
// marks the state is sticky: a pause ends only once usage falls below
// the high water mark, so workers do not flap at the boundary.
type Monitor struct {
	cfg   Config
	limit int64
	stop  chan struct{}

	mu       sync.RWMutex
	alloc    uint64
	paused   bool
	resumeCh chan struct{} // closed and replaced on each resume
}

// NewMonitor builds a Monitor. With no limit in cfg it falls back to
// GOMEMLIMIT; with neither it stays inert and WaitIfPaused never blocks.
func NewMonitor(cfg Config) *Monitor {
	limit := cfg.MemoryLimitBytes
	if limit == 0 {
		if goLimit := debug.SetMemoryLimit(-1); goLimit > 0 && goLimit < math.MaxInt64 {
			limit = goLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Warn("Memory monitor has no limit, backpressure disabled")
	}

	metrics.MemoryLimitBytes.Set(float64(limit))

	return &Monitor{
		cfg:      cfg,
		limit:    limit,
		stop:     make(chan struct{}),
		resumeCh: make(chan struct{}),
	}
}

// Start launches the sampling loop. Without a limit it does nothing.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sample()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases every goroutine blocked in WaitIfPaused.
func (m *Monitor) Stop() {
	close(m.stop)
}

func (m *Monitor) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.MemoryUsageBytes.Set(float64(ms.Alloc))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alloc = ms.Alloc

	usage := float64(ms.Alloc) / float64(m.limit)
	switch {
	case !m.paused && usage >= m.cfg.CriticalWaterMark:
		logging.Warn("Memory at %.1f%% of limit, pausing indexing", usage*100)
		m.paused = true
		metrics.MemoryThrottleEvents.Inc()
		metrics.MemoryGCRuns.Inc()
		go runtime.GC()
	case m.paused && usage < m.cfg.HighWaterMark:
		logging.Info("Memory back at %.1f%% of limit, resuming", usage*100)
		m.paused = false
		close(m.resumeCh)
		m.resumeCh = make(chan struct{})
	}
}

// WaitIfPaused blocks while the monitor is paused. It returns true once
// work may proceed and false if the monitor was stopped while waiting.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resume := m.resumeCh
	m.mu.RUnlock()

	select {
	case <-resume:
		return true
	case <-m.stop:
		return false
	}
}

// IsPaused reports whether the monitor is currently holding work back.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// GetUsage returns the last sampled heap allocation as a fraction of the
// limit, or 0 when no limit is configured.
func (m *Monitor) GetUsage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.alloc) / float64(m.limit)
}
