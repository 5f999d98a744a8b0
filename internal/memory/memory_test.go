package memory

import (
	"math"
	"runtime/debug"
	"testing"
	"time"
)

// tightMonitor returns a monitor whose 1-byte limit makes the very first
// sample cross the critical water mark. The hour-long interval keeps the
// ticker out of the way so tests drive sample directly.
func tightMonitor() *Monitor {
	return NewMonitor(Config{
		MemoryLimitBytes:  1,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})
}

func TestMonitorPausesAtCriticalWaterMark(t *testing.T) {
	m := tightMonitor()
	m.sample()

	if !m.IsPaused() {
		t.Error("IsPaused() = false after sampling against a 1-byte limit")
	}
	if usage := m.GetUsage(); usage < 1 {
		t.Errorf("GetUsage() = %v, want well above 1 with a 1-byte limit", usage)
	}
}

func TestMonitorResumesBelowHighWaterMark(t *testing.T) {
	m := tightMonitor()
	m.sample()
	if !m.IsPaused() {
		t.Fatal("monitor did not pause")
	}

	m.limit = math.MaxInt64
	m.sample()

	if m.IsPaused() {
		t.Error("IsPaused() = true after usage fell below the high water mark")
	}
	if !m.WaitIfPaused() {
		t.Error("WaitIfPaused() = false on a resumed monitor")
	}
}

func TestWaitIfPausedBlocksUntilResume(t *testing.T) {
	m := tightMonitor()
	m.sample()
	if !m.IsPaused() {
		t.Fatal("monitor did not pause")
	}

	done := make(chan bool, 1)
	go func() { done <- m.WaitIfPaused() }()

	select {
	case <-done:
		t.Fatal("WaitIfPaused returned while the monitor was paused")
	case <-time.After(50 * time.Millisecond):
	}

	m.limit = math.MaxInt64
	m.sample()

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("WaitIfPaused() = false after resume, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitIfPaused still blocked after resume")
	}
}

func TestStopUnblocksWaiters(t *testing.T) {
	m := tightMonitor()
	m.sample()
	if !m.IsPaused() {
		t.Fatal("monitor did not pause")
	}

	done := make(chan bool, 1)
	go func() { done <- m.WaitIfPaused() }()

	m.Stop()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("WaitIfPaused() = true after Stop, want false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitIfPaused still blocked after Stop")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })
	debug.SetMemoryLimit(math.MaxInt64)

	m := NewMonitor(DefaultConfig())
	m.Start()
	defer m.Stop()

	if m.limit != 0 {
		t.Fatalf("monitor limit = %d, want 0 with no budget configured", m.limit)
	}
	if !m.WaitIfPaused() {
		t.Error("WaitIfPaused() = false on an inert monitor")
	}
	if m.GetUsage() != 0 {
		t.Errorf("GetUsage() = %v, want 0 with no limit", m.GetUsage())
	}
}

func TestNewMonitorAdoptsGoMemLimit(t *testing.T) {
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })

	want := int64(256) << 20
	debug.SetMemoryLimit(want)

	m := NewMonitor(DefaultConfig())
	if m.limit != want {
		t.Errorf("monitor limit = %d, want GOMEMLIMIT value %d", m.limit, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MemoryLimitBytes != 0 {
		t.Errorf("MemoryLimitBytes = %d, want 0", cfg.MemoryLimitBytes)
	}
	if cfg.HighWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("HighWaterMark %v not below CriticalWaterMark %v", cfg.HighWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval != 5*time.Second {
		t.Errorf("CheckInterval = %v, want 5s", cfg.CheckInterval)
	}
}
