package memory

import (
	"math"
	"runtime/debug"
	"strconv"
	"testing"
)

func TestConfigureFromEnv(t *testing.T) {
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })

	var gib = int64(1) << 30

	tests := []struct {
		name  string
		limit string
		ratio string
		want  ConfigResult
	}{
		{
			name: "no environment",
			want: ConfigResult{Source: "none"},
		},
		{
			name:  "limit with default ratio",
			limit: strconv.FormatInt(gib, 10),
			want: ConfigResult{
				Configured:     true,
				Source:         "MEMORY_LIMIT",
				ContainerLimit: gib,
				GoMemLimit:     int64(float64(gib) * DefaultMemoryRatio),
				Ratio:          DefaultMemoryRatio,
			},
		},
		{
			name:  "limit with custom ratio",
			limit: strconv.FormatInt(gib, 10),
			ratio: "0.5",
			want: ConfigResult{
				Configured:     true,
				Source:         "MEMORY_LIMIT",
				ContainerLimit: gib,
				GoMemLimit:     gib / 2,
				Ratio:          0.5,
			},
		},
		{
			name:  "ratio of exactly one",
			limit: strconv.FormatInt(gib, 10),
			ratio: "1.0",
			want: ConfigResult{
				Configured:     true,
				Source:         "MEMORY_LIMIT",
				ContainerLimit: gib,
				GoMemLimit:     gib,
				Ratio:          1.0,
			},
		},
		{
			name:  "ratio above one falls back to default",
			limit: strconv.FormatInt(gib, 10),
			ratio: "1.5",
			want: ConfigResult{
				Configured:     true,
				Source:         "MEMORY_LIMIT",
				ContainerLimit: gib,
				GoMemLimit:     int64(float64(gib) * DefaultMemoryRatio),
				Ratio:          DefaultMemoryRatio,
			},
		},
		{
			name:  "zero ratio falls back to default",
			limit: strconv.FormatInt(gib, 10),
			ratio: "0",
			want: ConfigResult{
				Configured:     true,
				Source:         "MEMORY_LIMIT",
				ContainerLimit: gib,
				GoMemLimit:     int64(float64(gib) * DefaultMemoryRatio),
				Ratio:          DefaultMemoryRatio,
			},
		},
		{
			name:  "unparseable ratio falls back to default",
			limit: strconv.FormatInt(gib, 10),
			ratio: "most of it",
			want: ConfigResult{
				Configured:     true,
				Source:         "MEMORY_LIMIT",
				ContainerLimit: gib,
				GoMemLimit:     int64(float64(gib) * DefaultMemoryRatio),
				Ratio:          DefaultMemoryRatio,
			},
		},
		{
			name:  "unparseable limit",
			limit: "half a gig",
			want:  ConfigResult{Source: "none"},
		},
		{
			name:  "negative limit",
			limit: "-1",
			want:  ConfigResult{Source: "none"},
		},
		{
			name:  "zero limit",
			limit: "0",
			want:  ConfigResult{Source: "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.limit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			got := ConfigureFromEnv()
			if got != tt.want {
				t.Errorf("ConfigureFromEnv() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigureFromEnvHonorsGoMemLimit(t *testing.T) {
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })

	const want = int64(512) << 20
	debug.SetMemoryLimit(want)
	t.Setenv("GOMEMLIMIT", "512MiB")
	t.Setenv("MEMORY_LIMIT", "1073741824")

	got := ConfigureFromEnv()
	if !got.Configured || got.Source != "GOMEMLIMIT" || got.GoMemLimit != want {
		t.Errorf("ConfigureFromEnv() = %+v, want GOMEMLIMIT honored at %d bytes", got, want)
	}
	if got.ContainerLimit != 0 {
		t.Errorf("ContainerLimit = %d, want 0 when GOMEMLIMIT wins", got.ContainerLimit)
	}
}

func TestConfigureFromEnvGoMemLimitOff(t *testing.T) {
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })

	// GOMEMLIMIT present in the environment but off at runtime: reported as
	// the source, yet nothing is configured.
	debug.SetMemoryLimit(math.MaxInt64)
	t.Setenv("GOMEMLIMIT", "1GiB")

	got := ConfigureFromEnv()
	if got.Configured || got.Source != "GOMEMLIMIT" || got.GoMemLimit != 0 {
		t.Errorf("ConfigureFromEnv() = %+v, want unconfigured with source GOMEMLIMIT", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{5 << 30, "5.0 GiB"},
		{3 << 40, "3.0 TiB"},
		{int64(1) << 62, "4.0 EiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
