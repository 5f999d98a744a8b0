package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"photo-library/internal/logging"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables, injected with -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the binary's version and platform details.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds the application configuration resolved at startup.
type Config struct {
	LibraryDir      string
	DataDir         string
	CacheDir        string
	Port            string
	MetricsPort     string
	IndexWorkers    int
	RecursiveIndex  bool
	WatchDebounce   time.Duration
	LogMediaFiles   bool
	LogHealthChecks bool
	MetricsEnabled  bool
	APIPasswordHash string
	CORSOrigins     []string

	// Derived paths
	DatabasePath string
	ThumbnailDir string
	TrashDir     string

	// Features that degrade gracefully when their directory is unusable
	ThumbnailsEnabled bool
	TrashEnabled      bool
	AuthEnabled       bool
}

// LoadConfig reads configuration from the environment, resolves and
// prepares the data directories, and logs the startup report. A .env file
// in the working directory is merged in first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded environment from .env")
	}

	printBanner()
	logSystemInfo()
	logSection("CONFIGURATION")

	cfg := &Config{
		LibraryDir:      getEnv("LIBRARY_DIR", "/photos"),
		DataDir:         getEnv("DATA_DIR", "/data"),
		CacheDir:        getEnv("CACHE_DIR", "/cache"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		IndexWorkers:    getEnvInt("INDEX_WORKERS", 4),
		RecursiveIndex:  getEnvBool("INDEX_RECURSIVE", true),
		LogMediaFiles:   getEnvBool("LOG_MEDIA_FILES", false),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		APIPasswordHash: os.Getenv("API_PASSWORD_HASH"),
		CORSOrigins:     splitAndTrim(getEnv("CORS_ORIGINS", "*")),
	}
	cfg.AuthEnabled = cfg.APIPasswordHash != ""

	debounceRaw := getEnv("WATCH_DEBOUNCE", "2s")

	logging.Info("  LIBRARY_DIR:      %s", cfg.LibraryDir)
	logging.Info("  DATA_DIR:         %s", cfg.DataDir)
	logging.Info("  CACHE_DIR:        %s", cfg.CacheDir)
	logging.Info("  PORT:             %s", cfg.Port)
	logging.Info("  METRICS_PORT:     %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:  %v", cfg.MetricsEnabled)
	logging.Info("  INDEX_WORKERS:    %d", cfg.IndexWorkers)
	logging.Info("  INDEX_RECURSIVE:  %v", cfg.RecursiveIndex)
	logging.Info("  WATCH_DEBOUNCE:   %s", debounceRaw)
	logging.Info("  LOG_MEDIA_FILES:  %v", cfg.LogMediaFiles)
	logging.Info("  LOG_HEALTH_CHECKS:%v", cfg.LogHealthChecks)
	logging.Info("  CORS_ORIGINS:     %s", strings.Join(cfg.CORSOrigins, ", "))
	logging.Info("  API auth:         %s", enabledString(cfg.AuthEnabled))
	logging.Info("  LOG_LEVEL:        %s", logging.GetLevel())

	if cfg.IndexWorkers < 1 {
		logging.Warn("  Invalid INDEX_WORKERS, using default: 4")
		cfg.IndexWorkers = 4
	}

	var err error
	cfg.WatchDebounce, err = time.ParseDuration(debounceRaw)
	if err != nil {
		logging.Warn("  Invalid WATCH_DEBOUNCE, using default: 2s")
		cfg.WatchDebounce = 2 * time.Second
	}

	logging.Info("")
	logSection("DIRECTORY SETUP")

	if cfg.LibraryDir, err = absPath(cfg.LibraryDir, "Library"); err != nil {
		return nil, err
	}
	if cfg.DataDir, err = absPath(cfg.DataDir, "Data"); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = absPath(cfg.CacheDir, "Cache"); err != nil {
		return nil, err
	}

	cfg.DatabasePath = filepath.Join(cfg.DataDir, "photos.db")
	cfg.ThumbnailDir = filepath.Join(cfg.CacheDir, "thumbnails")
	cfg.TrashDir = filepath.Join(cfg.DataDir, "trash")

	// The library may be mounted later; warn rather than fail.
	if err := ensureDirectory(cfg.LibraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
	}

	// The database cannot run without a writable data directory.
	if err := ensureDirectory(cfg.DataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := testWriteAccess(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	cfg.ThumbnailsEnabled = setupOptionalDir(cfg.ThumbnailDir, "thumbnails")
	cfg.TrashEnabled = setupOptionalDir(cfg.TrashDir, "trash")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:   ENABLED (required)")
	logging.Info("    Thumbnails: %s", enabledString(cfg.ThumbnailsEnabled))
	logging.Info("    Trash:      %s", enabledString(cfg.TrashEnabled))
	logging.Info("    Metrics:    %s", enabledString(cfg.MetricsEnabled))
	logging.Info("    API auth:   %s", enabledString(cfg.AuthEnabled))

	return cfg, nil
}

// absPath resolves a configured directory to an absolute path and logs it.
func absPath(path, label string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s directory path: %w", strings.ToLower(label), err)
	}
	logging.Info("  %s directory (absolute): %s", label, abs)
	return abs, nil
}

// ensureDirectory creates the directory if missing and verifies the path
// is actually a directory.
func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat directory: %w", err)
	case !info.IsDir():
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "library" && logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			files, dirs := 0, 0
			for _, e := range entries {
				if e.IsDir() {
					dirs++
				} else {
					files++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", files, dirs)
		}
	}

	return nil
}

// setupOptionalDir prepares a directory for an optional feature. An
// unusable directory disables the feature instead of failing startup.
func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

// testWriteAccess confirms files can be created in dir.
func testWriteAccess(dir string) error {
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(probe); err != nil {
		// Write access is proven; the leftover probe file is cosmetic.
		logging.Warn("failed to remove write test file %s: %v", probe, err)
	}
	return nil
}

// LogDatabaseInit logs the database section of the startup report.
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logSection("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogIndexerInit logs the indexer section of the startup report.
func LogIndexerInit(workers int, recursive bool) {
	logging.Info("")
	logSection("INDEXER INITIALIZATION")
	logging.Info("  Workers:   %d", workers)
	logging.Info("  Recursive: %v", recursive)
}

// LogThumbnailInit notes when the thumbnail pipeline is unavailable.
func LogThumbnailInit(enabled bool) {
	if !enabled {
		logging.Info("  Thumbnails disabled (cache directory not writable)")
		logging.Info("  Full-size images will be served instead")
	}
}

// LogWatcherInit logs the watch-mode section of the startup report.
func LogWatcherInit(folders int, debounce time.Duration) {
	logging.Info("")
	logSection("WATCH MODE")
	logging.Info("  Monitored folders: %d", folders)
	logging.Info("  Debounce:          %v", debounce)
}

// MemoryConfig mirrors the resolved memory limit settings for the startup
// report, keeping this package decoupled from the memory package.
type MemoryConfig struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// LogMemoryConfig logs the memory section of the startup report.
func LogMemoryConfig(mc MemoryConfig) {
	logging.Info("")
	logSection("MEMORY CONFIGURATION")

	if !mc.Configured {
		logging.Info("  No memory limit configured (unbounded)")
		logging.Info("  Set MEMORY_LIMIT or GOMEMLIMIT to enable backpressure")
		return
	}

	logging.Info("  Source:          %s", mc.Source)
	if mc.ContainerLimit > 0 {
		logging.Info("  Container limit: %s", formatBytesStartup(mc.ContainerLimit))
	}
	logging.Info("  Go soft limit:   %s", formatBytesStartup(mc.GoMemLimit))
	if mc.Ratio > 0 {
		logging.Info("  Ratio:           %.2f", mc.Ratio)
	}
}

// LogAuthInit logs the API authentication state.
func LogAuthInit(enabled bool) {
	if enabled {
		logging.Info("  [OK] API authentication enabled (bearer token)")
	} else {
		logging.Warn("  API authentication DISABLED (set API_PASSWORD_HASH to enable)")
	}
}

// RouteInfo is one method and path pair registered on the router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes flattens a mux router into its method and path pairs.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			// Method-less routes, like the static file handler.
			methods = []string{"*"}
		}
		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: path, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the HTTP section of the startup report. At debug
// level it also dumps the full route table.
func LogHTTPRoutes(router *mux.Router, logMediaFiles, logHealthChecks bool) {
	logging.Info("")
	logSection("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		dumpRoutes(router)
	}

	logging.Info("  HTTP logging enabled")
	if logMediaFiles {
		logging.Info("    Media file logging: ON")
	} else {
		logging.Info("    Media file logging: OFF (set LOG_MEDIA_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// dumpRoutes prints the route table grouped by top-level path segment.
func dumpRoutes(router *mux.Router) {
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	logging.Debug("  Registered routes (%d total):", len(routes))
	logging.Debug("")

	sort.Slice(routes, func(i, j int) bool {
		gi, gj := getRouteGroup(routes[i].Path), getRouteGroup(routes[j].Path)
		if gi != gj {
			return gi < gj
		}
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	group := "\x00" // sentinel no group can equal
	for _, route := range routes {
		if g := getRouteGroup(route.Path); g != group {
			group = g
			if group == "" {
				logging.Debug("  [root]")
			} else {
				logging.Debug("  [%s]", group)
			}
		}
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
	logging.Debug("")
}

// getRouteGroup buckets a route path by its first segment, keeping API
// routes split one level deeper so photos, albums, and tags group apart.
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	first, rest, _ := strings.Cut(path, "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return first
}

// ServerConfig carries the values for the final startup summary.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the closing section of the startup report with
// the reachable endpoints.
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(sectionRule)
	logging.Info("")
}

// LogShutdownInitiated opens the shutdown section of the log.
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logSection("SHUTDOWN INITIATED (received " + signal + ")")
}

// LogShutdownStep logs a shutdown step beginning.
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a finished shutdown step.
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete closes the shutdown section.
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

const sectionRule = "------------------------------------------------------------"

// logSection prints a framed section header in the startup report.
func logSection(title string) {
	logging.Info(sectionRule)
	logging.Info("%s", title)
	logging.Info(sectionRule)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __          __    _ __
   / __ \/ /_  ____  / /_____    / /   (_) /_  _________ ________  __
  / /_/ / __ \/ __ \/ __/ __ \  / /   / / __ \/ ___/ __ '/ ___/ / / /
 / ____/ / / / /_/ / /_/ /_/ / / /___/ / /_/ / /  / /_/ / /  / /_/ /
/_/   /_/ /_/\____/\__/\____/ /_____/_/_.___/_/   \__,_/_/   \__, /
                                                            /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// formatBytesStartup renders a byte count with binary units for the
// startup report.
func formatBytesStartup(n int64) string {
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
