package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// LoggingConfig controls which requests the access log records.
type LoggingConfig struct {
	SkipPaths       []string
	SkipExtensions  []string
	LogMediaFiles   bool
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the server's access log settings. Media
// responses are skipped: one gallery page fans out into dozens of
// thumbnail requests that would drown the interesting lines.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{},
		SkipExtensions:  []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff", ".ico"},
		LogMediaFiles:   false,
		LogHealthChecks: true,
	}
}

// Logger returns access-log middleware writing W3C Extended Log Format.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	logger := NewW3CLogger(config, "PhotoLibrary/1.0")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			logger.logRequest(r, wrapped, time.Since(start))
		})
	}
}

// W3CLogger writes request lines in W3C Extended Log Format.
type W3CLogger struct {
	config      LoggingConfig
	serviceName string
}

// NewW3CLogger builds a logger and emits the directive header so log
// parsers learn the field layout before the first entry.
func NewW3CLogger(config LoggingConfig, serviceName string) *W3CLogger {
	l := &W3CLogger{config: config, serviceName: serviceName}
	log.Printf("#Software: %s", l.serviceName)
	log.Println("#Version: 1.0")
	log.Println("#Fields: date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Content-Encoding) cs(User-Agent) cs(Referer)")
	return l
}

// logRequest emits one line per request, fields in the order announced by
// the #Fields directive. Every request-supplied value passes through
// sanitizeLogField so a crafted header cannot forge extra log lines.
func (l *W3CLogger) logRequest(r *http.Request, rw *responseWriter, elapsed time.Duration) {
	now := time.Now().UTC()

	agent := sanitizeLogField(r.Header.Get("User-Agent"))
	if agent == "" {
		agent = "-"
	} else {
		agent = escapeW3CField(agent)
	}

	log.Printf("%s %s %s %s %s %s %d %d %d %s %s %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		sanitizeLogField(getClientIP(r)),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		rw.statusCode,
		rw.bytesWritten,
		elapsed.Milliseconds(),
		orDash(rw.Header().Get("Content-Encoding")),
		agent,
		orDash(sanitizeLogField(r.Header.Get("Referer"))),
	)
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// mediaPathSuffixes are the route tails that serve image bytes. They carry
// no file extension, so the extension skip list misses them.
var mediaPathSuffixes = []string{"/file", "/thumbnail"}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, prefix := range config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if !config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}
	if config.LogMediaFiles {
		return false
	}

	lower := strings.ToLower(path)
	for _, suffix := range mediaPathSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	for _, ext := range config.SkipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// sanitizeLogField strips control characters from a log field. Newlines
// become spaces so a field can never break the one-line-per-request
// invariant; NUL, ESC, and the rest of the control range are dropped.
// Tabs pass through.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20:
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// getClientIP resolves the originating client address, preferring the
// proxy headers the ingress sets over the socket peer.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop in the chain is the client.
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	return host
}

// escapeW3CField quotes a value containing spaces, tabs, or quotes, with
// embedded quotes doubled per the W3C convention.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// orDash substitutes the W3C empty-field marker.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// responseWriter records the status and body size that went to the client.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
