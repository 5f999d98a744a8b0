package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	if rw == nil {
		t.Fatal("Expected responseWriter to be created")
	}

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}

	if rw.bytesWritten != 0 {
		t.Errorf("Expected bytesWritten to be 0, got %d", rw.bytesWritten)
	}

	if rw.wroteHeader {
		t.Error("Expected wroteHeader to be false initially")
	}
}

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}

	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after WriteHeader")
	}

	// Write header again - should be ignored
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Error("Status code should not change after first WriteHeader")
	}
}

func TestResponseWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	data := []byte("test data")
	n, err := rw.Write(data)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if n != len(data) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(data), n)
	}

	if rw.bytesWritten != int64(len(data)) {
		t.Errorf("Expected bytesWritten to be %d, got %d", len(data), rw.bytesWritten)
	}

	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

func TestDefaultLoggingConfig(t *testing.T) {
	config := DefaultLoggingConfig()

	if len(config.SkipPaths) != 0 {
		t.Errorf("Expected empty SkipPaths, got %d items", len(config.SkipPaths))
	}

	if len(config.SkipExtensions) == 0 {
		t.Error("Expected SkipExtensions to have default values")
	}

	// Check for common image extensions
	expectedExts := []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	for _, ext := range expectedExts {
		found := false
		for _, skip := range config.SkipExtensions {
			if skip == ext {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected extension %s in SkipExtensions", ext)
		}
	}

	if config.LogMediaFiles {
		t.Error("Expected LogMediaFiles to be false by default")
	}

	if !config.LogHealthChecks {
		t.Error("Expected LogHealthChecks to be true by default")
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
	}{
		{
			name:   "Logs regular requests",
			path:   "/api/search",
			config: DefaultLoggingConfig(),
		},
		{
			name:   "Skips image extensions when configured",
			path:   "/photos/beach.jpg",
			config: LoggingConfig{LogMediaFiles: false, SkipExtensions: []string{".jpg"}},
		},
		{
			name:   "Logs health checks when enabled",
			path:   "/health",
			config: LoggingConfig{LogHealthChecks: true},
		},
		{
			name:   "Skips health checks when disabled",
			path:   "/health",
			config: LoggingConfig{LogHealthChecks: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})

			middleware := Logger(tt.config)
			wrappedHandler := middleware(handler)

			req := httptest.NewRequest("GET", tt.path, http.NoBody)
			w := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		want   bool
	}{
		{
			name:   "API path is logged",
			path:   "/api/photos/42",
			config: DefaultLoggingConfig(),
			want:   false,
		},
		{
			name:   "Photo file endpoint skipped by default",
			path:   "/api/photos/42/file",
			config: DefaultLoggingConfig(),
			want:   true,
		},
		{
			name:   "Thumbnail endpoint skipped by default",
			path:   "/api/photos/42/thumbnail",
			config: DefaultLoggingConfig(),
			want:   true,
		},
		{
			name:   "Photo file endpoint logged when media logging enabled",
			path:   "/api/photos/42/file",
			config: LoggingConfig{LogMediaFiles: true, LogHealthChecks: true},
			want:   false,
		},
		{
			name:   "Configured skip path",
			path:   "/internal/debug",
			config: LoggingConfig{SkipPaths: []string{"/internal/"}, LogHealthChecks: true},
			want:   true,
		},
		{
			name:   "Health check skipped when disabled",
			path:   "/readyz",
			config: LoggingConfig{LogHealthChecks: false},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkip(tt.path, tt.config); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain string untouched", "/api/photos", "/api/photos"},
		{"Newline replaced with space", "line1\nline2", "line1 line2"},
		{"Carriage return replaced", "a\rb", "a b"},
		{"Null byte stripped", "a\x00b", "ab"},
		{"ANSI escape stripped", "a\x1b[31mb", "a[31mb"},
		{"Tab preserved", "a\tb", "a\tb"},
		{"Other control characters stripped", "a\x07b", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "RemoteAddr without headers",
			remoteAddr: "192.168.1.10:54321",
			want:       "192.168.1.10",
		},
		{
			name:       "X-Forwarded-For single value",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "X-Forwarded-For chain takes first hop",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"},
			want:       "203.0.113.5",
		},
		{
			name:       "X-Real-IP fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeW3CField(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"with space", `"with space"`},
		{`has"quote`, `"has""quote"`},
	}

	for _, tt := range tests {
		if got := escapeW3CField(tt.input); got != tt.want {
			t.Errorf("escapeW3CField(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefaultCompressionConfig(t *testing.T) {
	config := DefaultCompressionConfig()

	if config.MinSize != 1024 {
		t.Errorf("Expected MinSize to be 1024, got %d", config.MinSize)
	}

	if config.Level != gzip.DefaultCompression {
		t.Errorf("Expected Level to be DefaultCompression (%d), got %d", gzip.DefaultCompression, config.Level)
	}

	// JSON is the dominant response type and must be compressible
	found := false
	for _, ct := range config.CompressibleTypes {
		if ct == "application/json" {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected application/json in CompressibleTypes")
	}

	// Image types must never be compressed
	for _, ct := range config.CompressibleTypes {
		if strings.HasPrefix(ct, "image/") {
			t.Errorf("Image type %s should not be compressible", ct)
		}
	}
}

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		responseBody      string
		contentType       string
		acceptEncoding    string
		expectCompression bool
	}{
		{
			name:              "Compresses large JSON",
			responseBody:      strings.Repeat(`{"fileName":"beach.jpg"}`, 200),
			contentType:       "application/json",
			acceptEncoding:    "gzip",
			expectCompression: true,
		},
		{
			name:              "Doesn't compress small responses",
			responseBody:      `{"status":"ok"}`,
			contentType:       "application/json",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Doesn't compress images",
			responseBody:      strings.Repeat("data", 500),
			contentType:       "image/jpeg",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Respects client without gzip support",
			responseBody:      strings.Repeat(`{"key":"value"}`, 200),
			contentType:       "application/json",
			acceptEncoding:    "",
			expectCompression: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(tt.responseBody))
			})

			middleware := Compression(DefaultCompressionConfig())
			wrappedHandler := middleware(handler)

			req := httptest.NewRequest("GET", "/api/search", http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}

			isCompressed := w.Header().Get("Content-Encoding") == "gzip"
			if isCompressed != tt.expectCompression {
				t.Errorf("Expected compression=%v, got compression=%v", tt.expectCompression, isCompressed)
			}

			if tt.expectCompression {
				// Verify we can decompress
				gr, err := gzip.NewReader(w.Body)
				if err != nil {
					t.Fatalf("Failed to create gzip reader: %v", err)
				}
				defer gr.Close()

				decompressed, err := io.ReadAll(gr)
				if err != nil {
					t.Fatalf("Failed to decompress: %v", err)
				}

				if string(decompressed) != tt.responseBody {
					t.Error("Decompressed content doesn't match original")
				}
			}
		})
	}
}

func TestCompressWriterBuffersSmallBodies(t *testing.T) {
	w := httptest.NewRecorder()
	cw := newCompressWriter(w, DefaultCompressionConfig())

	smallData := []byte("small")
	n, err := cw.Write(smallData)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != len(smallData) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(smallData), n)
	}

	// Under MinSize, so nothing reaches the client yet.
	if !bytes.Equal(cw.buf, smallData) {
		t.Errorf("Buffered %q, want %q", cw.buf, smallData)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Wrote %d bytes before the commit decision", w.Body.Len())
	}
}

func TestCompressionWithMultipleWrites(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		// Multiple small writes that together exceed MinSize
		for i := 0; i < 50; i++ {
			w.Write([]byte(strings.Repeat(`{"id":1}`, 10)))
		}
	})

	middleware := Compression(DefaultCompressionConfig())
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	// Should be compressed since total exceeds MinSize
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Error("Expected response to be compressed")
	}
}

func TestDefaultMetricsConfig(t *testing.T) {
	config := DefaultMetricsConfig()

	expectedSkips := []string{"/metrics", "/health", "/livez", "/readyz"}
	for _, expected := range expectedSkips {
		found := false
		for _, path := range config.SkipPaths {
			if path == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %s in SkipPaths", expected)
		}
	}
}

func TestMetricsMiddlewareStatusCode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	middleware := Metrics(DefaultMetricsConfig())
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/photos/99", http.NoBody)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	middleware := Metrics(DefaultMetricsConfig())
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if !called {
		t.Error("Handler should still be called for skipped paths")
	}

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/photos", "/api/photos"},
		{"/api/photos/42", "/api/photos/{id}"},
		{"/api/photos/42/file", "/api/photos/{id}/file"},
		{"/api/photos/42/thumbnail", "/api/photos/{id}/thumbnail"},
		{"/api/albums/7/photos/42", "/api/albums/{id}/photos/{id}"},
		{"/api/tags/3/photos", "/api/tags/{id}/photos"},
		{"/health", "/health"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"42", true},
		{"0", true},
		{"photos", false},
		{"4a", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isNumeric(tt.input); got != tt.want {
			t.Errorf("isNumeric(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func testPasswordHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return string(hash)
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := Auth(DefaultAuthConfig(false, ""))
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with auth disabled, got %d", w.Code)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := Auth(DefaultAuthConfig(true, testPasswordHash(t, "secret")))
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("Expected WWW-Authenticate challenge header")
	}
}

func TestAuthWrongPassword(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := Auth(DefaultAuthConfig(true, testPasswordHash(t, "secret")))
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestAuthCorrectPassword(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := Auth(DefaultAuthConfig(true, testPasswordHash(t, "secret")))
	wrappedHandler := middleware(handler)

	// Two requests: the second hits the token digest cache
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/search", http.NoBody)
		req.Header.Set("Authorization", "Bearer secret")
		w := httptest.NewRecorder()

		wrappedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected status 200, got %d", i+1, w.Code)
		}
	}
}

func TestAuthSchemeCaseInsensitive(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := Auth(DefaultAuthConfig(true, testPasswordHash(t, "secret")))
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	req.Header.Set("Authorization", "bearer secret")
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for lowercase scheme, got %d", w.Code)
	}
}

func TestAuthOpenPaths(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := Auth(DefaultAuthConfig(true, testPasswordHash(t, "secret")))
	wrappedHandler := middleware(handler)

	for _, path := range []string{"/health", "/livez", "/readyz", "/version"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		w := httptest.NewRecorder()

		wrappedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected %s to be reachable without credentials, got %d", path, w.Code)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{"Standard bearer", "Bearer abc123", "abc123", true},
		{"Lowercase scheme", "bearer abc123", "abc123", true},
		{"Missing header", "", "", false},
		{"Wrong scheme", "Basic abc123", "", false},
		{"Scheme only", "Bearer ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			got, ok := bearerToken(req)
			if ok != tt.wantOK {
				t.Fatalf("bearerToken() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func BenchmarkLoggingMiddleware(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	config := DefaultLoggingConfig()
	middleware := Logger(config)
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		wrappedHandler.ServeHTTP(w, req)
	}
}

func BenchmarkCompressionMiddleware(b *testing.B) {
	responseBody := strings.Repeat(`{"fileName":"beach.jpg"}`, 200)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(responseBody))
	})

	middleware := Compression(DefaultCompressionConfig())
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		wrappedHandler.ServeHTTP(w, req)
	}
}

func BenchmarkAuthMiddlewareCachedToken(b *testing.B) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		b.Fatalf("Failed to hash password: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := Auth(DefaultAuthConfig(true, string(hash)))
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")

	// Prime the digest cache
	wrappedHandler.ServeHTTP(httptest.NewRecorder(), req)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		wrappedHandler.ServeHTTP(w, req)
	}
}
