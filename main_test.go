package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"photo-library/internal/database"
	"photo-library/internal/handlers"
	"photo-library/internal/indexer"
	"photo-library/internal/startup"

	"github.com/gorilla/mux"
)

// setupTestRouter builds the real route table over a throwaway database.
func setupTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	tempDir := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	config := &startup.Config{
		LibraryDir:   filepath.Join(tempDir, "library"),
		TrashDir:     filepath.Join(tempDir, "trash"),
		ThumbnailDir: filepath.Join(tempDir, "thumbs"),
		TrashEnabled: true,
	}
	if err := os.MkdirAll(config.LibraryDir, 0o755); err != nil {
		t.Fatalf("Failed to create library dir: %v", err)
	}

	idx := indexer.New(db, indexer.Options{Workers: 2})
	return setupRouter(handlers.New(db, idx, config))
}

func TestSetupRouterRouteTable(t *testing.T) {
	router := setupTestRouter(t)

	registered := make(map[string]bool)
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		template, err := route.GetPathTemplate()
		if err != nil {
			return nil // subrouter node, not a leaf route
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, m := range methods {
			registered[m+" "+template] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk router: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /healthz",
		"GET /livez",
		"GET /readyz",
		"GET /version",
		"POST /api/index",
		"POST /api/refresh",
		"GET /api/search",
		"GET /api/stats",
		"GET /api/duplicates",
		"GET /api/duplicates/stats",
		"GET /api/photos/{id}",
		"DELETE /api/photos/{id}",
		"GET /api/photos/{id}/file",
		"GET /api/photos/{id}/thumbnail",
		"PUT /api/photos/{id}/rating",
		"PUT /api/photos/{id}/favorite",
		"POST /api/photos/{id}/trash",
		"GET /api/photos/{id}/tags",
		"POST /api/photos/{id}/tags/{tagId}",
		"DELETE /api/photos/{id}/tags/{tagId}",
		"GET /api/photos/{id}/albums",
		"GET /api/tags",
		"POST /api/tags",
		"DELETE /api/tags/{id}",
		"GET /api/tags/{id}/photos",
		"GET /api/albums",
		"POST /api/albums",
		"GET /api/albums/{id}",
		"PATCH /api/albums/{id}",
		"DELETE /api/albums/{id}",
		"POST /api/albums/{id}/photos",
		"DELETE /api/albums/{id}/photos/{photoId}",
		"PUT /api/albums/{id}/order",
	}
	for _, want := range expected {
		if !registered[want] {
			t.Errorf("Route not registered: %s", want)
		}
	}
}

func TestRouterServesHealthEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{"/health", "/healthz", "/livez", "/readyz"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}

func TestRouterServesVersion(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/version", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /version status = %d, want %d", w.Code, http.StatusOK)
	}

	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode version response: %v", err)
	}
	if info.Version == "" {
		t.Error("Version response has empty version field")
	}
	if info.GoVersion == "" {
		t.Error("Version response has empty goVersion field")
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest("PUT", "/version", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /version status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/api/nothing-here", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("GET /api/nothing-here status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "1", want: 1},
		{input: "42", want: 42},
		{input: "9223372036854775807", want: 9223372036854775807},
		{input: "0", wantErr: true},
		{input: "-5", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
		{input: "12.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("input=%q", tt.input), func(t *testing.T) {
			got, err := parseID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseID(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseID(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhotoByID(t *testing.T) {
	photos := []database.Photo{
		{ID: 1, FilePath: "/a.jpg"},
		{ID: 7, FilePath: "/b.jpg"},
		{ID: 3, FilePath: "/c.jpg"},
	}

	if got := photoByID(photos, 7); got == nil || got.FilePath != "/b.jpg" {
		t.Errorf("photoByID(7) = %+v, want /b.jpg", got)
	}
	if got := photoByID(photos, 99); got != nil {
		t.Errorf("photoByID(99) = %+v, want nil", got)
	}
	if got := photoByID(nil, 1); got != nil {
		t.Errorf("photoByID on nil slice = %+v, want nil", got)
	}
}
