package handlers

import (
	"net/http"
	"strconv"
	"time"

	"photo-library/internal/database"
)

const defaultSearchLimit = 100

// searchResponse wraps the matched photos with the paging the query
// actually used.
type searchResponse struct {
	Items  []database.Photo `json:"items"`
	Count  int              `json:"count"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// Search runs a filtered photo query. All filters arrive as query
// parameters and combine with AND.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := database.SearchOptions{
		Keyword:       q.Get("q"),
		FavoritesOnly: queryBool(r, "favorites"),
		IncludeTrash:  queryBool(r, "trash"),
		Limit:         queryInt(r, "limit", defaultSearchLimit),
		Offset:        queryInt(r, "offset", 0),
		SortBy:        q.Get("sort"),
		SortDesc:      queryBool(r, "desc"),
	}

	for _, raw := range q["folder"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			opts.FolderIDs = append(opts.FolderIDs, id)
		}
	}
	for _, raw := range q["tag"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			opts.TagIDs = append(opts.TagIDs, id)
		}
	}
	if id, err := strconv.ParseInt(q.Get("album"), 10, 64); err == nil && id > 0 {
		opts.AlbumID = &id
	}
	if rating, err := strconv.Atoi(q.Get("minRating")); err == nil {
		opts.MinRating = &rating
	}
	if from, ok := parseDateParam(q.Get("from")); ok {
		opts.DateFrom = &from
	}
	if to, ok := parseDateParam(q.Get("to")); ok {
		opts.DateTo = &to
	}

	photos, err := h.db.SearchPhotos(r.Context(), opts)
	if err != nil {
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	if photos == nil {
		photos = []database.Photo{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, searchResponse{
		Items:  photos,
		Count:  len(photos),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// parseDateParam accepts a plain date or a full RFC3339 timestamp.
func parseDateParam(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
