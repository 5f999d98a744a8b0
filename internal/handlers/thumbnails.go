package handlers

import (
	"net/http"

	"photo-library/internal/logging"
)

// GetThumbnail serves a cached thumbnail for a photo, generating it on
// first request.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	if !h.thumbs.IsEnabled() {
		writeJSONError(w, "Thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	photo, err := h.db.GetPhoto(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to get photo", http.StatusInternalServerError)
		return
	}
	if photo == nil {
		writeJSONError(w, "Photo not found", http.StatusNotFound)
		return
	}

	thumbPath, err := h.thumbs.Thumbnail(r.Context(), photo.FilePath)
	if err != nil {
		logging.Error("Thumbnail generation failed for %s: %v", photo.FilePath, err)
		http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		return
	}

	// Thumbnails are immutable per source path; let clients cache hard.
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, thumbPath)
}
