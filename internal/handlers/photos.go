package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"photo-library/internal/database"
)

// RatingRequest sets a photo's star rating. Out-of-range values are
// clamped by the store rather than rejected here.
type RatingRequest struct {
	Rating int `json:"rating"`
}

// FavoriteRequest sets or clears a photo's favorite flag.
type FavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// GetPhoto returns a single photo record by id.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
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

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, photo)
}

// GetPhotoFile serves the photo's original bytes. The path comes from the
// store, never from the request, so no path traversal check is needed.
func (h *Handlers) GetPhotoFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
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

	http.ServeFile(w, r, photo.FilePath)
}

// SetRating updates a photo's rating.
func (h *Handlers) SetRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.SetPhotoRating(r.Context(), id, req.Rating); err != nil {
		http.Error(w, "Failed to set rating", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// SetFavorite updates a photo's favorite flag.
func (h *Handlers) SetFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.SetPhotoFavorite(r.Context(), id, req.Favorite); err != nil {
		http.Error(w, "Failed to set favorite", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// TrashPhoto soft-deletes a photo: the file moves to the trash directory
// and the row is marked trashed but kept.
func (h *Handlers) TrashPhoto(w http.ResponseWriter, r *http.Request) {
	if !h.trashEnabled {
		writeJSONError(w, "Trash is disabled", http.StatusServiceUnavailable)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	if err := h.dedup.DeleteDuplicate(r.Context(), id, false); err != nil {
		if errors.Is(err, database.ErrPhotoNotFound) {
			writeJSONError(w, "Photo not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to trash photo", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// DeletePhoto permanently removes a photo: file and row both go away.
func (h *Handlers) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	if err := h.dedup.DeleteDuplicate(r.Context(), id, true); err != nil {
		if errors.Is(err, database.ErrPhotoNotFound) {
			writeJSONError(w, "Photo not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete photo", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}
