package handlers

import (
	"encoding/json"
	"net/http"

	"photo-library/internal/database"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AlbumRequest creates an album.
type AlbumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (r AlbumRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
	)
}

// AlbumUpdateRequest changes an album's name and/or description. Nil
// fields are left untouched.
type AlbumUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r AlbumUpdateRequest) Validate() error {
	if r.Name == nil && r.Description == nil {
		return validation.NewError("validation_empty_update", "at least one field must be provided")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty),
	)
}

// AlbumPhotoRequest adds a photo to an album, optionally at a fixed
// position. Without OrderIndex the photo appends to the end.
type AlbumPhotoRequest struct {
	PhotoID    int64 `json:"photoId"`
	OrderIndex *int  `json:"orderIndex,omitempty"`
}

func (r AlbumPhotoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PhotoID, validation.Required, validation.Min(1)),
	)
}

// AlbumOrderRequest rewrites the order of photos in an album.
type AlbumOrderRequest struct {
	Order map[int64]int `json:"order"`
}

func (r AlbumOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Order, validation.Required),
	)
}

// GetAllAlbums returns all albums.
func (h *Handlers) GetAllAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.db.GetAllAlbums(r.Context())
	if err != nil {
		http.Error(w, "Failed to get albums", http.StatusInternalServerError)
		return
	}

	if albums == nil {
		albums = []database.Album{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, albums)
}

// CreateAlbum creates a new album.
func (h *Handlers) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req AlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	album, err := h.db.CreateAlbum(r.Context(), req.Name, req.Description)
	if err != nil {
		http.Error(w, "Failed to create album", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, album)
}

// GetAlbum returns one album together with its photos in album order.
func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid album id", http.StatusBadRequest)
		return
	}

	album, err := h.db.GetAlbum(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to get album", http.StatusInternalServerError)
		return
	}
	if album == nil {
		writeJSONError(w, "Album not found", http.StatusNotFound)
		return
	}

	photos, err := h.db.GetPhotosInAlbum(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to get album photos", http.StatusInternalServerError)
		return
	}
	if photos == nil {
		photos = []database.Photo{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, struct {
		database.Album
		Photos []database.Photo `json:"photos"`
	}{Album: *album, Photos: photos})
}

// UpdateAlbum renames an album or changes its description.
func (h *Handlers) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid album id", http.StatusBadRequest)
		return
	}

	var req AlbumUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateAlbum(r.Context(), id, req.Name, req.Description); err != nil {
		http.Error(w, "Failed to update album", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// DeleteAlbum removes an album. Photos stay in the library.
func (h *Handlers) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid album id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteAlbum(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete album", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// AddPhotoToAlbum adds a photo to an album.
func (h *Handlers) AddPhotoToAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid album id", http.StatusBadRequest)
		return
	}

	var req AlbumPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.AddPhotoToAlbum(r.Context(), albumID, req.PhotoID, req.OrderIndex); err != nil {
		http.Error(w, "Failed to add photo to album", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// RemovePhotoFromAlbum removes a photo from an album.
func (h *Handlers) RemovePhotoFromAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid album id", http.StatusBadRequest)
		return
	}
	photoID, ok := pathID(r, "photoId")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	if err := h.db.RemovePhotoFromAlbum(r.Context(), albumID, photoID); err != nil {
		http.Error(w, "Failed to remove photo from album", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// GetAlbumsForPhoto returns the albums that contain a photo.
func (h *Handlers) GetAlbumsForPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	albums, err := h.db.GetAlbumsForPhoto(r.Context(), photoID)
	if err != nil {
		http.Error(w, "Failed to get albums", http.StatusInternalServerError)
		return
	}

	if albums == nil {
		albums = []database.Album{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, albums)
}

// ReorderAlbum rewrites the album's photo order from a photoId → index map.
func (h *Handlers) ReorderAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid album id", http.StatusBadRequest)
		return
	}

	var req AlbumOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.ReorderAlbumPhotos(r.Context(), albumID, req.Order); err != nil {
		http.Error(w, "Failed to reorder album", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}
