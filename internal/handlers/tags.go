package handlers

import (
	"encoding/json"
	"net/http"

	"photo-library/internal/database"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TagRequest creates a tag. Names are normalized (trimmed, lowercased)
// by the store.
type TagRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parentId,omitempty"`
}

func (r TagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 128)),
	)
}

// GetAllTags returns all tags
func (h *Handlers) GetAllTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.GetAllTags(r.Context())
	if err != nil {
		http.Error(w, "Failed to get tags", http.StatusInternalServerError)
		return
	}

	if tags == nil {
		tags = []database.Tag{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}

// CreateTag creates a tag, or returns the existing one with the same
// normalized name.
func (h *Handlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tag, err := h.db.AddTag(r.Context(), req.Name, req.ParentID)
	if err != nil {
		http.Error(w, "Failed to create tag", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tag)
}

// DeleteTag removes a tag and all of its photo associations.
func (h *Handlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid tag id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteTag(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete tag", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// GetPhotosByTag returns photos carrying a tag, paged by limit/offset.
func (h *Handlers) GetPhotosByTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid tag id", http.StatusBadRequest)
		return
	}

	limit := queryInt(r, "limit", defaultSearchLimit)
	offset := queryInt(r, "offset", 0)

	photos, err := h.db.GetPhotosByTag(r.Context(), id, limit, offset)
	if err != nil {
		http.Error(w, "Failed to get photos", http.StatusInternalServerError)
		return
	}

	if photos == nil {
		photos = []database.Photo{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, photos)
}

// GetPhotoTags returns the tags attached to one photo.
func (h *Handlers) GetPhotoTags(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	tags, err := h.db.GetTagsForPhoto(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to get tags", http.StatusInternalServerError)
		return
	}

	if tags == nil {
		tags = []database.Tag{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}

// TagPhoto attaches a tag to a photo. Repeating the call is a no-op.
func (h *Handlers) TagPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	tagID, ok := pathID(r, "tagId")
	if !ok {
		writeJSONError(w, "Invalid tag id", http.StatusBadRequest)
		return
	}

	if err := h.db.TagPhoto(r.Context(), photoID, tagID); err != nil {
		http.Error(w, "Failed to tag photo", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// UntagPhoto detaches a tag from a photo.
func (h *Handlers) UntagPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	tagID, ok := pathID(r, "tagId")
	if !ok {
		writeJSONError(w, "Invalid tag id", http.StatusBadRequest)
		return
	}

	if err := h.db.UntagPhoto(r.Context(), photoID, tagID); err != nil {
		http.Error(w, "Failed to untag photo", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}
