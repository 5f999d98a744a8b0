package handlers

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// IndexRequest asks the server to index a folder tree.
type IndexRequest struct {
	Path      string `json:"path"`
	Recursive *bool  `json:"recursive,omitempty"`
	Monitor   bool   `json:"monitor,omitempty"`
}

func (r IndexRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// TriggerIndex runs a full index of the requested folder and returns the
// run's counters. Only one index or refresh runs at a time.
func (h *Handlers) TriggerIndex(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.indexing.CompareAndSwap(false, true) {
		writeJSONError(w, "Indexing is already in progress", http.StatusConflict)
		return
	}
	defer h.indexing.Store(false)

	recursive := h.defaultRecursive
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	result, err := h.indexer.IndexFolder(r.Context(), req.Path, recursive, req.Monitor)
	if err != nil {
		http.Error(w, "Indexing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

// TriggerRefresh rescans every monitored folder and returns the run's
// counters.
func (h *Handlers) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.indexing.CompareAndSwap(false, true) {
		writeJSONError(w, "Indexing is already in progress", http.StatusConflict)
		return
	}
	defer h.indexing.Store(false)

	result, err := h.indexer.RefreshIndex(r.Context())
	if err != nil {
		http.Error(w, "Refresh failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}
