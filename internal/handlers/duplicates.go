package handlers

import (
	"net/http"
	"strconv"

	"photo-library/internal/database"
	"photo-library/internal/dedup"
)

// duplicateGroupResponse is one duplicate group, optionally with the
// suggested keep order (best candidate first).
type duplicateGroupResponse struct {
	FileHash  string           `json:"fileHash"`
	Photos    []database.Photo `json:"photos"`
	KeepOrder []int64          `json:"keepOrder,omitempty"`
}

// ListDuplicates returns duplicate groups for the whole library, or for a
// single folder when ?folder=<id> is given. With ?suggest=true each group
// carries its suggested keep order.
func (h *Handlers) ListDuplicates(w http.ResponseWriter, r *http.Request) {
	var (
		groups []dedup.DuplicateGroup
		err    error
	)

	if raw := r.URL.Query().Get("folder"); raw != "" {
		folderID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || folderID < 1 {
			writeJSONError(w, "Invalid folder id", http.StatusBadRequest)
			return
		}
		groups, err = h.dedup.FindDuplicatesInFolder(r.Context(), folderID)
	} else {
		groups, err = h.dedup.FindExactDuplicates(r.Context())
	}
	if err != nil {
		http.Error(w, "Duplicate scan failed", http.StatusInternalServerError)
		return
	}

	suggest := queryBool(r, "suggest")
	response := make([]duplicateGroupResponse, 0, len(groups))
	for _, group := range groups {
		entry := duplicateGroupResponse{
			FileHash: group.FileHash,
			Photos:   group.Photos,
		}
		if suggest {
			entry.KeepOrder = h.dedup.SuggestDuplicatesToKeep(group)
		}
		response = append(response, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// GetDuplicateStats returns library-wide duplicate statistics.
func (h *Handlers) GetDuplicateStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dedup.GetDuplicateStatistics(r.Context())
	if err != nil {
		http.Error(w, "Duplicate scan failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
