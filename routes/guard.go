package routes

import (
	"encoding/json"
	"net/http"

	"vodforge/logger"
)

// BlacklistHandler administers the transcode blacklist:
// GET lists blocked creators, POST blocks one, DELETE unblocks one.
func (a *API) BlacklistHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		creators, err := a.Guard.ListBlacklist()
		if err != nil {
			logger.Errorf("Failed to list blacklist: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"creators": creators,
			"count":    len(creators),
		})

	case http.MethodPost:
		var req struct {
			CreatorID string `json:"creatorId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CreatorID == "" {
			writeError(w, http.StatusBadRequest, "creatorId is required")
			return
		}
		if err := a.Guard.Blacklist(req.CreatorID); err != nil {
			logger.Errorf("Failed to blacklist %s: %v", req.CreatorID, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		logger.Infof("Blacklisted creator %s", req.CreatorID)
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		creatorID := r.URL.Query().Get("creatorId")
		if creatorID == "" {
			writeError(w, http.StatusBadRequest, "creatorId parameter required")
			return
		}
		if err := a.Guard.Unblacklist(creatorID); err != nil {
			logger.Errorf("Failed to unblacklist %s: %v", creatorID, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
