package routes

import (
	"net/http"

	"vodforge/logger"
)

// CatalogHandler serves GET /catalog, the discovery listing of playable
// videos.
func (a *API) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := a.Catalog.List()
	if err != nil {
		logger.Errorf("Failed to list catalog: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
