package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"vodforge/logger"
	"vodforge/models"
	"vodforge/videostore"
)

// TranscodeCompleteHandler is the external transcoder's completion webhook.
// Delivery is at-least-once; a duplicate event is answered 200 just like the
// first one, because the completion handler treats it as a no-op.
func (a *API) TranscodeCompleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload models.TranscodeCompletion
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.VideoID == "" {
		writeError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	logger.Debugf("Transcode completion for video %s", payload.VideoID)
	if err := a.Completer.HandleTranscodeComplete(payload); err != nil {
		switch {
		case errors.Is(err, videostore.ErrNotFound):
			writeError(w, http.StatusNotFound, "video not found")
		case errors.Is(err, videostore.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
