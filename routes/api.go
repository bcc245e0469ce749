package routes

import (
	"encoding/json"
	"net/http"

	"vodforge/catalog"
	"vodforge/completion"
	"vodforge/guard"
	"vodforge/jobqueue"
	"vodforge/metrics"
	"vodforge/storagegw"
	"vodforge/tokens"
	"vodforge/videostore"
)

// API holds the handlers' dependencies. Everything is injected once at
// startup; handlers keep no state of their own.
type API struct {
	Videos    *videostore.Store
	Queue     *jobqueue.Queue
	Catalog   *catalog.Store
	Guard     *guard.Guard
	Gateway   storagegw.Gateway
	Completer *completion.Handler
	Signer    *tokens.Signer
}

// Register wires all routes into the given mux. The /blob and /media routes
// only exist when the local storage backend is active; cloud backends take
// uploads and serve media directly.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/videos", a.VideoHandler)
	mux.HandleFunc("/videos/list", a.VideoListHandler)
	mux.HandleFunc("/videos/complete", a.UploadCompleteHandler)
	mux.HandleFunc("/transcode-complete", a.TranscodeCompleteHandler)
	mux.HandleFunc("/catalog", a.CatalogHandler)
	mux.HandleFunc("/guard/blacklist", a.BlacklistHandler)
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/metrics", metrics.Handler())

	if local, ok := a.Gateway.(*storagegw.LocalGateway); ok {
		mux.HandleFunc("/blob", a.BlobUploadHandler)
		mux.Handle("/media/", http.StripPrefix("/media/",
			http.FileServer(http.Dir(local.BaseDir()))))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
