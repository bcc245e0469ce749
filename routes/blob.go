package routes

import (
	"net/http"
	"strings"

	"vodforge/logger"
	"vodforge/storagegw"
)

// BlobUploadHandler accepts direct uploads for the local storage backend.
// The bearer token was issued at authorization time and is scoped to exactly
// the storage key named in the query; expiry is the only reuse safeguard.
func (a *API) BlobUploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	local, ok := a.Gateway.(*storagegw.LocalGateway)
	if !ok {
		writeError(w, http.StatusNotFound, "direct upload not available on this deployment")
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key parameter required")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			token = ""
		}
	}
	if _, err := a.Signer.VerifyUpload(token, key); err != nil {
		logger.Warnf("Rejected upload for key %s: %v", key, err)
		writeError(w, http.StatusUnauthorized, "invalid upload credential")
		return
	}

	defer r.Body.Close()
	if err := local.Put(key, r.Body); err != nil {
		logger.Errorf("Failed to store upload %s: %v", key, err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
