package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"vodforge/logger"
	"vodforge/models"
	"vodforge/utils"
	"vodforge/videostore"
)

// createVideoRequest is the body of POST /videos (requestUpload). The video
// id may be chosen by the client; one is generated otherwise.
type createVideoRequest struct {
	VideoID     string `json:"videoId,omitempty"`
	CreatorID   string `json:"creatorId"`
	Title       string `json:"title,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
}

type createVideoResponse struct {
	Video  *models.Video            `json:"video"`
	Upload *models.UploadCredential `json:"upload"`
}

// VideoHandler serves POST /videos (upload authorization) and
// GET /videos?id= (status polling).
func (a *API) VideoHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createVideo(w, r)
	case http.MethodGet:
		a.getVideo(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) createVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CreatorID == "" || req.Filename == "" {
		writeError(w, http.StatusBadRequest, "creatorId and filename are required")
		return
	}

	videoID := req.VideoID
	if videoID == "" {
		var err error
		videoID, err = utils.NewVideoID()
		if err != nil {
			logger.Errorf("Failed to generate video id: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to generate video id")
			return
		}
	}

	storageKey := models.StorageKeyFor(req.CreatorID, videoID, req.Filename)
	video, err := a.Videos.CreateUploading(videoID, req.CreatorID, storageKey, req.Title)
	if err != nil {
		if errors.Is(err, videostore.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "video id already exists")
			return
		}
		logger.Errorf("Failed to create video %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, "failed to create video")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	cred, err := a.Gateway.IssueUploadCredential(r.Context(), req.CreatorID, storageKey, contentType)
	if err != nil {
		logger.Errorf("Failed to issue upload credential for %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, "failed to issue upload credential")
		return
	}

	logger.Infof("Authorized upload for video %s (creator %s)", videoID, req.CreatorID)
	writeJSON(w, http.StatusCreated, createVideoResponse{Video: video, Upload: cred})
}

func (a *API) getVideo(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id parameter required")
		return
	}

	video, err := a.Videos.Get(id)
	if err != nil {
		if errors.Is(err, videostore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		logger.Errorf("Failed to get video %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

// VideoListHandler serves GET /videos/list.
func (a *API) VideoListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	videos, err := a.Videos.List()
	if err != nil {
		logger.Errorf("Failed to list videos: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"videos": videos,
		"count":  len(videos),
	})
}

// uploadCompleteRequest is the body of POST /videos/complete
// (reportUploadComplete).
type uploadCompleteRequest struct {
	VideoID       string `json:"videoId"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
	Priority      *int   `json:"priority,omitempty"`
}

// UploadCompleteHandler moves a video into processing and enqueues its
// transcode job. The one-outstanding-job-per-video contract is enforced
// here, on the caller side, not inside the queue.
func (a *API) UploadCompleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req uploadCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VideoID == "" {
		writeError(w, http.StatusBadRequest, "videoId is required")
		return
	}
	if req.FileSizeBytes <= 0 {
		writeError(w, http.StatusBadRequest, "fileSizeBytes must be positive")
		return
	}

	if a.Queue.HasOutstanding(req.VideoID) {
		writeError(w, http.StatusConflict, "a transcode job is already outstanding for this video")
		return
	}

	video, err := a.Videos.MarkProcessing(req.VideoID, req.FileSizeBytes)
	if err != nil {
		switch {
		case errors.Is(err, videostore.ErrNotFound):
			writeError(w, http.StatusNotFound, "video not found")
		case errors.Is(err, videostore.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			logger.Errorf("Failed to mark video %s processing: %v", req.VideoID, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	priority := 10
	if req.Priority != nil {
		priority = *req.Priority
	}
	job, err := a.Queue.Enqueue(video.ID, video.StorageKey, priority)
	if err != nil {
		logger.Errorf("Failed to enqueue job for video %s: %v", video.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue transcode job")
		return
	}

	logger.Infof("Video %s queued for processing (job %s)", video.ID, job.ID)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"video": video,
		"jobId": job.ID,
	})
}
