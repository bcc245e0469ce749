package models

import "time"

// VideoStatus is the lifecycle state of a video record.
type VideoStatus string

const (
	VideoStatusUploading  VideoStatus = "uploading"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusFailed     VideoStatus = "failed"
)

// Video is one user-submitted media asset. The record store is the single
// source of truth for its status; ManifestURL is non-empty exactly when the
// status is ready.
type Video struct {
	ID        string      `json:"id"`
	CreatorID string      `json:"creator_id"`
	Title     string      `json:"title,omitempty"`
	Status    VideoStatus `json:"status"`

	// StorageKey points at the original uploaded bytes. It is set at
	// authorization time, namespaced by creator id, and never mutated.
	StorageKey string `json:"storage_key"`

	// Playback metadata, populated only on the transition to ready.
	ManifestURL     string `json:"manifest_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`

	FileSizeBytes int64 `json:"file_size_bytes,omitempty"`

	// ProcessingProgress is advisory only, 0-100, best effort.
	ProcessingProgress int `json:"processing_progress"`

	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StorageKeyFor builds the canonical storage key for an upload. Keys are
// namespaced by creator id so a client holding a credential for one key
// cannot guess another user's write target.
func StorageKeyFor(creatorID, videoID, filename string) string {
	return "uploads/" + creatorID + "/" + videoID + "/" + filename
}
