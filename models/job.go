package models

import "time"

// JobStatus is the lifecycle state of a transcode job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusActive    JobStatus = "active"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// TranscodeJob is one unit of processing work tied to exactly one video.
// A failed job may be replaced by a new job for the same video; keeping at
// most one job outstanding per video is the caller's contract, not the
// queue's.
type TranscodeJob struct {
	ID         string `json:"id"`
	VideoID    string `json:"video_id"`
	StorageKey string `json:"storage_key"`

	// Priority orders dequeue: lower values first, FIFO among equals.
	Priority int `json:"priority"`

	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	LastError   string `json:"last_error,omitempty"`

	Status JobStatus `json:"status"`

	// NotBefore gates dequeue eligibility while retry backoff elapses.
	NotBefore time.Time `json:"not_before"`

	EnqueuedAt time.Time `json:"enqueued_at"`
	// Seq breaks priority ties in enqueue order.
	Seq uint64 `json:"seq"`
}

// StrategyResult is what a processing strategy hands to the completion
// handler. Dispatched means the transcode was submitted to an external
// service and the ready transition will arrive later via the completion
// webhook; the playback fields are only meaningful when Dispatched is false.
type StrategyResult struct {
	Dispatched      bool
	ManifestURL     string
	DurationSeconds int
	ThumbnailURL    string
}

// TranscodeCompletion is the payload of the external transcoder's
// completion webhook. Delivery is at-least-once; handling must be
// idempotent.
type TranscodeCompletion struct {
	VideoID         string `json:"videoId"`
	ManifestURL     string `json:"manifestUrl"`
	DurationSeconds int    `json:"durationSeconds"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	Progress        int    `json:"progress,omitempty"`
}
