package completion

import (
	"errors"
	"fmt"

	"vodforge/catalog"
	"vodforge/logger"
	"vodforge/metrics"
	"vodforge/models"
	"vodforge/videostore"
)

// Handler is the single writer of ready/failed transitions. Both the worker
// (synchronous strategy results) and the transcoder webhook (asynchronous
// completion events) converge here, so the video record and the discovery
// catalog can only be touched in one order.
type Handler struct {
	videos  *videostore.Store
	catalog *catalog.Store
}

// New builds a completion handler over the two stores it keeps consistent.
func New(videos *videostore.Store, cat *catalog.Store) *Handler {
	return &Handler{videos: videos, catalog: cat}
}

// HandleResult applies a strategy's synchronous result: the video becomes
// ready and gains a discovery projection.
func (h *Handler) HandleResult(videoID string, res *models.StrategyResult) error {
	if res.Dispatched {
		// Nothing to apply yet; the webhook will finish the job.
		return nil
	}
	return h.markReadyAndProject(videoID, res.ManifestURL, res.DurationSeconds, res.ThumbnailURL)
}

// HandleTranscodeComplete applies an external completion event. Delivery is
// at-least-once: a repeated identical event finds the video already ready
// and falls through the store's idempotent MarkReady, and the projection is
// check-then-create, so duplicates are accepted as no-ops.
func (h *Handler) HandleTranscodeComplete(p models.TranscodeCompletion) error {
	if p.VideoID == "" {
		return fmt.Errorf("completion event missing video id")
	}

	// Progress-only events update the advisory counter and nothing else.
	if p.ManifestURL == "" && p.Progress > 0 && p.Progress < 100 {
		h.videos.SetProgress(p.VideoID, p.Progress)
		return nil
	}

	if p.ManifestURL == "" {
		// The transcoder reported completion without a manifest; the
		// asset is unplayable and retrying the completion step is not
		// this handler's job.
		h.HandleFailure(p.VideoID, "transcoder completion missing manifest URL")
		return fmt.Errorf("completion event for %s missing manifest URL", p.VideoID)
	}

	return h.markReadyAndProject(p.VideoID, p.ManifestURL, p.DurationSeconds, p.ThumbnailURL)
}

// HandleFailure marks the video failed and logs. Retries belong to the job
// queue's submission step, never to completion.
func (h *Handler) HandleFailure(videoID, msg string) {
	if _, err := h.videos.MarkFailed(videoID, msg); err != nil {
		if errors.Is(err, videostore.ErrInvalidTransition) {
			// Already terminal; a late failure report changes nothing.
			logger.Debugf("Ignoring failure for video %s: %v", videoID, err)
			return
		}
		logger.Errorf("Failed to mark video %s failed: %v", videoID, err)
		return
	}
	metrics.VideosFailed.Inc()
	logger.Warnf("Video %s failed: %s", videoID, msg)
}

func (h *Handler) markReadyAndProject(videoID, manifestURL string, duration int, thumbnailURL string) error {
	video, err := h.videos.Get(videoID)
	if err != nil {
		return err
	}
	wasReady := video.Status == models.VideoStatusReady

	video, err = h.videos.MarkReady(videoID, manifestURL, duration, thumbnailURL)
	if err != nil {
		return err
	}

	if !wasReady {
		metrics.VideosReady.Inc()
		logger.Infof("Video %s is ready: %s", videoID, manifestURL)
	}

	// Projection tolerates duplicates on its own; a projection error never
	// rolls back the ready transition.
	if err := h.catalog.Project(video); err != nil {
		logger.Errorf("Failed to project video %s into catalog: %v", videoID, err)
	}
	return nil
}
