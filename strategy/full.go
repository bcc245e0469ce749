package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vodforge/guard"
	"vodforge/logger"
	"vodforge/models"
	"vodforge/storagegw"
	"vodforge/videostore"
)

// FullTranscode submits a multi-rendition transcode request to an external
// transcoding service and returns immediately; the service calls back on
// /transcode-complete when the renditions are done. The worker's job ends at
// submission, so the strategy never blocks on the transcode itself.
type FullTranscode struct {
	endpoint    string
	callbackURL string
	videos      *videostore.Store
	gateway     storagegw.Gateway
	guard       *guard.Guard
	client      *http.Client
}

type transcodeRequest struct {
	VideoID     string             `json:"videoId"`
	SourceURL   string             `json:"sourceUrl"`
	Renditions  []models.Rendition `json:"renditions"`
	CallbackURL string             `json:"callbackUrl"`
}

// NewFullTranscode builds the external-transcoder strategy.
func NewFullTranscode(endpoint, publicBaseURL string, videos *videostore.Store, gw storagegw.Gateway, g *guard.Guard) *FullTranscode {
	return &FullTranscode{
		endpoint:    endpoint,
		callbackURL: strings.TrimSuffix(publicBaseURL, "/") + "/transcode-complete",
		videos:      videos,
		gateway:     gw,
		guard:       g,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *FullTranscode) Name() string { return "full" }

func (s *FullTranscode) Process(ctx context.Context, job *models.TranscodeJob) (*models.StrategyResult, error) {
	video, err := s.videos.Get(job.VideoID)
	if err != nil {
		return nil, Permanent(fmt.Errorf("video lookup failed: %w", err))
	}

	// Blocked or over-quota creators cannot be helped by retrying.
	if err := s.guard.Check(video.CreatorID); err != nil {
		return nil, Permanent(err)
	}

	sourceURL, err := s.gateway.ReadURL(ctx, job.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build source URL: %w", err)
	}

	payload := transcodeRequest{
		VideoID:     job.VideoID,
		SourceURL:   sourceURL,
		Renditions:  models.DefaultRenditionLadder(),
		CallbackURL: s.callbackURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to marshal transcode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create transcode request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "vodforge/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		// Network errors are the transcoder being unreachable; retry.
		return nil, fmt.Errorf("transcode submission failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		logger.Infof("Submitted transcode for video %s (%d renditions)", job.VideoID, len(payload.Renditions))
		return &models.StrategyResult{Dispatched: true}, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("transcoder returned %d", resp.StatusCode)
	default:
		// 4xx means the request itself is unacceptable; retrying sends
		// the same bytes again.
		return nil, Permanent(fmt.Errorf("transcoder rejected submission with status %d", resp.StatusCode))
	}
}
