package strategy

import (
	"context"
	"fmt"
	"time"

	"vodforge/models"
)

// Simulated stands in for a real transcode when no storage or transcoder
// credentials are present: it waits a fixed short delay and fabricates a
// playable result. It exists so the rest of the pipeline is exercisable in
// local development and tests.
type Simulated struct {
	delay time.Duration
}

// NewSimulated builds the simulated strategy with the given fixed delay.
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{delay: delay}
}

func (s *Simulated) Name() string { return "simulated" }

func (s *Simulated) Process(ctx context.Context, job *models.TranscodeJob) (*models.StrategyResult, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	base := fmt.Sprintf("https://cdn.invalid/simulated/%s", job.VideoID)
	return &models.StrategyResult{
		ManifestURL:     base + "/manifest.m3u8",
		DurationSeconds: 42,
		ThumbnailURL:    base + "/thumbnail.jpg",
	}, nil
}
