package strategy

import (
	"context"
	"fmt"

	"vodforge/models"
	"vodforge/storagegw"
)

// Passthrough makes the original uploaded bytes playable without re-encoding
// by pointing the manifest straight at them. Used when durable storage is
// configured but no external transcoder is; acceptable for deployments that
// can live with single-rendition delivery.
type Passthrough struct {
	gateway storagegw.Gateway
}

// NewPassthrough builds the storage-passthrough strategy.
func NewPassthrough(gw storagegw.Gateway) *Passthrough {
	return &Passthrough{gateway: gw}
}

func (s *Passthrough) Name() string { return "passthrough" }

func (s *Passthrough) Process(ctx context.Context, job *models.TranscodeJob) (*models.StrategyResult, error) {
	exists, err := s.gateway.Exists(ctx, job.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check original object: %w", err)
	}
	if !exists {
		// The client claimed the upload finished but the bytes never
		// arrived; no amount of retrying will materialize them.
		return nil, Permanent(fmt.Errorf("original object %s not found in storage", job.StorageKey))
	}

	manifestURL, err := s.gateway.ReadURL(ctx, job.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest URL: %w", err)
	}

	// Duration stays at the placeholder; probing the media would require a
	// decoder this deployment does not have.
	return &models.StrategyResult{
		ManifestURL:     manifestURL,
		DurationSeconds: 0,
	}, nil
}
