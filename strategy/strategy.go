package strategy

import (
	"context"
	"errors"

	"vodforge/config"
	"vodforge/guard"
	"vodforge/logger"
	"vodforge/models"
	"vodforge/storagegw"
	"vodforge/videostore"
)

// Strategy turns a claimed transcode job into a playable result. A strategy
// either returns a synchronous result the worker can apply immediately, or a
// result with Dispatched set, meaning the transcode was handed to an external
// service and the ready transition will arrive via the completion webhook.
type Strategy interface {
	Name() string
	Process(ctx context.Context, job *models.TranscodeJob) (*models.StrategyResult, error)
}

// permanentError marks a failure where retrying cannot help (malformed
// input, blocked creator, rejected request). Everything not wrapped this way
// is treated as transient and goes back through the queue's retry budget.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err as a permanent failure.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Select picks the processing strategy for this deployment. The choice
// depends only on configured capabilities, never on video content, and is
// made once at startup:
//
//	external transcoder configured  -> full multi-rendition transcode
//	cloud storage only              -> passthrough (serve original bytes)
//	neither                         -> simulated (dev/test)
func Select(caps config.Capabilities, videos *videostore.Store, gw storagegw.Gateway, g *guard.Guard) Strategy {
	switch {
	case caps.HasTranscoder():
		logger.Infof("Processing strategy: full transcode via %s", caps.TranscoderURL)
		return NewFullTranscode(caps.TranscoderURL, config.GetPublicBaseURL(), videos, gw, g)
	case caps.HasCloudStorage():
		logger.Infof("Processing strategy: storage passthrough (%s)", caps.StorageBackend)
		return NewPassthrough(gw)
	default:
		logger.Info("Processing strategy: simulated (no storage or transcoder credentials)")
		return NewSimulated(config.GetSimulatedDelay())
	}
}
