package main

import (
	"context"
	"net/http"
	"time"

	"vodforge/catalog"
	"vodforge/completion"
	"vodforge/config"
	"vodforge/guard"
	"vodforge/jobqueue"
	"vodforge/logger"
	"vodforge/routes"
	"vodforge/storagegw"
	"vodforge/strategy"
	"vodforge/tokens"
	"vodforge/videostore"
	"vodforge/worker"
)

func main() {
	logger.Info("Starting vodforge server initialization")

	// Initialize video record store
	logger.Debug("Initializing videos database")
	videos, err := videostore.Open(config.GetVideosDBPath())
	if err != nil {
		logger.Fatalf("Failed to initialize video store: %v", err)
	}
	defer videos.Close()
	logger.Info("Videos database initialized successfully")

	// Initialize job queue (recovers jobs left active by a previous run)
	logger.Debug("Initializing jobs database")
	queue, err := jobqueue.Open(config.GetJobsDBPath(), jobqueue.Options{
		MaxAttempts: config.GetMaxAttempts(),
		BackoffBase: config.GetBackoffBase(),
	})
	if err != nil {
		logger.Fatalf("Failed to initialize job queue: %v", err)
	}
	defer queue.Close()
	logger.Info("Jobs database initialized successfully")

	// Initialize catalog store
	logger.Debug("Initializing catalog database")
	cat, err := catalog.Open(config.GetCatalogDBPath())
	if err != nil {
		logger.Fatalf("Failed to initialize catalog store: %v", err)
	}
	defer cat.Close()
	logger.Info("Catalog database initialized successfully")

	// Initialize guard store
	logger.Debug("Initializing guard database")
	g, err := guard.Open(config.GetGuardDBPath(), config.GetDailyQuota())
	if err != nil {
		logger.Fatalf("Failed to initialize guard: %v", err)
	}
	defer g.Close()
	logger.Info("Guard database initialized successfully")

	// Detect deployment capabilities and build the storage gateway
	caps := config.DetectCapabilities()
	logger.Infof("Storage backend: %s, transcoder configured: %v",
		caps.StorageBackend, caps.HasTranscoder())

	signer := tokens.NewSigner(config.GetSigningSecret())
	gateway, err := storagegw.New(context.Background(), caps, signer)
	if err != nil {
		logger.Fatalf("Failed to initialize storage gateway: %v", err)
	}

	// Select the processing strategy once; it never changes at runtime
	strat := strategy.Select(caps, videos, gateway, g)

	completer := completion.New(videos, cat)

	// Start cleanup routine for old job records (runs every 24 hours)
	logger.Info("Starting cleanup routine (runs every 24 hours)")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupRoutine(ctx, queue)

	// Start the transcode worker pool
	logger.Infof("Starting worker pool with %d workers", config.GetWorkerCount())
	pool := worker.NewPool(config.GetWorkerCount(), queue, strat, completer)
	pool.Start()
	defer pool.Stop()

	// Register HTTP routes
	logger.Info("Registering HTTP routes")
	api := &routes.API{
		Videos:    videos,
		Queue:     queue,
		Catalog:   cat,
		Guard:     g,
		Gateway:   gateway,
		Completer: completer,
		Signer:    signer,
	}
	mux := http.NewServeMux()
	api.Register(mux)
	logger.Info("HTTP routes registered successfully")

	addr := config.GetListenAddr()
	logger.Infof("vodforge server starting on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("Server failed to start: %v", err)
	}
}

// cleanupRoutine periodically removes terminal job records old enough that
// nobody will ask about them again.
func cleanupRoutine(ctx context.Context, queue *jobqueue.Queue) {
	logger.Info("Cleanup routine started - will run every 24 hours")
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup routine stopped due to context cancellation")
			return
		case <-ticker.C:
			logger.Info("Running scheduled cleanup of old job records")
			maxAge := 30 * 24 * time.Hour
			if err := queue.CleanupOldRecords(maxAge); err != nil {
				logger.Errorf("Failed to cleanup old job records: %v", err)
			} else {
				logger.Info("Successfully cleaned up old job records")
			}
		}
	}
}
