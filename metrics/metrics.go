package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline counters. Advisory only: nothing in the pipeline reads them.
var (
	JobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vodforge_jobs_processed_total",
		Help: "Transcode jobs processed by the worker pool, by outcome.",
	}, []string{"outcome"})

	VideosReady = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vodforge_videos_ready_total",
		Help: "Videos that reached the ready state.",
	})

	VideosFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vodforge_videos_failed_total",
		Help: "Videos that reached the failed state.",
	})

	ProcessingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vodforge_job_processing_seconds",
		Help:    "Wall time a worker spent on one job attempt.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(JobsProcessed, VideosReady, VideosFailed, ProcessingDuration)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
