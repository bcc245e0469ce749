package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// GetDataDir returns the directory where vodforge stores its databases and
// locally hosted media.
// Priority: VODFORGE_DATA_DIR environment variable > "./data" default
func GetDataDir() string {
	if dir := os.Getenv("VODFORGE_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// GetVideosDBPath returns the full path to the video record database.
// Path: {DATA_DIR}/videos.db
func GetVideosDBPath() string {
	return filepath.Join(GetDataDir(), "videos.db")
}

// GetJobsDBPath returns the full path to the transcode job queue database.
// Path: {DATA_DIR}/jobs.db
func GetJobsDBPath() string {
	return filepath.Join(GetDataDir(), "jobs.db")
}

// GetCatalogDBPath returns the full path to the discovery catalog database.
// Path: {DATA_DIR}/catalog.db
func GetCatalogDBPath() string {
	return filepath.Join(GetDataDir(), "catalog.db")
}

// GetGuardDBPath returns the full path to the quota/blacklist guard database.
// Path: {DATA_DIR}/guard.db
func GetGuardDBPath() string {
	return filepath.Join(GetDataDir(), "guard.db")
}

// GetMediaDir returns the base directory for locally hosted media files.
// Used only by the local storage backend; files under it are served from
// the /media/ route. Not configurable by end users for security reasons.
func GetMediaDir() string {
	if dir := os.Getenv("VODFORGE_MEDIA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(GetDataDir(), "media")
}

// GetListenAddr returns the HTTP listen address.
func GetListenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

// GetPublicBaseURL returns the externally reachable base URL of this server.
// It is embedded in local upload credentials, local manifest URLs and in the
// completion callback URL handed to the external transcoder.
func GetPublicBaseURL() string {
	if u := os.Getenv("VODFORGE_PUBLIC_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

// GetSigningSecret returns the HMAC secret used for upload credential tokens.
// Falls back to a development-only secret when unset.
func GetSigningSecret() []byte {
	if s := os.Getenv("VODFORGE_SIGNING_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("vodforge-dev-signing-secret-do-not-use-in-production")
}

// GetWorkerCount returns the size of the transcode worker pool.
func GetWorkerCount() int {
	return envInt("VODFORGE_WORKERS", 4)
}

// GetMaxAttempts returns the per-job retry budget.
func GetMaxAttempts() int {
	return envInt("VODFORGE_MAX_ATTEMPTS", 3)
}

// GetBackoffBase returns the base delay of the exponential retry backoff.
// The delay doubles on every failed attempt.
func GetBackoffBase() time.Duration {
	return envDuration("VODFORGE_BACKOFF_BASE", 5*time.Second)
}

// GetSimulatedDelay returns the fixed processing delay of the simulated
// transcode strategy.
func GetSimulatedDelay() time.Duration {
	return envDuration("VODFORGE_SIMULATED_DELAY", 2*time.Second)
}

// GetDailyQuota returns the per-creator daily transcode submission quota
// enforced by the guard for the external transcoder strategy.
func GetDailyQuota() int {
	return envInt("VODFORGE_DAILY_QUOTA", 50)
}

// Capabilities describes which external collaborators are configured for
// this deployment. It is derived once at startup and injected into the
// strategy selector; processing strategy choice never depends on video
// content or per-request state.
type Capabilities struct {
	TranscoderURL string // external transcoding service endpoint, "" if none

	StorageBackend string // "gcs", "s3", "local" or "" if none configured

	GCSBucket          string
	GCSCredentialsJSON string // base64 service account key

	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// DetectCapabilities reads the environment and reports what this deployment
// can do. GCS wins over S3 when both are configured; an explicit
// VODFORGE_STORAGE_BACKEND overrides the inference.
func DetectCapabilities() Capabilities {
	caps := Capabilities{
		TranscoderURL:      os.Getenv("VODFORGE_TRANSCODER_URL"),
		GCSBucket:          os.Getenv("VODFORGE_GCS_BUCKET"),
		GCSCredentialsJSON: os.Getenv("VODFORGE_GCS_CREDENTIALS"),
		S3Bucket:           os.Getenv("VODFORGE_S3_BUCKET"),
		S3Region:           os.Getenv("VODFORGE_S3_REGION"),
		S3AccessKey:        os.Getenv("VODFORGE_S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("VODFORGE_S3_SECRET_KEY"),
	}

	switch os.Getenv("VODFORGE_STORAGE_BACKEND") {
	case "gcs":
		caps.StorageBackend = "gcs"
	case "s3":
		caps.StorageBackend = "s3"
	case "local":
		caps.StorageBackend = "local"
	default:
		if caps.GCSBucket != "" {
			caps.StorageBackend = "gcs"
		} else if caps.S3Bucket != "" {
			caps.StorageBackend = "s3"
		} else {
			caps.StorageBackend = "local"
		}
	}
	return caps
}

// HasTranscoder reports whether an external transcoding service is configured.
func (c Capabilities) HasTranscoder() bool {
	return c.TranscoderURL != ""
}

// HasCloudStorage reports whether a durable cloud storage backend is
// configured. The local backend does not count: it exists so the pipeline is
// exercisable without cloud credentials.
func (c Capabilities) HasCloudStorage() bool {
	return c.StorageBackend == "gcs" || c.StorageBackend == "s3"
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
