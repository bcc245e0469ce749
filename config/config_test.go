package config

import (
	"testing"
	"time"
)

func TestDataDirDefault(t *testing.T) {
	t.Setenv("VODFORGE_DATA_DIR", "")
	if dir := GetDataDir(); dir != "./data" {
		t.Errorf("Expected default data dir, got %s", dir)
	}

	t.Setenv("VODFORGE_DATA_DIR", "/var/lib/vodforge")
	if dir := GetDataDir(); dir != "/var/lib/vodforge" {
		t.Errorf("Expected env override, got %s", dir)
	}
	if path := GetVideosDBPath(); path != "/var/lib/vodforge/videos.db" {
		t.Errorf("Unexpected videos db path: %s", path)
	}
}

func TestNumericDefaults(t *testing.T) {
	t.Setenv("VODFORGE_WORKERS", "")
	t.Setenv("VODFORGE_MAX_ATTEMPTS", "")
	t.Setenv("VODFORGE_BACKOFF_BASE", "")

	if n := GetWorkerCount(); n != 4 {
		t.Errorf("Expected 4 workers, got %d", n)
	}
	if n := GetMaxAttempts(); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
	if d := GetBackoffBase(); d != 5*time.Second {
		t.Errorf("Expected 5s backoff, got %v", d)
	}

	// Garbage values fall back to defaults instead of breaking startup.
	t.Setenv("VODFORGE_WORKERS", "banana")
	if n := GetWorkerCount(); n != 4 {
		t.Errorf("Expected default on bad value, got %d", n)
	}
	t.Setenv("VODFORGE_WORKERS", "8")
	if n := GetWorkerCount(); n != 8 {
		t.Errorf("Expected 8 workers, got %d", n)
	}
}

func TestDetectCapabilitiesInference(t *testing.T) {
	t.Setenv("VODFORGE_STORAGE_BACKEND", "")
	t.Setenv("VODFORGE_TRANSCODER_URL", "")
	t.Setenv("VODFORGE_GCS_BUCKET", "")
	t.Setenv("VODFORGE_S3_BUCKET", "")

	caps := DetectCapabilities()
	if caps.StorageBackend != "local" {
		t.Errorf("Expected local backend with no credentials, got %s", caps.StorageBackend)
	}
	if caps.HasTranscoder() || caps.HasCloudStorage() {
		t.Error("Bare environment reported capabilities")
	}

	t.Setenv("VODFORGE_S3_BUCKET", "my-bucket")
	caps = DetectCapabilities()
	if caps.StorageBackend != "s3" {
		t.Errorf("Expected s3 inference, got %s", caps.StorageBackend)
	}
	if !caps.HasCloudStorage() {
		t.Error("S3 bucket not reported as cloud storage")
	}

	// GCS wins when both are configured.
	t.Setenv("VODFORGE_GCS_BUCKET", "my-gcs-bucket")
	caps = DetectCapabilities()
	if caps.StorageBackend != "gcs" {
		t.Errorf("Expected gcs to win, got %s", caps.StorageBackend)
	}

	// An explicit backend overrides the inference.
	t.Setenv("VODFORGE_STORAGE_BACKEND", "local")
	caps = DetectCapabilities()
	if caps.StorageBackend != "local" {
		t.Errorf("Expected explicit override, got %s", caps.StorageBackend)
	}

	t.Setenv("VODFORGE_TRANSCODER_URL", "https://transcoder.example")
	if caps = DetectCapabilities(); !caps.HasTranscoder() {
		t.Error("Transcoder URL not detected")
	}
}
