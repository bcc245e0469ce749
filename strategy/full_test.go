package strategy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"vodforge/guard"
	"vodforge/models"
	"vodforge/videostore"
)

func fullTestFixtures(t *testing.T) (*videostore.Store, *guard.Guard, *models.TranscodeJob) {
	t.Helper()
	dir := t.TempDir()

	videos, err := videostore.Open(filepath.Join(dir, "videos.db"))
	if err != nil {
		t.Fatalf("Failed to open video store: %v", err)
	}
	t.Cleanup(func() { videos.Close() })

	g, err := guard.Open(filepath.Join(dir, "guard.db"), 100)
	if err != nil {
		t.Fatalf("Failed to open guard: %v", err)
	}
	t.Cleanup(func() { g.Close() })

	if _, err := videos.CreateUploading("vid1", "creator1", "uploads/creator1/vid1/f.mp4", "t"); err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}
	if _, err := videos.MarkProcessing("vid1", 1); err != nil {
		t.Fatalf("Failed to mark processing: %v", err)
	}

	job := &models.TranscodeJob{ID: "job1", VideoID: "vid1", StorageKey: "uploads/creator1/vid1/f.mp4"}
	return videos, g, job
}

func TestFullTranscodeDispatches(t *testing.T) {
	videos, g, job := fullTestFixtures(t)

	var got transcodeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode submission: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewFullTranscode(srv.URL, "https://vod.example", videos, &stubGateway{exists: true}, g)
	res, err := s.Process(context.Background(), job)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !res.Dispatched {
		t.Error("Expected dispatched result")
	}

	if got.VideoID != "vid1" {
		t.Errorf("Submission carried wrong video id: %s", got.VideoID)
	}
	if got.SourceURL == "" {
		t.Error("Submission missing source URL")
	}
	if len(got.Renditions) != 3 {
		t.Errorf("Expected 3 renditions, got %d", len(got.Renditions))
	}
	if got.CallbackURL != "https://vod.example/transcode-complete" {
		t.Errorf("Unexpected callback URL: %s", got.CallbackURL)
	}
}

func TestFullTranscodeServerErrorIsTransient(t *testing.T) {
	videos, g, job := fullTestFixtures(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewFullTranscode(srv.URL, "https://vod.example", videos, &stubGateway{}, g)
	_, err := s.Process(context.Background(), job)
	if err == nil {
		t.Fatal("Expected error on 503")
	}
	if IsPermanent(err) {
		t.Errorf("Transcoder outage must stay retryable, got %v", err)
	}
}

func TestFullTranscodeRejectionIsPermanent(t *testing.T) {
	videos, g, job := fullTestFixtures(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	s := NewFullTranscode(srv.URL, "https://vod.example", videos, &stubGateway{}, g)
	_, err := s.Process(context.Background(), job)
	if err == nil {
		t.Fatal("Expected error on 422")
	}
	if !IsPermanent(err) {
		t.Errorf("Rejected submission must be permanent, got %v", err)
	}
}

func TestFullTranscodeUnreachableIsTransient(t *testing.T) {
	videos, g, job := fullTestFixtures(t)

	s := NewFullTranscode("http://127.0.0.1:1", "https://vod.example", videos, &stubGateway{}, g)
	_, err := s.Process(context.Background(), job)
	if err == nil {
		t.Fatal("Expected error for unreachable transcoder")
	}
	if IsPermanent(err) {
		t.Errorf("Network error must stay retryable, got %v", err)
	}
}

func TestFullTranscodeBlockedCreatorIsPermanent(t *testing.T) {
	videos, g, job := fullTestFixtures(t)

	if err := g.Blacklist("creator1"); err != nil {
		t.Fatalf("Failed to blacklist: %v", err)
	}

	submitted := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		submitted = true
	}))
	defer srv.Close()

	s := NewFullTranscode(srv.URL, "https://vod.example", videos, &stubGateway{}, g)
	_, err := s.Process(context.Background(), job)
	if err == nil {
		t.Fatal("Expected guard rejection")
	}
	if !IsPermanent(err) {
		t.Errorf("Guard rejection must be permanent, got %v", err)
	}
	if submitted {
		t.Error("Blocked creator's job still reached the transcoder")
	}
}

func TestFullTranscodeUnknownVideoIsPermanent(t *testing.T) {
	videos, g, _ := fullTestFixtures(t)

	s := NewFullTranscode("http://127.0.0.1:1", "https://vod.example", videos, &stubGateway{}, g)
	_, err := s.Process(context.Background(), &models.TranscodeJob{ID: "job2", VideoID: "ghost", StorageKey: "k"})
	if err == nil {
		t.Fatal("Expected error for unknown video")
	}
	if !IsPermanent(err) {
		t.Errorf("Unknown video must be permanent, got %v", err)
	}
}
