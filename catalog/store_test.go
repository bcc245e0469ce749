package catalog

import (
	"path/filepath"
	"testing"

	"vodforge/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open catalog store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func readyVideo(id string) *models.Video {
	return &models.Video{
		ID:              id,
		CreatorID:       "creator1",
		Title:           "My Video",
		Status:          models.VideoStatusReady,
		ManifestURL:     "https://cdn.example/" + id + "/manifest.m3u8",
		DurationSeconds: 120,
	}
}

func TestProjectAndGet(t *testing.T) {
	s := openTestStore(t)

	if err := s.Project(readyVideo("vid1")); err != nil {
		t.Fatalf("Failed to project: %v", err)
	}

	entry, err := s.Get("vid1")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if entry == nil {
		t.Fatal("Expected catalog entry, got nil")
	}
	if entry.ManifestURL != "https://cdn.example/vid1/manifest.m3u8" {
		t.Errorf("Unexpected manifest URL: %s", entry.ManifestURL)
	}
	if entry.PublishedAt.IsZero() {
		t.Error("Expected published timestamp to be set")
	}
}

func TestProjectRejectsNonReady(t *testing.T) {
	s := openTestStore(t)

	v := readyVideo("vid1")
	v.Status = models.VideoStatusProcessing
	if err := s.Project(v); err == nil {
		t.Error("Expected error projecting a non-ready video")
	}
	if entry, _ := s.Get("vid1"); entry != nil {
		t.Error("Non-ready video was projected anyway")
	}
}

func TestProjectIdempotent(t *testing.T) {
	s := openTestStore(t)

	if err := s.Project(readyVideo("vid1")); err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	first, _ := s.Get("vid1")

	// Duplicate completion delivery projects again; the entry must not change.
	v := readyVideo("vid1")
	v.Title = "Renamed Between Deliveries"
	if err := s.Project(v); err != nil {
		t.Fatalf("Second project failed: %v", err)
	}
	second, _ := s.Get("vid1")
	if second.Title != first.Title || !second.PublishedAt.Equal(first.PublishedAt) {
		t.Errorf("Duplicate projection changed the entry:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)

	entry, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if entry != nil {
		t.Error("Expected nil entry for unknown video")
	}
}

func TestList(t *testing.T) {
	s := openTestStore(t)

	s.Project(readyVideo("vid1"))
	s.Project(readyVideo("vid2"))

	entries, err := s.List()
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
}
