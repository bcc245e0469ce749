package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"vodforge/models"

	pebble "github.com/cockroachdb/pebble"
)

// Entry is the read-optimized discovery record created once a video becomes
// playable. It carries everything the browse surface needs without touching
// the video record store.
type Entry struct {
	VideoID         string    `json:"video_id"`
	CreatorID       string    `json:"creator_id"`
	Title           string    `json:"title,omitempty"`
	ManifestURL     string    `json:"manifest_url"`
	DurationSeconds int       `json:"duration_seconds"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
}

// Store holds discovery entries keyed by video id.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the catalog store at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Project creates the discovery entry for a ready video. Completion delivery
// is at-least-once, so Project checks before creating: if an entry already
// exists for the video it is left untouched and no error is returned.
func (s *Store) Project(v *models.Video) error {
	if v.Status != models.VideoStatusReady {
		return fmt.Errorf("video %s is not ready (status %s)", v.ID, v.Status)
	}

	existing, err := s.Get(v.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil // Already projected; duplicate completion is a no-op.
	}

	entry := Entry{
		VideoID:         v.ID,
		CreatorID:       v.CreatorID,
		Title:           v.Title,
		ManifestURL:     v.ManifestURL,
		DurationSeconds: v.DurationSeconds,
		ThumbnailURL:    v.ThumbnailURL,
		PublishedAt:     time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog entry: %w", err)
	}
	return s.db.Set([]byte(v.ID), data, pebble.Sync)
}

// Get returns the entry for a video id, or nil when none exists.
func (s *Store) Get(videoID string) (*Entry, error) {
	data, closer, err := s.db.Get([]byte(videoID))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil // Not projected yet, not an error
		}
		return nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}
	defer closer.Close()

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog entry: %w", err)
	}
	return &entry, nil
}

// List returns all discovery entries.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var entry Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			continue // Skip invalid records
		}
		entries = append(entries, entry)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iteration error: %w", err)
	}
	return entries, nil
}
