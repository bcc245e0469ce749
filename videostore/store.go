package videostore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"vodforge/models"

	pebble "github.com/cockroachdb/pebble"
)

var (
	// ErrNotFound means no video record exists for the given id.
	ErrNotFound = errors.New("video not found")
	// ErrDuplicateID means a record with the given id already exists.
	ErrDuplicateID = errors.New("video id already exists")
	// ErrInvalidTransition means the requested status change violates the
	// video state machine. This is a programming or race bug, not a
	// retryable condition.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store is the durable table of video records and the single source of truth
// for their lifecycle state. All transitions happen under one mutex so that
// concurrent workers and webhook deliveries observe compare-and-set
// semantics rather than read-modify-write races.
type Store struct {
	mu sync.Mutex
	db *pebble.DB
}

// Open opens (or creates) the video record store at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open video store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUploading creates a new video record in the uploading state.
func (s *Store) CreateUploading(id, creatorID, storageKey, title string) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(id); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	v := &models.Video{
		ID:         id,
		CreatorID:  creatorID,
		Title:      title,
		Status:     models.VideoStatusUploading,
		StorageKey: storageKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.save(v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarkProcessing records that the client finished uploading and the video
// entered the processing pipeline. Valid only from uploading.
func (s *Store) MarkProcessing(id string, fileSizeBytes int64) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if v.Status != models.VideoStatusUploading {
		return nil, fmt.Errorf("%w: %s -> processing", ErrInvalidTransition, v.Status)
	}

	v.Status = models.VideoStatusProcessing
	v.FileSizeBytes = fileSizeBytes
	v.UpdatedAt = time.Now().UTC()
	if err := s.save(v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarkReady publishes the playback metadata and moves the video to ready.
// Calling it again on an already-ready record is a no-op success: completion
// events are delivered at least once, and the record must come out
// byte-identical the second time. A failed video may still become ready when
// a later retry succeeds; its error message is cleared.
func (s *Store) MarkReady(id, manifestURL string, durationSeconds int, thumbnailURL string) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load(id)
	if err != nil {
		return nil, err
	}
	switch v.Status {
	case models.VideoStatusReady:
		return v, nil
	case models.VideoStatusUploading:
		return nil, fmt.Errorf("%w: uploading -> ready", ErrInvalidTransition)
	}

	now := time.Now().UTC()
	v.Status = models.VideoStatusReady
	v.ManifestURL = manifestURL
	v.DurationSeconds = durationSeconds
	v.ThumbnailURL = thumbnailURL
	v.ProcessingProgress = 100
	v.ErrorMessage = ""
	v.UpdatedAt = now
	if v.CompletedAt == nil {
		v.CompletedAt = &now
	}
	if err := s.save(v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarkFailed records a terminal processing failure. Valid only from
// processing; the error message is preserved for the creator-facing surface.
func (s *Store) MarkFailed(id, errorMessage string) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if v.Status != models.VideoStatusProcessing {
		return nil, fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, v.Status)
	}

	v.Status = models.VideoStatusFailed
	v.ErrorMessage = errorMessage
	v.UpdatedAt = time.Now().UTC()
	if err := s.save(v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetProgress updates the advisory processing progress. Best effort: unknown
// ids and non-processing records are ignored.
func (s *Store) SetProgress(id string, pct int) {
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load(id)
	if err != nil || v.Status != models.VideoStatusProcessing {
		return
	}
	v.ProcessingProgress = pct
	v.UpdatedAt = time.Now().UTC()
	s.save(v)
}

// Get returns the video record for the given id.
func (s *Store) Get(id string) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

// List returns all video records.
func (s *Store) List() ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var videos []models.Video
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var v models.Video
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			continue // Skip invalid records
		}
		videos = append(videos, v)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iteration error: %w", err)
	}
	return videos, nil
}

func (s *Store) load(id string) (*models.Video, error) {
	data, closer, err := s.db.Get([]byte(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	defer closer.Close()

	var v models.Video
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video record: %w", err)
	}
	return &v, nil
}

func (s *Store) save(v *models.Video) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal video record: %w", err)
	}
	return s.db.Set([]byte(v.ID), data, pebble.Sync)
}
