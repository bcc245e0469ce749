package jobqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"vodforge/logger"
	"vodforge/models"

	pebble "github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

// ErrUnknownJob means no job exists for the given id.
var ErrUnknownJob = errors.New("unknown job id")

// Options tune the retry policy of a queue.
type Options struct {
	// MaxAttempts is the per-job retry budget. Default 3.
	MaxAttempts int
	// BackoffBase is the delay before the first retry; it doubles on every
	// subsequent attempt. Default 5s.
	BackoffBase time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 5 * time.Second
	}
	return o
}

// Queue is a durable, at-least-once work queue of transcode jobs. Every job
// mutation is persisted to Pebble with a sync write; an in-memory index of
// non-terminal jobs drives dequeue selection. All operations share one mutex,
// so no two callers can claim the same job.
type Queue struct {
	mu   sync.Mutex
	db   *pebble.DB
	opts Options

	// pending holds queued jobs by id; seq provides the FIFO tiebreak
	// among equal priorities.
	pending map[string]*models.TranscodeJob
	seq     uint64
}

// Open opens (or creates) the job queue at the given path and recovers
// persisted state. Jobs that were active when the process died are requeued:
// delivery is at-least-once, never at-most-once.
func Open(dbPath string, opts Options) (*Queue, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open job queue: %w", err)
	}

	q := &Queue{
		db:      db,
		opts:    opts.withDefaults(),
		pending: make(map[string]*models.TranscodeJob),
	}
	if err := q.recover(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

// Close closes the underlying DB.
func (q *Queue) Close() error {
	return q.db.Close()
}

// recover rebuilds the in-memory index from persisted jobs.
func (q *Queue) recover() error {
	iter, err := q.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	recovered := 0
	for iter.First(); iter.Valid(); iter.Next() {
		var job models.TranscodeJob
		if err := json.Unmarshal(iter.Value(), &job); err != nil {
			continue // Skip invalid records
		}
		if job.Seq >= q.seq {
			q.seq = job.Seq + 1
		}
		switch job.Status {
		case models.JobStatusActive:
			// The claiming worker is gone; hand the job out again.
			job.Status = models.JobStatusQueued
			if err := q.save(&job); err != nil {
				return err
			}
			q.pending[job.ID] = &job
			recovered++
		case models.JobStatusQueued:
			q.pending[job.ID] = &job
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iteration error: %w", err)
	}
	if recovered > 0 {
		logger.Infof("Requeued %d jobs interrupted by previous shutdown", recovered)
	}
	return nil
}

// Enqueue creates a queued job for the given video. The queue does not
// enforce one-outstanding-job-per-video; that contract belongs to the
// caller, which can consult HasOutstanding first.
func (q *Queue) Enqueue(videoID, storageKey string, priority int) (*models.TranscodeJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	job := &models.TranscodeJob{
		ID:          uuid.NewString(),
		VideoID:     videoID,
		StorageKey:  storageKey,
		Priority:    priority,
		MaxAttempts: q.opts.MaxAttempts,
		Status:      models.JobStatusQueued,
		NotBefore:   now,
		EnqueuedAt:  now,
		Seq:         q.seq,
	}
	q.seq++

	if err := q.save(job); err != nil {
		return nil, err
	}
	q.pending[job.ID] = job
	logger.Debugf("Enqueued job %s for video %s (priority %d)", job.ID, videoID, priority)
	return job, nil
}

// Dequeue atomically claims the eligible queued job with the lowest
// priority value, FIFO among equals, and marks it active. Jobs still inside
// their retry backoff window are not eligible. Returns false when nothing
// can be claimed.
func (q *Queue) Dequeue() (*models.TranscodeJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	var best *models.TranscodeJob
	for _, job := range q.pending {
		if job.Status != models.JobStatusQueued || job.NotBefore.After(now) {
			continue
		}
		if best == nil || job.Priority < best.Priority ||
			(job.Priority == best.Priority && job.Seq < best.Seq) {
			best = job
		}
	}
	if best == nil {
		return nil, false
	}

	best.Status = models.JobStatusActive
	if err := q.save(best); err != nil {
		// Leave the job queued rather than hand out unpersisted state.
		best.Status = models.JobStatusQueued
		logger.Errorf("Failed to persist claim of job %s: %v", best.ID, err)
		return nil, false
	}
	claimed := *best
	return &claimed, true
}

// Ack marks an active job succeeded and archives it.
func (q *Queue) Ack(jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.pending[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	job.Status = models.JobStatusSucceeded
	if err := q.save(job); err != nil {
		return err
	}
	delete(q.pending, jobID)
	return nil
}

// Nack records a transient failure of an active job. While the retry budget
// lasts, the job is requeued with exponential backoff and terminal is false.
// Once attempts reach the budget the job is marked failed, terminal is true,
// and the caller is expected to propagate the failure to the video record.
func (q *Queue) Nack(jobID string, jobErr error) (terminal bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.pending[jobID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	job.Attempts++
	if jobErr != nil {
		job.LastError = jobErr.Error()
	}

	if job.Attempts >= job.MaxAttempts {
		job.Status = models.JobStatusFailed
		if err := q.save(job); err != nil {
			return false, err
		}
		delete(q.pending, jobID)
		logger.Warnf("Job %s failed after %d attempts: %s", jobID, job.Attempts, job.LastError)
		return true, nil
	}

	// Exponential backoff: base delay, doubling per attempt.
	delay := q.opts.BackoffBase << (job.Attempts - 1)
	job.Status = models.JobStatusQueued
	job.NotBefore = time.Now().UTC().Add(delay)
	if err := q.save(job); err != nil {
		return false, err
	}
	logger.Debugf("Job %s requeued, attempt %d/%d, next eligible in %v",
		jobID, job.Attempts, job.MaxAttempts, delay)
	return false, nil
}

// Fail marks an active job failed immediately, bypassing the retry budget.
// Used for permanent failures where retrying cannot help.
func (q *Queue) Fail(jobID string, jobErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.pending[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	job.Attempts++
	if jobErr != nil {
		job.LastError = jobErr.Error()
	}
	job.Status = models.JobStatusFailed
	if err := q.save(job); err != nil {
		return err
	}
	delete(q.pending, jobID)
	return nil
}

// Get returns the persisted job for the given id, terminal jobs included.
func (q *Queue) Get(jobID string) (*models.TranscodeJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, closer, err := q.db.Get([]byte(jobID))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	defer closer.Close()

	var job models.TranscodeJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}
	return &job, nil
}

// HasOutstanding reports whether a queued or active job exists for the
// video. Callers use it to honor the one-job-per-video contract.
func (q *Queue) HasOutstanding(videoID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.pending {
		if job.VideoID == videoID {
			return true
		}
	}
	return false
}

// CleanupOldRecords removes terminal job records older than maxAge.
func (q *Queue) CleanupOldRecords(maxAge time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	iter, err := q.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	var keysToDelete [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var job models.TranscodeJob
		if err := json.Unmarshal(iter.Value(), &job); err != nil {
			continue
		}
		if job.Status != models.JobStatusSucceeded && job.Status != models.JobStatusFailed {
			continue
		}
		if job.EnqueuedAt.Before(cutoff) {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			keysToDelete = append(keysToDelete, key)
		}
	}

	for _, key := range keysToDelete {
		if err := q.db.Delete(key, pebble.Sync); err != nil {
			return fmt.Errorf("failed to delete old job record: %w", err)
		}
	}
	return nil
}

func (q *Queue) save(job *models.TranscodeJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}
	return q.db.Set([]byte(job.ID), data, pebble.Sync)
}
