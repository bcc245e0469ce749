package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"vodforge/catalog"
	"vodforge/completion"
	"vodforge/jobqueue"
	"vodforge/models"
	"vodforge/strategy"
	"vodforge/videostore"
)

type fixtures struct {
	videos *videostore.Store
	cat    *catalog.Store
	queue  *jobqueue.Queue
	comp   *completion.Handler
}

func newFixtures(t *testing.T, qopts jobqueue.Options) *fixtures {
	t.Helper()
	dir := t.TempDir()

	videos, err := videostore.Open(filepath.Join(dir, "videos.db"))
	if err != nil {
		t.Fatalf("Failed to open video store: %v", err)
	}
	t.Cleanup(func() { videos.Close() })

	cat, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	queue, err := jobqueue.Open(filepath.Join(dir, "jobs.db"), qopts)
	if err != nil {
		t.Fatalf("Failed to open queue: %v", err)
	}
	t.Cleanup(func() { queue.Close() })

	return &fixtures{
		videos: videos,
		cat:    cat,
		queue:  queue,
		comp:   completion.New(videos, cat),
	}
}

func (f *fixtures) addProcessingVideo(t *testing.T, id string) *models.TranscodeJob {
	t.Helper()
	if _, err := f.videos.CreateUploading(id, "creator1", "uploads/creator1/"+id+"/f.mp4", "t"); err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}
	if _, err := f.videos.MarkProcessing(id, 1); err != nil {
		t.Fatalf("Failed to mark processing: %v", err)
	}
	job, err := f.queue.Enqueue(id, "uploads/creator1/"+id+"/f.mp4", 10)
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	return job
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Condition not reached within deadline")
}

// errStrategy fails every job with a fixed error.
type errStrategy struct{ err error }

func (s *errStrategy) Name() string { return "err" }
func (s *errStrategy) Process(ctx context.Context, job *models.TranscodeJob) (*models.StrategyResult, error) {
	return nil, s.err
}

func TestPoolProcessesJobsToReady(t *testing.T) {
	f := newFixtures(t, jobqueue.Options{})
	job1 := f.addProcessingVideo(t, "vid1")
	job2 := f.addProcessingVideo(t, "vid2")

	pool := NewPool(2, f.queue, strategy.NewSimulated(0), f.comp)
	pool.Start()
	defer pool.Stop()

	waitFor(t, func() bool {
		v1, err1 := f.videos.Get("vid1")
		v2, err2 := f.videos.Get("vid2")
		return err1 == nil && err2 == nil &&
			v1.Status == models.VideoStatusReady && v2.Status == models.VideoStatusReady
	})

	for _, id := range []string{job1.ID, job2.ID} {
		j, err := f.queue.Get(id)
		if err != nil {
			t.Fatalf("Failed to get job: %v", err)
		}
		if j.Status != models.JobStatusSucceeded {
			t.Errorf("Job %s not succeeded: %s", id, j.Status)
		}
	}

	entries, _ := f.cat.List()
	if len(entries) != 2 {
		t.Errorf("Expected 2 catalog entries, got %d", len(entries))
	}
}

func TestPoolPermanentFailure(t *testing.T) {
	f := newFixtures(t, jobqueue.Options{MaxAttempts: 5})
	job := f.addProcessingVideo(t, "vid1")

	strat := &errStrategy{err: strategy.Permanent(errors.New("malformed source"))}
	pool := NewPool(1, f.queue, strat, f.comp)
	pool.Start()
	defer pool.Stop()

	waitFor(t, func() bool {
		v, err := f.videos.Get("vid1")
		return err == nil && v.Status == models.VideoStatusFailed
	})

	j, err := f.queue.Get(job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if j.Status != models.JobStatusFailed {
		t.Errorf("Expected failed job, got %s", j.Status)
	}
	if j.Attempts != 1 {
		t.Errorf("Permanent failure must not retry, attempts=%d", j.Attempts)
	}

	v, _ := f.videos.Get("vid1")
	if v.ErrorMessage == "" {
		t.Error("Expected error message on failed video")
	}
	if entry, _ := f.cat.Get("vid1"); entry != nil {
		t.Error("Failed video was projected into the catalog")
	}
}

func TestPoolExhaustsTransientRetries(t *testing.T) {
	f := newFixtures(t, jobqueue.Options{MaxAttempts: 3, BackoffBase: time.Millisecond})
	job := f.addProcessingVideo(t, "vid1")

	pool := NewPool(1, f.queue, &errStrategy{err: errors.New("transcoder timeout")}, f.comp)
	pool.Start()
	defer pool.Stop()

	waitFor(t, func() bool {
		v, err := f.videos.Get("vid1")
		return err == nil && v.Status == models.VideoStatusFailed
	})

	j, err := f.queue.Get(job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if j.Attempts != 3 {
		t.Errorf("Expected 3 attempts before giving up, got %d", j.Attempts)
	}
	if j.Status != models.JobStatusFailed {
		t.Errorf("Expected failed job, got %s", j.Status)
	}

	v, _ := f.videos.Get("vid1")
	if v.ErrorMessage != "transcoder timeout" {
		t.Errorf("Last error not preserved on video: %q", v.ErrorMessage)
	}
}

func TestPoolDispatchedJobLeavesVideoProcessing(t *testing.T) {
	f := newFixtures(t, jobqueue.Options{})
	job := f.addProcessingVideo(t, "vid1")

	pool := NewPool(1, f.queue, &dispatchStrategy{}, f.comp)
	pool.Start()
	defer pool.Stop()

	waitFor(t, func() bool {
		j, err := f.queue.Get(job.ID)
		return err == nil && j.Status == models.JobStatusSucceeded
	})

	// Submission succeeded, but the video waits for the webhook.
	v, _ := f.videos.Get("vid1")
	if v.Status != models.VideoStatusProcessing {
		t.Errorf("Expected processing until webhook, got %s", v.Status)
	}
}

type dispatchStrategy struct{}

func (s *dispatchStrategy) Name() string { return "dispatch" }
func (s *dispatchStrategy) Process(ctx context.Context, job *models.TranscodeJob) (*models.StrategyResult, error) {
	return &models.StrategyResult{Dispatched: true}, nil
}
