package worker

import (
	"context"
	"sync"
	"time"

	"vodforge/completion"
	"vodforge/jobqueue"
	"vodforge/logger"
	"vodforge/metrics"
	"vodforge/models"
	"vodforge/strategy"
)

// Pool runs a fixed number of goroutines that drain the job queue. Each
// claimed job is processed independently; workers block only on the empty
// queue and on the strategy's own network calls, never on each other.
type Pool struct {
	queue     *jobqueue.Queue
	strat     strategy.Strategy
	completer *completion.Handler

	count        int
	pollInterval time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool builds a pool of count workers over the given queue and strategy.
func NewPool(count int, q *jobqueue.Queue, s strategy.Strategy, c *completion.Handler) *Pool {
	if count <= 0 {
		count = 4
	}
	return &Pool{
		queue:        q,
		strat:        s,
		completer:    c,
		count:        count,
		pollInterval: 250 * time.Millisecond,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	logger.Infof("Started %d transcode workers (strategy: %s)", p.count, p.strat.Name())
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok := p.queue.Dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.pollInterval):
			}
			continue
		}

		logger.Debugf("Worker %d claimed job %s (video %s, attempt %d)",
			id, job.ID, job.VideoID, job.Attempts+1)
		p.process(ctx, job)
	}
}

func (p *Pool) process(ctx context.Context, job *models.TranscodeJob) {
	start := time.Now()
	res, err := p.strat.Process(ctx, job)
	metrics.ProcessingDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.handleError(job, err)
		return
	}

	if err := p.completer.HandleResult(job.VideoID, res); err != nil {
		// The completion step does not retry; the job fails with it.
		if failErr := p.queue.Fail(job.ID, err); failErr != nil {
			logger.Errorf("Failed to fail job %s: %v", job.ID, failErr)
		}
		p.completer.HandleFailure(job.VideoID, err.Error())
		metrics.JobsProcessed.WithLabelValues("completion_failed").Inc()
		return
	}

	if err := p.queue.Ack(job.ID); err != nil {
		logger.Errorf("Failed to ack job %s: %v", job.ID, err)
	}
	if res.Dispatched {
		// Submission is the whole job here; the video stays processing
		// until the transcoder's webhook arrives.
		metrics.JobsProcessed.WithLabelValues("dispatched").Inc()
	} else {
		metrics.JobsProcessed.WithLabelValues("succeeded").Inc()
	}
}

func (p *Pool) handleError(job *models.TranscodeJob, err error) {
	if strategy.IsPermanent(err) {
		logger.Warnf("Job %s failed permanently: %v", job.ID, err)
		if failErr := p.queue.Fail(job.ID, err); failErr != nil {
			logger.Errorf("Failed to fail job %s: %v", job.ID, failErr)
		}
		p.completer.HandleFailure(job.VideoID, err.Error())
		metrics.JobsProcessed.WithLabelValues("permanent_failure").Inc()
		return
	}

	terminal, nackErr := p.queue.Nack(job.ID, err)
	if nackErr != nil {
		logger.Errorf("Failed to nack job %s: %v", job.ID, nackErr)
		return
	}
	if terminal {
		p.completer.HandleFailure(job.VideoID, err.Error())
		metrics.JobsProcessed.WithLabelValues("exhausted").Inc()
	} else {
		metrics.JobsProcessed.WithLabelValues("retried").Inc()
	}
}
