package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// Outcome labels what happened to one handler run or scheduled job.
type Outcome string

// Job outcomes reported to the Observer.
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRetried   Outcome = "retried"
	OutcomeFailed    Outcome = "failed"
	OutcomeDropped   Outcome = "dropped"
)

// Observer receives one call per outcome. took is zero for dropped jobs.
type Observer func(queue, jobType string, outcome Outcome, took time.Duration)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is multiplied by the attempt number before a failed job is re-run.
	RetryDelay time.Duration
	Logger     *zap.Logger
	Observer   Observer
}

// Queue is an in-memory worker pool. Delayed and retried jobs sit on timers
// rather than occupying a worker.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	jobs chan Job
	wg   sync.WaitGroup

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	timers  map[*time.Timer]Job
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
		timers:  make(map[*time.Timer]Job),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop cancels pending timers and waits for running handlers to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	for t, job := range q.timers {
		if t.Stop() {
			q.observe(job.Type, OutcomeDropped, 0)
		}
	}
	dropped := len(q.timers)
	q.timers = map[*time.Timer]Job{}
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name), zap.Int("dropped_delayed", dropped))
}

// Pending reports how many jobs are waiting on a delay or retry timer.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// Enqueue hands a job to the workers, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx, ready := q.ctx, q.started && !q.stopped
	q.mu.Unlock()
	if !ready {
		return fmt.Errorf("queue %s is not running", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

// EnqueueAfter runs the job once delay has elapsed.
func (q *Queue) EnqueueAfter(job Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(job)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	return q.schedule(job, delay)
}

func (q *Queue) schedule(job Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started || q.stopped {
		return fmt.Errorf("queue %s is not running", q.name)
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		q.mu.Lock()
		_, live := q.timers[t]
		delete(q.timers, t)
		q.mu.Unlock()
		if !live {
			return
		}
		if err := q.Enqueue(job); err != nil {
			q.observe(job.Type, OutcomeDropped, 0)
			q.cfg.Logger.Warn("delayed job dropped", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.Error(err))
		}
	})
	q.timers[t] = job
	return nil
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	start := time.Now()
	err := q.handler(q.ctx, job)
	took := time.Since(start)
	if err == nil {
		q.observe(job.Type, OutcomeSucceeded, took)
		return
	}

	job.Attempt++
	log := q.cfg.Logger.With(zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))
	if job.Attempt > q.cfg.MaxRetries {
		q.observe(job.Type, OutcomeFailed, took)
		log.Error("job exceeded retries")
		return
	}
	q.observe(job.Type, OutcomeRetried, took)
	if serr := q.schedule(job, q.cfg.RetryDelay*time.Duration(job.Attempt)); serr != nil {
		log.Warn("job retry not scheduled", zap.NamedError("schedule_error", serr))
		return
	}
	log.Warn("job failed, retrying")
}

func (q *Queue) observe(jobType string, outcome Outcome, took time.Duration) {
	if q.cfg.Observer != nil {
		q.cfg.Observer(q.name, jobType, outcome, took)
	}
}
