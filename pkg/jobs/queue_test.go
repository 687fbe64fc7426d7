package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomeLog struct {
	mu  sync.Mutex
	got []Outcome
}

func (o *outcomeLog) observe(_, _ string, outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, outcome)
}

func (o *outcomeLog) snapshot() []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Outcome(nil), o.got...)
}

func TestQueueProcessesJobs(t *testing.T) {
	var processed int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "noop"}))
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&processed) == 5 }, time.Second, 5*time.Millisecond)
}

func TestQueueEnqueueAfterHonoursDelay(t *testing.T) {
	done := make(chan time.Time, 1)
	q := NewQueue("delayed", func(ctx context.Context, job Job) error {
		done <- time.Now()
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	start := time.Now()
	require.NoError(t, q.EnqueueAfter(Job{ID: "settle"}, 50*time.Millisecond))
	assert.Equal(t, 1, q.Pending())

	select {
	case ranAt := <-done:
		assert.GreaterOrEqual(t, ranAt.Sub(start), 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("delayed job did not run")
	}
	assert.Equal(t, 0, q.Pending())
}

func TestQueueDelayedJobsDoNotBlockWorkers(t *testing.T) {
	ran := make(chan string, 2)
	q := NewQueue("single", func(ctx context.Context, job Job) error {
		ran <- job.ID
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.EnqueueAfter(Job{ID: "later"}, time.Hour))
	require.NoError(t, q.Enqueue(Job{ID: "now"}))

	select {
	case id := <-ran:
		assert.Equal(t, "now", id)
	case <-time.After(time.Second):
		t.Fatal("immediate job was blocked by delayed job")
	}
}

func TestQueueRetriesFailures(t *testing.T) {
	var attempts int32
	outcomes := &outcomeLog{}
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond, Observer: outcomes.observe})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(outcomes.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Outcome{OutcomeRetried, OutcomeRetried, OutcomeSucceeded}, outcomes.snapshot())
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	outcomes := &outcomeLog{}
	q := NewQueue("broken", func(ctx context.Context, job Job) error {
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, Observer: outcomes.observe})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "doomed"}))
	require.Eventually(t, func() bool { return len(outcomes.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Outcome{OutcomeRetried, OutcomeFailed}, outcomes.snapshot())
}

func TestQueueStopDropsDelayedJobs(t *testing.T) {
	outcomes := &outcomeLog{}
	var ran int32
	q := NewQueue("shutdown", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, QueueConfig{Observer: outcomes.observe})
	q.Start(context.Background())

	require.NoError(t, q.EnqueueAfter(Job{ID: "late", Type: "settle"}, time.Hour))
	q.Stop()

	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, []Outcome{OutcomeDropped}, outcomes.snapshot())
	assert.Zero(t, atomic.LoadInt32(&ran))
	assert.Error(t, q.EnqueueAfter(Job{ID: "after-stop"}, time.Second))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
	assert.Error(t, q.EnqueueAfter(Job{ID: "y"}, time.Second))
}
