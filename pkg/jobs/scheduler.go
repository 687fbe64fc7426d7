package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs periodic maintenance tasks on cron specs.
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	timeout  time.Duration
	observer Observer
}

// NewScheduler builds a scheduler. Each run gets its own context bounded by timeout.
func NewScheduler(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger:  logger,
		timeout: timeout,
	}
}

// Observe reports every task run under the queue label "cron". Call before Start.
func (s *Scheduler) Observe(o Observer) {
	s.observer = o
}

// Register adds a named task. spec accepts standard five-field cron or descriptors like "@every 1h".
func (s *Scheduler) Register(name, spec string, task func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		err := task(ctx)
		took := time.Since(start)
		if err != nil {
			s.report(name, OutcomeFailed, took)
			s.logger.Sugar().Errorw("scheduled task failed", "task", name, "error", err)
			return
		}
		s.report(name, OutcomeSucceeded, took)
		s.logger.Sugar().Debugw("scheduled task finished", "task", name, "duration", took)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Sugar().Infow("scheduled task registered", "task", name, "spec", spec)
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running tasks until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with tasks still running")
	}
}

func (s *Scheduler) report(name string, outcome Outcome, took time.Duration) {
	if s.observer != nil {
		s.observer("cron", name, outcome, took)
	}
}
