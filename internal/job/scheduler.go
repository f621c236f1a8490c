// Package job runs the background maintenance tasks on a cron schedule.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runnable is a background task triggered by the scheduler.
type Runnable interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler drives the registered tasks off standard five-field cron
// expressions or descriptors like "@every 1m". Every run is bounded by the
// configured timeout and a panicking task does not take the process down.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	started bool
}

// NewScheduler builds an idle scheduler. A non-positive timeout falls back
// to one minute per run.
func NewScheduler(logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{cron: cron.New(), logger: logger, timeout: timeout}
}

// Register binds a cron expression to a task.
func (s *Scheduler) Register(spec string, runnable Runnable) error {
	if runnable == nil {
		return fmt.Errorf("scheduler: runnable is required")
	}
	if spec == "" {
		return fmt.Errorf("scheduler: spec is required")
	}
	if _, err := s.cron.AddFunc(spec, s.run(runnable)); err != nil {
		return fmt.Errorf("scheduler: register %s: %w", runnable.Name(), err)
	}
	s.logger.Info("job registered", "job", runnable.Name(), "spec", spec)
	return nil
}

// Start launches the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop halts scheduling and returns a context that completes when running
// jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

func (s *Scheduler) run(runnable Runnable) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("job panicked", "job", runnable.Name(), "panic", rec)
			}
		}()
		if err := runnable.Run(ctx); err != nil {
			s.logger.Error("job failed", "job", runnable.Name(), "error", err, "elapsed", time.Since(start))
			return
		}
		s.logger.Debug("job completed", "job", runnable.Name(), "elapsed", time.Since(start))
	}
}
