// Package scheduler runs delayed background jobs inside the service process.
// Jobs are fire-and-forget: a failing or panicking job is logged and dropped,
// it never propagates to the operation that scheduled it.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"syncspace-backend/pkg/logger"
)

// Job is a unit of deferred work
type Job func(ctx context.Context) error

// Scheduler runs jobs after a delay on background goroutines
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler whose jobs are cancelled on Shutdown
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// RunAfter schedules job to run once after delay. A zero delay runs the job
// immediately on a background goroutine.
func (s *Scheduler) RunAfter(delay time.Duration, name string, job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("scheduled job panicked",
					zap.String("job", name),
					zap.Any("panic", r),
				)
			}
		}()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-s.ctx.Done():
				return
			}
		}

		if err := job(s.ctx); err != nil {
			logger.Error("scheduled job failed",
				zap.String("job", name),
				zap.Error(err),
			)
		}
	}()
}

// Shutdown cancels pending jobs and waits for running ones to finish,
// up to the context deadline
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
