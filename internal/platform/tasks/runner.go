package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner executes fire-and-forget background work on goroutines. Tasks get a
// fresh context detached from the originating request so they survive the
// response being written; a panic in a task is recovered and logged, never
// crashing the server.
type Runner struct {
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a task runner. timeout bounds each task's context.
func NewRunner(logger *slog.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{logger: logger, timeout: timeout}
}

// Dispatch schedules fn on a background goroutine and returns immediately.
func (r *Runner) Dispatch(name string, fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("Background task panicked", slog.String("task", name), slog.Any("panic", rec))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		fn(ctx)
		r.logger.Debug("Background task finished", slog.String("task", name), slog.Duration("took", time.Since(start)))
	}()
}

// Wait blocks until all dispatched tasks finish. Used on shutdown and tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
