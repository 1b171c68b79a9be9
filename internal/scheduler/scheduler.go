package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuspage/internal/domain"
	"github.com/hamed0406/statuspage/internal/metrics"
)

// Job is one probe invocation. *probe.Monitor implements it.
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler invokes Job on a fixed cadence. Runs are sequential, so two runs
// of the same scheduler never overlap.
type Scheduler struct {
	Logger   *zap.Logger
	Job      Job
	Interval time.Duration
	Timeout  time.Duration
	Metrics  *metrics.Metrics
}

func New(logger *zap.Logger, job Job, interval, timeout time.Duration, m *metrics.Metrics) *Scheduler {
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scheduler{
		Logger:   logger,
		Job:      job,
		Interval: interval,
		Timeout:  timeout,
		Metrics:  m,
	}
}

// Run does an immediate pass, then one per tick. Stops when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Interval == 0 {
		s.Logger.Info("scheduler_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.Logger.Info("scheduler_started", zap.Duration("interval", s.Interval), zap.Duration("timeout", s.Timeout))
	if ctx.Err() == nil {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("scheduler_stopped")
			return
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce bounds a single run by Timeout and reports its error; the loop
// keeps going either way.
func (s *Scheduler) runOnce(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	err := s.Job.Run(cctx)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		s.Logger.Info("probe_run_cancelled")
		return
	}
	s.Metrics.ProbeRunFailed()

	var pte *domain.ProbeTransportError
	s.Logger.Error("probe_run_failed",
		zap.Bool("transport_error", errors.As(err, &pte)),
		zap.Bool("store_unavailable", domain.IsStoreUnavailable(err)),
		zap.Error(err),
	)
}
