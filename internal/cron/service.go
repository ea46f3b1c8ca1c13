package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/metrics"
)

const (
	defaultInterval   = 15 * time.Minute
	defaultJobTimeout = 5 * time.Minute
)

// ErrJobsFailed is returned by RunOnce when at least one job failed.
var ErrJobsFailed = errors.New("cron jobs failed")

type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs the registered jobs on a fixed cadence. Every cycle holds the
// lock, so only one replica does the work.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	Skipped  bool
	Ran      []string
	Failed   []string
	LostLock bool
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry, _ = NewRegistry()
	}
	s := &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = defaultJobTimeout
	}
	return s, nil
}

// RunOnce executes a single cycle for one-shot invocations from an external
// scheduler. Job failures are reported through ErrJobsFailed so the process
// can exit non-zero.
func (s *Service) RunOnce(ctx context.Context) (CycleReport, error) {
	report, err := s.runCycle(ctx)
	if err != nil {
		return report, err
	}
	if len(report.Failed) > 0 {
		return report, fmt.Errorf("%w: %s", ErrJobsFailed, strings.Join(report.Failed, ", "))
	}
	return report, nil
}

// Run runs a cycle immediately and then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		report.Skipped = true
		s.logg.Info(ctx, "another cron worker holds the lock; skipping this cycle")
		return report, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	jobs := s.registry.Jobs()
	s.logg.Info(s.logg.WithField(ctx, "jobs", len(jobs)), "scheduled run starting")
	for i, job := range jobs {
		report.Ran = append(report.Ran, job.Name())
		if err := s.runJob(ctx, job); err != nil {
			report.Failed = append(report.Failed, job.Name())
		}
		if i < len(jobs)-1 && !s.keepLease(ctx) {
			report.LostLock = true
			break
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"ran":         len(report.Ran),
		"failed_jobs": report.Failed,
		"lost_lock":   report.LostLock,
	}), "scheduled run complete")
	return report, nil
}

// keepLease extends the lock between jobs. A lease that cannot be extended
// ends the cycle so two replicas never run jobs side by side.
func (s *Service) keepLease(ctx context.Context) bool {
	r, ok := s.lock.(refresher)
	if !ok {
		return true
	}
	held, err := r.Refresh(ctx)
	if err != nil {
		s.logg.Error(ctx, "cron lock refresh failed", err)
		return false
	}
	if !held {
		s.logg.Warn(ctx, "cron lock lost mid-cycle; stopping early")
	}
	return held
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	jobCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	s.metrics.ObserveRun(name, elapsed, err)

	doneCtx := s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(doneCtx, "job failed", err)
		return err
	}
	s.logg.Info(doneCtx, "job completed")
	return nil
}
