package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultInterval = time.Minute

type jobRecorder interface {
	ObserveJob(job string, duration time.Duration, err error)
}

// ServiceParams configure the janitor service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Metrics  jobRecorder
	Interval time.Duration
}

// Service runs the registered jobs on a fixed cadence inside the API process.
// Jobs that must run on a single instance are wrapped with Exclusive.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	metrics  jobRecorder
	interval time.Duration
}

// NewService builds a janitor service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run ticks until the context is canceled. Jobs first run one interval after start.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":     s.registry.Names(),
		"interval": s.interval.String(),
	}), "janitor started")

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "janitor context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "janitor.job",
	})
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveJob(job.Name(), duration, err)
	}
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return
	}
	s.logg.Debug(jobCtx, "job completed")
}

// Exclusive runs job only while holding lock, skipping the tick when another
// instance owns it. A nil lock returns job unchanged.
func Exclusive(job Job, lock Lock) Job {
	if job == nil || lock == nil {
		return job
	}
	return &exclusiveJob{job: job, lock: lock}
}

type exclusiveJob struct {
	job  Job
	lock Lock
}

func (e *exclusiveJob) Name() string { return e.job.Name() }

func (e *exclusiveJob) Run(ctx context.Context) (err error) {
	locked, err := e.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		return nil
	}
	defer func() {
		if relErr := e.lock.Release(ctx); relErr != nil && err == nil {
			err = fmt.Errorf("lock release: %w", relErr)
		}
	}()
	return e.job.Run(ctx)
}
