// Package scheduler runs Eurostat dataset downloads on a worker pool and
// triggers the daily refresh of tracked datasets.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/logger"
)

// finishedRetention is how long completed and failed jobs stay queryable
const finishedRetention = 24 * time.Hour

// JobExecutor runs a job. It receives a copy; status is owned by the scheduler.
type JobExecutor interface {
	Execute(ctx context.Context, job Job) error
}

// JobExecutorFunc adapts a function to JobExecutor
type JobExecutorFunc func(ctx context.Context, job Job) error

// Execute calls f
func (f JobExecutorFunc) Execute(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       2,
		QueueSize:     100,
		JobTimeout:    30 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
	}
}

// ConfigFrom maps the application scheduler section
func ConfigFrom(cfg config.SchedulerConfig) SchedulerConfig {
	out := DefaultSchedulerConfig()
	if cfg.Workers > 0 {
		out.Workers = cfg.Workers
	}
	if cfg.QueueSize > 0 {
		out.QueueSize = cfg.QueueSize
	}
	if cfg.JobTimeout > 0 {
		out.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryAttempts > 0 {
		out.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		out.RetryDelay = cfg.RetryDelay
	}
	return out
}

// Scheduler manages download jobs
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	queue     chan uuid.UUID
	jobs      map[uuid.UUID]*Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	timers    map[uuid.UUID]*time.Timer
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg SchedulerConfig, executor JobExecutor, log *zap.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultSchedulerConfig().QueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		config:   cfg,
		executor: executor,
		logger:   log,
		queue:    make(chan uuid.UUID, cfg.QueueSize),
		jobs:     make(map[uuid.UUID]*Job),
		timers:   make(map[uuid.UUID]*time.Timer),
	}
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Download scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Download scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Download scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a job for a dataset. When a job of the same kind is already
// pending or running for the dataset, that job is returned instead.
func (s *Scheduler) Submit(kind JobKind, code, title string) (Job, error) {
	if !kind.Valid() || code == "" {
		return Job{}, ErrInvalidJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return Job{}, ErrSchedulerNotRunning
	}
	s.pruneLocked(time.Now())

	for _, j := range s.jobs {
		if j.Kind == kind && j.DatasetCode == code && j.Active() {
			return *j, nil
		}
	}

	job := NewJob(kind, code, title, s.config.RetryAttempts)
	select {
	case s.queue <- job.ID:
	default:
		return Job{}, ErrJobQueueFull
	}
	s.jobs[job.ID] = job
	s.logger.Debug("Job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("dataset", code),
	)
	return *job, nil
}

// Get returns a snapshot of a job
func (s *Scheduler) Get(id uuid.UUID) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *j, nil
}

// List returns snapshots of every known job
func (s *Scheduler) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

func (s *Scheduler) pruneLocked(now time.Time) {
	for id, j := range s.jobs {
		if !j.Active() && j.CompletedAt != nil && now.Sub(*j.CompletedAt) > finishedRetention {
			delete(s.jobs, id)
		}
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()
	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case id := <-s.queue:
			s.processJob(ctx, id, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, id uuid.UUID, workerID int) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	job.Start()
	snapshot := *job
	s.mu.Unlock()

	jobCtx, log := logger.WithJobID(ctx, s.logger, id.String())
	jobCtx, log = logger.WithDataset(jobCtx, log, snapshot.DatasetCode)
	log.Info("Processing job", zap.Int("worker_id", workerID), zap.String("kind", string(snapshot.Kind)))

	jobCtx, cancel := context.WithTimeout(jobCtx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		job.Complete()
		log.Info("Job completed successfully", zap.Int("worker_id", workerID))
		return
	}

	job.Fail(err.Error())
	if errors.Is(err, ErrPermanent) {
		log.Error("Job failed permanently", zap.Int("worker_id", workerID), zap.Error(err))
		return
	}
	log.Error("Job failed", zap.Int("worker_id", workerID), zap.Error(err))
	if !job.ShouldRetry() || !s.isRunning || ctx.Err() != nil {
		return
	}

	delay := RetryDelay(s.config.RetryDelay, job.RetryCount)
	job.ScheduleRetry(delay)
	log.Info("Job scheduled for retry",
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", delay),
	)
	s.timers[id] = time.AfterFunc(delay, func() { s.requeue(id) })
}

func (s *Scheduler) requeue(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
	job, ok := s.jobs[id]
	if !ok || !s.isRunning {
		return
	}
	select {
	case s.queue <- id:
	default:
		job.Fail(ErrJobQueueFull.Error())
		s.logger.Warn("Failed to re-queue job for retry", zap.String("job_id", id.String()))
	}
}
