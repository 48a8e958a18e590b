package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/statload/backend/internal/domain/eurostat"
)

// StaleDatasetSource lists tracked datasets not downloaded since today
type StaleDatasetSource interface {
	StaleDatasets(ctx context.Context, today time.Time) ([]eurostat.Dataset, error)
}

// Submitter queues jobs
type Submitter interface {
	Submit(kind JobKind, code, title string) (Job, error)
}

// RefreshTriggerConfig holds configuration for the daily refresh
type RefreshTriggerConfig struct {
	// Hour is the local hour (0-23) at which stale datasets are refreshed
	Hour int
	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultRefreshTriggerConfig returns default refresh trigger configuration
func DefaultRefreshTriggerConfig() RefreshTriggerConfig {
	return RefreshTriggerConfig{
		Hour:          3,
		CheckInterval: 10 * time.Minute,
	}
}

// RefreshTrigger submits refresh jobs for stale datasets once a day
type RefreshTrigger struct {
	config    RefreshTriggerConfig
	submitter Submitter
	source    StaleDatasetSource
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewRefreshTrigger creates a new refresh trigger
func NewRefreshTrigger(cfg RefreshTriggerConfig, submitter Submitter, source StaleDatasetSource, log *zap.Logger) *RefreshTrigger {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultRefreshTriggerConfig().CheckInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RefreshTrigger{
		config:    cfg,
		submitter: submitter,
		source:    source,
		logger:    log,
		now:       time.Now,
	}
}

// Start starts the check loop
func (r *RefreshTrigger) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.runLoop(ctx)

	r.logger.Info("Refresh trigger started",
		zap.Int("hour", r.config.Hour),
		zap.Duration("check_interval", r.config.CheckInterval),
	)
	return nil
}

// Stop stops the check loop
func (r *RefreshTrigger) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Refresh trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RefreshTrigger) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the refresh at most once per day, during the
// configured hour.
func (r *RefreshTrigger) checkAndTrigger(ctx context.Context) int {
	now := r.now()
	currentDate := now.Format("2006-01-02")

	r.mu.Lock()
	if r.lastRunDate == currentDate || now.Hour() != r.config.Hour {
		r.mu.Unlock()
		return 0
	}
	r.lastRunDate = currentDate
	r.mu.Unlock()

	r.logger.Info("Triggering daily dataset refresh")
	n, err := r.TriggerNow(ctx)
	if err != nil {
		r.logger.Error("Failed to list stale datasets", zap.Error(err))
	}
	return n
}

// TriggerNow submits a refresh job for every stale dataset and returns how
// many were queued.
func (r *RefreshTrigger) TriggerNow(ctx context.Context) (int, error) {
	stale, err := r.source.StaleDatasets(ctx, r.now())
	if err != nil {
		return 0, err
	}

	r.logger.Info("Scheduling refresh for stale datasets", zap.Int("count", len(stale)))
	queued := 0
	for _, ds := range stale {
		if _, err := r.submitter.Submit(JobKindRefresh, ds.Code, ds.Title); err != nil {
			r.logger.Error("Failed to schedule refresh",
				zap.String("dataset", ds.Code),
				zap.Error(err),
			)
			continue
		}
		queued++
	}
	return queued, nil
}
