package eurostat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/fetch"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// Executor runs scheduler jobs against the Service
type Executor struct {
	service *Service
}

// NewExecutor creates the job executor for s
func NewExecutor(s *Service) *Executor {
	return &Executor{service: s}
}

// Execute implements scheduler.JobExecutor
func (e *Executor) Execute(ctx context.Context, job scheduler.Job) error {
	var (
		res *LoadResult
		err error
	)
	switch job.Kind {
	case scheduler.JobKindDownload:
		res, err = e.service.DownloadDataset(ctx, job.DatasetCode, job.DatasetTitle)
	case scheduler.JobKindRefresh:
		res, err = e.service.Refresh(ctx, job.DatasetCode, job.DatasetTitle)
	default:
		return scheduler.Permanent(fmt.Errorf("%w: unknown kind %q", scheduler.ErrInvalidJob, job.Kind))
	}
	if isPermanent(err) {
		return scheduler.Permanent(err)
	}
	if err != nil {
		return err
	}

	logger.L(ctx).Info("Job finished",
		zap.String("kind", string(job.Kind)),
		zap.Bool("up_to_date", res.UpToDate),
		zap.Int64("rows", res.Rows),
		zap.String("view", res.View),
	)
	return nil
}

// isPermanent reports failures that fail again on retry: an empty or
// unknown dataset, invalid input and 4xx answers.
func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, shared.ErrEmptyDataset) || errors.Is(err, shared.ErrInvalidInput) {
		return true
	}
	var statusErr *fetch.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError
}

var (
	_ scheduler.JobExecutor        = (*Executor)(nil)
	_ scheduler.StaleDatasetSource = (*Service)(nil)
)
