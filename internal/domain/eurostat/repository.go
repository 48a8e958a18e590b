package eurostat

import (
	"context"
	"time"
)

// DownloadLogRepository persists download dates per dataset
type DownloadLogRepository interface {
	// Get returns the log for code, or shared.ErrNotFound
	Get(ctx context.Context, code string) (*DownloadLog, error)
	// Touch upserts the download date of code
	Touch(ctx context.Context, code string, day time.Time) error
}

// ViewCatalogRepository persists the views created for datasets
type ViewCatalogRepository interface {
	// Upsert inserts or refreshes a view row, resetting created_at
	Upsert(ctx context.Context, viewName, datasetCode, datasetTitle string) error
	// List returns all views, most recent first
	List(ctx context.Context) ([]ViewEntry, error)
	// ListDatasets returns the distinct datasets that have a view, most recent first
	ListDatasets(ctx context.Context) ([]DatasetSummary, error)
}

// DatasetRepository persists downloaded datasets
type DatasetRepository interface {
	Save(ctx context.Context, ds *Dataset) error
	FindByCode(ctx context.Context, code string) (*Dataset, error)
	List(ctx context.Context) ([]Dataset, error)
	// StaleBefore returns tracked datasets not downloaded since day
	StaleBefore(ctx context.Context, day time.Time) ([]Dataset, error)
}
