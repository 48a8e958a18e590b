package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDownloadLogRepository implements eurostat.DownloadLogRepository
type GormDownloadLogRepository struct {
	db *gorm.DB
}

// NewGormDownloadLogRepository creates a new download log repository
func NewGormDownloadLogRepository(db *gorm.DB) *GormDownloadLogRepository {
	return &GormDownloadLogRepository{db: db}
}

// Get returns the download log of a dataset
func (r *GormDownloadLogRepository) Get(ctx context.Context, code string) (*eurostat.DownloadLog, error) {
	var model models.DownloadLogModel
	err := r.db.WithContext(ctx).
		Where("dataset_code = ?", eurostat.NormalizeCode(code)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Touch records day as the last download date of a dataset
func (r *GormDownloadLogRepository) Touch(ctx context.Context, code string, day time.Time) error {
	model := models.DownloadLogModel{
		DatasetCode:      eurostat.NormalizeCode(code),
		LastDownloadDate: eurostat.Day(day),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dataset_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_download_date"}),
	}).Create(&model).Error
}

// GormViewCatalogRepository implements eurostat.ViewCatalogRepository
type GormViewCatalogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormViewCatalogRepository creates a new view catalogue repository
func NewGormViewCatalogRepository(db *gorm.DB) *GormViewCatalogRepository {
	return &GormViewCatalogRepository{db: db, now: time.Now}
}

// Upsert records a view. Re-creating a view refreshes its dataset, title and creation time.
func (r *GormViewCatalogRepository) Upsert(ctx context.Context, viewName, datasetCode, datasetTitle string) error {
	model := models.ViewCatalogModel{
		ViewName:     viewName,
		DatasetCode:  datasetCode,
		DatasetTitle: datasetTitle,
		CreatedAt:    r.now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "view_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"dataset_code", "dataset_title", "created_at"}),
	}).Create(&model).Error
}

// List returns every catalogued view, most recent first
func (r *GormViewCatalogRepository) List(ctx context.Context) ([]eurostat.ViewEntry, error) {
	var rows []models.ViewCatalogModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("view_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]eurostat.ViewEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ListDatasets returns the distinct datasets that have a view, most recent first
func (r *GormViewCatalogRepository) ListDatasets(ctx context.Context) ([]eurostat.DatasetSummary, error) {
	var out []eurostat.DatasetSummary
	err := r.db.WithContext(ctx).
		Model(&models.ViewCatalogModel{}).
		Distinct("dataset_code", "dataset_title", "created_at").
		Order("created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GormEurostatDatasetRepository implements eurostat.DatasetRepository
type GormEurostatDatasetRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormEurostatDatasetRepository creates a new dataset repository
func NewGormEurostatDatasetRepository(db *gorm.DB) *GormEurostatDatasetRepository {
	return &GormEurostatDatasetRepository{db: db, now: time.Now}
}

// Save inserts a dataset or refreshes its view, title, description and last_updated
func (r *GormEurostatDatasetRepository) Save(ctx context.Context, ds *eurostat.Dataset) error {
	now := r.now()
	model := models.EurostatDatasetModelFromDomain(ds)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.LastUpdated = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dataset_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"view_name", "dataset_title", "description", "last_updated"}),
	}).Create(model).Error
	if err != nil {
		return err
	}
	ds.LastUpdated = now
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = model.CreatedAt
	}
	return nil
}

// FindByCode returns a tracked dataset
func (r *GormEurostatDatasetRepository) FindByCode(ctx context.Context, code string) (*eurostat.Dataset, error) {
	var model models.EurostatDatasetModel
	if err := r.db.WithContext(ctx).Where("dataset_code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns tracked datasets by code
func (r *GormEurostatDatasetRepository) List(ctx context.Context) ([]eurostat.Dataset, error) {
	var rows []models.EurostatDatasetModel
	if err := r.db.WithContext(ctx).Order("dataset_code").Find(&rows).Error; err != nil {
		return nil, err
	}
	return datasetsToDomain(rows), nil
}

// StaleBefore returns tracked datasets whose last download is before day or unknown
func (r *GormEurostatDatasetRepository) StaleBefore(ctx context.Context, day time.Time) ([]eurostat.Dataset, error) {
	var rows []models.EurostatDatasetModel
	err := r.db.WithContext(ctx).
		Table(models.EurostatDatasetModel{}.TableName()+" AS d").
		Select("d.*").
		Joins("LEFT JOIN "+models.DownloadLogModel{}.TableName()+" AS l ON l.dataset_code = UPPER(d.dataset_code)").
		Where("l.dataset_code IS NULL OR l.last_download_date < ?", eurostat.Day(day)).
		Order("d.dataset_code").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return datasetsToDomain(rows), nil
}

func datasetsToDomain(rows []models.EurostatDatasetModel) []eurostat.Dataset {
	out := make([]eurostat.Dataset, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
