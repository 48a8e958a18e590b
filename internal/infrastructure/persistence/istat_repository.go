package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// deleteChunk bounds the size of IN lists when clearing details and groups
const deleteChunk = 1000

// StructureRepositoryOptions configures batched detail writes
type StructureRepositoryOptions struct {
	BatchSize int
	Retries   int
	RetryWait time.Duration
	Logger    *zap.Logger
}

// GormStructureRepository implements sdmx.StructureRepository
type GormStructureRepository struct {
	db   *gorm.DB
	opts StructureRepositoryOptions
}

// NewGormStructureRepository creates a new structure repository
func NewGormStructureRepository(db *gorm.DB, opts StructureRepositoryOptions) *GormStructureRepository {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &GormStructureRepository{db: db, opts: opts}
}

// UpsertDataflows inserts dataflows, updating every column on conflict
func (r *GormStructureRepository) UpsertDataflows(ctx context.Context, flows []sdmx.Dataflow) error {
	if len(flows) == 0 {
		return nil
	}
	rows := make([]models.DataflowModel, len(flows))
	for i, f := range flows {
		rows[i] = models.DataflowModelFromDomain(f)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(rows, r.opts.BatchSize).Error
}

// UpsertDataStructures inserts structures, updating every column on conflict
func (r *GormStructureRepository) UpsertDataStructures(ctx context.Context, structures []sdmx.DataStructure) error {
	if len(structures) == 0 {
		return nil
	}
	rows := make([]models.DataStructureModel, len(structures))
	for i, s := range structures {
		rows[i] = models.DataStructureModelFromDomain(s)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(rows, r.opts.BatchSize).Error
}

// ReplaceDetails clears the details of structureIDs and inserts details in
// batches. A failed batch is retried after RetryWait.
func (r *GormStructureRepository) ReplaceDetails(ctx context.Context, structureIDs []string, details []sdmx.StructureDetail) error {
	if err := r.deleteByStructure(ctx, &models.StructureDetailModel{}, structureIDs); err != nil {
		return fmt.Errorf("clear details: %w", err)
	}

	rows := make([]models.StructureDetailModel, len(details))
	for i, d := range details {
		rows[i] = models.StructureDetailModelFromDomain(d)
	}

	total := (len(rows) + r.opts.BatchSize - 1) / r.opts.BatchSize
	for start, n := 0, 1; start < len(rows); start, n = start+r.opts.BatchSize, n+1 {
		end := min(start+r.opts.BatchSize, len(rows))
		batch := rows[start:end]
		if err := r.withRetry(ctx, func() error {
			return r.db.WithContext(ctx).Create(&batch).Error
		}); err != nil {
			return fmt.Errorf("insert details batch %d/%d: %w", n, total, err)
		}
		r.opts.Logger.Debug("Inserted detail batch",
			zap.Int("batch", n), zap.Int("batches", total), zap.Int("rows", len(batch)))
	}
	return nil
}

// ReplaceGroups clears the groups of structureIDs and inserts groups
func (r *GormStructureRepository) ReplaceGroups(ctx context.Context, structureIDs []string, groups []sdmx.StructureGroup) error {
	if err := r.deleteByStructure(ctx, &models.StructureGroupModel{}, structureIDs); err != nil {
		return fmt.Errorf("clear groups: %w", err)
	}
	if len(groups) == 0 {
		return nil
	}
	rows := make([]models.StructureGroupModel, len(groups))
	for i, g := range groups {
		rows[i] = models.StructureGroupModel{DataStructureID: g.DataStructureID, GroupID: g.GroupID}
	}
	return r.withRetry(ctx, func() error {
		return r.db.WithContext(ctx).CreateInBatches(rows, r.opts.BatchSize).Error
	})
}

func (r *GormStructureRepository) deleteByStructure(ctx context.Context, model any, structureIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(structureIDs); start += deleteChunk {
			end := min(start+deleteChunk, len(structureIDs))
			if err := tx.Where("datastructure_id IN ?", structureIDs[start:end]).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormStructureRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.opts.Retries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == r.opts.Retries {
			break
		}
		r.opts.Logger.Warn("Write failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", r.opts.RetryWait), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.RetryWait):
		}
	}
	return err
}

// ListDataflows returns every dataflow ordered by ID
func (r *GormStructureRepository) ListDataflows(ctx context.Context) ([]sdmx.Dataflow, error) {
	var rows []models.DataflowModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return dataflowsToDomain(rows), nil
}

// FindDataflow returns a dataflow by ID
func (r *GormStructureRepository) FindDataflow(ctx context.Context, id string) (*sdmx.Dataflow, error) {
	var model models.DataflowModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	df := model.ToDomain()
	return &df, nil
}

// DataStructureFor returns the structure referenced by a dataflow
func (r *GormStructureRepository) DataStructureFor(ctx context.Context, dataflowID string) (*sdmx.DataStructure, error) {
	db := r.db.WithContext(ctx)
	var model models.DataStructureModel
	err := db.Where("id = (?)", db.Model(&models.DataflowModel{}).Select("ref_id").Where("id = ?", dataflowID)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// DimensionCodelists returns the distinct codelists of a dataflow's
// dimensions, ordered by dimension.
func (r *GormStructureRepository) DimensionCodelists(ctx context.Context, dataflowID string) ([]sdmx.DimensionCodelist, error) {
	db := r.db.WithContext(ctx)
	var out []sdmx.DimensionCodelist
	err := db.Model(&models.StructureDetailModel{}).
		Distinct("detail_id", "enum_id").
		Where("datastructure_id = (?)", db.Model(&models.DataflowModel{}).Select("ref_id").Where("id = ?", dataflowID)).
		Where("type = ?", sdmx.ComponentDimension).
		Where("enum_id IS NOT NULL AND enum_id <> ''").
		Order("detail_id").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GormCategoryRepository implements sdmx.CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new category repository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// UpsertCategories inserts categories, leaving existing rows untouched
func (r *GormCategoryRepository) UpsertCategories(ctx context.Context, cats []sdmx.Category) error {
	if len(cats) == 0 {
		return nil
	}
	rows := make([]models.CategoryModel, len(cats))
	for i, c := range cats {
		rows[i] = models.CategoryModel{CategoryID: c.ID, NameIT: c.NameIT, NameEN: c.NameEN}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 500).Error
}

// ReplaceMapping replaces the dataflow to category mapping in one transaction
func (r *GormCategoryRepository) ReplaceMapping(ctx context.Context, links []sdmx.DataflowCategory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.DataflowCategoryModel{}).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		rows := make([]models.DataflowCategoryModel, len(links))
		for i, l := range links {
			rows[i] = models.DataflowCategoryModel{DataflowID: l.DataflowID, CategoryID: l.CategoryID}
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

// ListCategories returns every category ordered by ID
func (r *GormCategoryRepository) ListCategories(ctx context.Context) ([]sdmx.Category, error) {
	var rows []models.CategoryModel
	if err := r.db.WithContext(ctx).Order("category_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sdmx.Category, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// DataflowsForCategory returns the dataflows mapped to a category ordered by ID
func (r *GormCategoryRepository) DataflowsForCategory(ctx context.Context, categoryID string) ([]sdmx.Dataflow, error) {
	var rows []models.DataflowModel
	err := r.db.WithContext(ctx).
		Table(models.DataflowModel{}.TableName()+" AS df").
		Select("df.*").
		Joins("JOIN "+models.DataflowCategoryModel{}.TableName()+" AS dc ON dc.dataflow_id = df.id").
		Where("dc.category_id = ?", categoryID).
		Order("df.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return dataflowsToDomain(rows), nil
}

// TablesForCategory returns id_refid names of the category's dataflows
func (r *GormCategoryRepository) TablesForCategory(ctx context.Context, categoryID string) ([]string, error) {
	flows, err := r.DataflowsForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(flows))
	for i, f := range flows {
		out[i] = f.TableName()
	}
	return out, nil
}

func dataflowsToDomain(rows []models.DataflowModel) []sdmx.Dataflow {
	out := make([]sdmx.Dataflow, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// GormLoadLogRepository implements sdmx.LoadLogRepository
type GormLoadLogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormLoadLogRepository creates a new load log repository
func NewGormLoadLogRepository(db *gorm.DB) *GormLoadLogRepository {
	return &GormLoadLogRepository{db: db, now: time.Now}
}

// Start records a running load
func (r *GormLoadLogRepository) Start(ctx context.Context, dataflowID, table string) (*sdmx.LoadLog, error) {
	model := models.LoadLogModel{
		DataflowID: dataflowID,
		Table:      table,
		Status:     sdmx.LoadRunning,
		StartedAt:  r.now(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Finish stores the outcome of a load
func (r *GormLoadLogRepository) Finish(ctx context.Context, log *sdmx.LoadLog) error {
	finished := r.now()
	log.FinishedAt = &finished
	return r.db.WithContext(ctx).Model(&models.LoadLogModel{}).
		Where("id = ?", log.ID).
		Updates(map[string]any{
			"rows":        log.Rows,
			"status":      log.Status,
			"error":       log.Error,
			"finished_at": finished,
		}).Error
}

// Recent returns the latest loads, newest first
func (r *GormLoadLogRepository) Recent(ctx context.Context, limit int) ([]sdmx.LoadLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.LoadLogModel
	if err := r.db.WithContext(ctx).Order("started_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sdmx.LoadLog, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}
