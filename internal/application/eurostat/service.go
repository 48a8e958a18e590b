package eurostat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/domain/viewdef"
	"github.com/statload/backend/internal/infrastructure/archive"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/eurostatapi"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Source is the archive folder and metric label of this service
const Source = "eurostat"

// Fetcher downloads remote resources
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	// GetCached serves catalogue documents from the response cache when possible
	GetCached(ctx context.Context, url string) ([]byte, error)
}

// Warehouse writes dataset and codelist tables
type Warehouse interface {
	EnsureSchema(ctx context.Context, schema string) error
	TableExists(ctx context.Context, schema, table string) (bool, error)
	DropDatasetTable(ctx context.Context, schema, table string) error
	CreateTypedTable(ctx context.Context, schema, table string, textCols, numericCols []string) error
	CopyRows(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error)
	UpsertEurostatCodelist(ctx context.Context, schema, table string, codes []sdmx.Code) (int64, error)
	Exec(ctx context.Context, sql string) error
}

// LoadResult describes one dataset download
type LoadResult struct {
	Code         string    `json:"dataset_code"`
	Title        string    `json:"dataset_title"`
	Table        string    `json:"table"`
	View         string    `json:"view,omitempty"`
	Rows         int64     `json:"rows"`
	Codelists    []string  `json:"codelists,omitempty"`
	Skipped      []string  `json:"skipped_params,omitempty"`
	UpToDate     bool      `json:"up_to_date"`
	LastDownload time.Time `json:"last_download,omitempty"`
}

// BrowseResult is a position in the catalogue tree
type BrowseResult struct {
	Node       *eurostat.Node   `json:"node"`
	Children   []*eurostat.Node `json:"children"`
	Breadcrumb []*eurostat.Node `json:"breadcrumb"`
}

// Option configures the Service
type Option func(*Service)

// WithMetrics records loads and views in m
func WithMetrics(m *telemetry.ETLMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service downloads Eurostat datasets and publishes their views
type Service struct {
	fetcher   Fetcher
	archive   archive.Archive
	warehouse Warehouse
	logs      eurostat.DownloadLogRepository
	views     eurostat.ViewCatalogRepository
	datasets  eurostat.DatasetRepository
	endpoints eurostatapi.Endpoints
	schema    string
	tocFile   string
	metrics   *telemetry.ETLMetrics
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.RWMutex
	tree *eurostat.Node
}

// NewService creates a new Eurostat service
func NewService(
	fetcher Fetcher,
	arch archive.Archive,
	wh Warehouse,
	logs eurostat.DownloadLogRepository,
	views eurostat.ViewCatalogRepository,
	datasets eurostat.DatasetRepository,
	cfg config.EurostatConfig,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		fetcher:   fetcher,
		archive:   arch,
		warehouse: wh,
		logs:      logs,
		views:     views,
		datasets:  datasets,
		endpoints: eurostatapi.NewEndpoints(cfg),
		schema:    cfg.Schema,
		tocFile:   cfg.TOCCacheFile,
		logger:    log.Named(Source),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadTree returns the catalogue tree. The archived TOC is reused unless
// refresh is set or no copy exists yet.
func (s *Service) LoadTree(ctx context.Context, refresh bool) (*eurostat.Node, error) {
	if !refresh {
		s.mu.RLock()
		tree := s.tree
		s.mu.RUnlock()
		if tree != nil {
			return tree, nil
		}
	}

	body, err := s.tocDocument(ctx, refresh)
	if err != nil {
		return nil, err
	}
	tree, err := eurostatapi.ParseTOC(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse eurostat toc: %w", err)
	}

	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()

	s.logger.Info("Catalogue loaded",
		zap.Int("branches", len(tree.Branches())),
		zap.Int("datasets", len(tree.Leaves())),
	)
	return tree, nil
}

func (s *Service) tocDocument(ctx context.Context, refresh bool) ([]byte, error) {
	if !refresh {
		exists, err := s.archive.Exists(ctx, Source, s.tocFile)
		if err != nil {
			return nil, err
		}
		if exists {
			return archive.ReadAll(ctx, s.archive, Source, s.tocFile)
		}
	}

	s.logger.Info("Downloading catalogue", zap.String("url", s.endpoints.TOC()))
	body, err := s.fetcher.Get(ctx, s.endpoints.TOC())
	if err != nil {
		return nil, fmt.Errorf("download eurostat toc: %w", err)
	}
	if err := archive.WriteAll(ctx, s.archive, Source, s.tocFile, body); err != nil {
		s.logger.Warn("Failed to archive catalogue", zap.Error(err))
	}
	return body, nil
}

// IsUpToDate reports whether code was already downloaded today. The
// returned log is nil when the dataset was never downloaded.
func (s *Service) IsUpToDate(ctx context.Context, code string) (bool, *eurostat.DownloadLog, error) {
	entry, err := s.logs.Get(ctx, eurostat.NormalizeCode(code))
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return entry.IsUpToDate(s.now()), entry, nil
}

// DownloadDataset loads a dataset unless it was already downloaded today.
// An empty title is resolved as in Refresh.
func (s *Service) DownloadDataset(ctx context.Context, code, title string) (*LoadResult, error) {
	upToDate, entry, err := s.IsUpToDate(ctx, code)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = s.titleOf(ctx, code)
	}
	if upToDate {
		return &LoadResult{
			Code:         eurostat.NormalizeCode(code),
			Title:        title,
			Table:        viewdef.EurostatTableName(code),
			UpToDate:     true,
			LastDownload: entry.LastDownloadDate,
		}, nil
	}
	return s.load(ctx, code, title)
}

// Refresh loads a dataset regardless of its download date. An empty title
// is looked up in the tracked datasets, then in the catalogue.
func (s *Service) Refresh(ctx context.Context, code, title string) (*LoadResult, error) {
	if title == "" {
		title = s.titleOf(ctx, code)
	}
	return s.load(ctx, code, title)
}

func (s *Service) titleOf(ctx context.Context, code string) string {
	if ds, err := s.datasets.FindByCode(ctx, eurostat.NormalizeCode(code)); err == nil && ds.Title != "" {
		return ds.Title
	}
	s.mu.RLock()
	tree := s.tree
	s.mu.RUnlock()
	if tree != nil {
		if node := tree.Find(code); node != nil {
			return node.Name
		}
	}
	return code
}

func (s *Service) load(ctx context.Context, code, title string) (res *LoadResult, err error) {
	if err := sdmx.ValidateID(code); err != nil {
		return nil, err
	}
	if title == "" {
		title = code
	}
	ctx, span := telemetry.StartSpan(ctx, "eurostat.load", "dataset", code)
	defer func() { telemetry.End(span, err) }()
	base := s.logger
	ctx, base = logger.WithSource(ctx, base, Source)
	ctx, _ = logger.WithDataset(ctx, base, code)
	log := logger.L(ctx)

	log.Info("Downloading dataset", zap.String("title", title))
	body, err := s.fetcher.Get(ctx, s.endpoints.Data(code))
	if err != nil {
		return nil, fmt.Errorf("download dataset %s: %w", code, err)
	}
	ds, err := eurostatapi.ParseTSV(bytes.NewReader(body))
	if err != nil {
		if errors.Is(err, shared.ErrEmptyDataset) {
			log.Warn("Dataset is empty or not found")
		}
		return nil, err
	}

	table := viewdef.EurostatTableName(code)
	res = &LoadResult{Code: eurostat.NormalizeCode(code), Title: title, Table: table}

	if err := s.warehouse.EnsureSchema(ctx, s.schema); err != nil {
		return nil, err
	}
	if err := s.warehouse.DropDatasetTable(ctx, s.schema, table); err != nil {
		return nil, err
	}
	if err := s.warehouse.CreateTypedTable(ctx, s.schema, table, ds.DimensionColumns(), ds.TimeColumns()); err != nil {
		return nil, err
	}
	res.Rows, err = s.warehouse.CopyRows(ctx, s.schema, table, ds.Columns, ds.Rows)
	if err != nil {
		return nil, err
	}
	log.Info("Dataset table written", zap.String("table", table), zap.Int64("rows", res.Rows))

	s.storeCodelists(ctx, log, code, ds.Params)

	joins, skipped, err := s.joins(ctx, code, ds)
	if err != nil {
		return nil, err
	}
	for _, j := range joins {
		res.Codelists = append(res.Codelists, j.Table)
	}
	res.Skipped = skipped
	for _, par := range skipped {
		log.Warn("Codelist table not found, parameter kept as code", zap.String("param", par))
	}

	view := viewdef.EurostatView{
		Schema:      s.schema,
		Name:        viewdef.EurostatViewName(title, code),
		Table:       table,
		DatasetLink: s.endpoints.DatasetLink(code),
		Joins:       joins,
	}
	if err := s.warehouse.Exec(ctx, view.SQL()); err != nil {
		return nil, fmt.Errorf("create view %s: %w", view.Name, err)
	}
	res.View = view.Name
	log.Info("View created", zap.String("view", view.Name), zap.Int("joins", len(joins)))

	if err := s.views.Upsert(ctx, view.Name, res.Code, title); err != nil {
		return nil, err
	}
	if err := s.datasets.Save(ctx, &eurostat.Dataset{Code: res.Code, ViewName: view.Name, Title: title}); err != nil {
		return nil, err
	}
	today := s.now()
	if err := s.logs.Touch(ctx, res.Code, today); err != nil {
		return nil, err
	}
	res.LastDownload = eurostat.Day(today)

	s.metrics.RecordDatasetLoaded(ctx, Source, res.Code, res.Rows)
	s.metrics.RecordViewCreated(ctx, Source)
	return res, nil
}

// storeCodelists writes one codelist table per parameter. A codelist that
// cannot be fetched leaves its parameter without a description.
func (s *Service) storeCodelists(ctx context.Context, log *logger.ContextLogger, code string, params []string) {
	for _, par := range params {
		table := viewdef.EurostatCodelistTable(code, par)
		body, err := s.fetcher.GetCached(ctx, s.endpoints.Codelist(par))
		if err != nil {
			log.Warn("Codelist download failed", zap.String("param", par), zap.Error(err))
			continue
		}
		codes, err := eurostatapi.ParseCodelist(bytes.NewReader(body))
		if err != nil {
			log.Warn("Codelist parse failed", zap.String("param", par), zap.Error(err))
			continue
		}
		if len(codes) == 0 {
			log.Warn("Codelist is empty", zap.String("param", par))
			continue
		}
		n, err := s.warehouse.UpsertEurostatCodelist(ctx, s.schema, table, codes)
		if err != nil {
			log.Warn("Codelist write failed", zap.String("table", table), zap.Error(err))
			continue
		}
		log.Debug("Codelist stored", zap.String("table", table), zap.Int64("rows", n))
	}
}

// joins pairs each dimension column with its codelist table, skipping the
// parameters whose table does not exist.
func (s *Service) joins(ctx context.Context, code string, ds *eurostatapi.Dataset) ([]viewdef.Join, []string, error) {
	columns := ds.DimensionColumns()
	var joins []viewdef.Join
	var skipped []string
	for i, par := range ds.Params {
		table := viewdef.EurostatCodelistTable(code, par)
		exists, err := s.warehouse.TableExists(ctx, s.schema, table)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			skipped = append(skipped, par)
			continue
		}
		joins = append(joins, viewdef.Join{Param: columns[i], Table: table})
	}
	return joins, skipped, nil
}

// ListViews returns the view catalogue, most recent first
func (s *Service) ListViews(ctx context.Context) ([]eurostat.ViewEntry, error) {
	return s.views.List(ctx)
}

// ListDatasets returns the datasets that have a view
func (s *Service) ListDatasets(ctx context.Context) ([]eurostat.DatasetSummary, error) {
	return s.views.ListDatasets(ctx)
}

// RootCategories returns the top level entries of the catalogue
func (s *Service) RootCategories(ctx context.Context) ([]*eurostat.Node, error) {
	tree, err := s.LoadTree(ctx, false)
	if err != nil {
		return nil, err
	}
	return tree.Children, nil
}

// Browse follows codes from the root and returns the node reached
func (s *Service) Browse(ctx context.Context, codes []string) (*BrowseResult, error) {
	tree, err := s.LoadTree(ctx, false)
	if err != nil {
		return nil, err
	}
	trail, err := tree.Resolve(codes)
	if err != nil {
		return nil, err
	}
	node := tree
	if len(trail) > 0 {
		node = trail[len(trail)-1]
	}
	children := node.Children
	if children == nil {
		children = []*eurostat.Node{}
	}
	return &BrowseResult{Node: node, Children: children, Breadcrumb: trail}, nil
}

// StaleDatasets returns the tracked datasets not downloaded since the day of today
func (s *Service) StaleDatasets(ctx context.Context, today time.Time) ([]eurostat.Dataset, error) {
	return s.datasets.StaleBefore(ctx, eurostat.Day(today))
}
