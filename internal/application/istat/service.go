package istat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/infrastructure/archive"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/istatapi"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/sdmxml"
	"github.com/statload/backend/internal/infrastructure/telemetry"
	"github.com/statload/backend/internal/infrastructure/warehouse"
	"go.uber.org/zap"
)

// Source is the archive folder and metric label of this service
const Source = "istat"

// Fetcher downloads remote resources
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	GetCached(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Warehouse writes dataflow and codelist tables and views
type Warehouse interface {
	EnsureSchema(ctx context.Context, schema string) error
	TableExists(ctx context.Context, schema, table string) (bool, error)
	ReplaceTextTable(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error)
	UpsertIstatCodelist(ctx context.Context, schema, table string, codes []sdmx.Code) (int64, error)
	Exec(ctx context.Context, sql string) error
	AvailableViews(ctx context.Context, schema string) ([]warehouse.ViewInfo, error)
}

// Option configures the Service
type Option func(*Service)

// WithMetrics records loads and views in m
func WithMetrics(m *telemetry.ETLMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service synchronizes ISTAT metadata and imports dataflows
type Service struct {
	fetcher    Fetcher
	archive    archive.Archive
	warehouse  Warehouse
	structures sdmx.StructureRepository
	categories sdmx.CategoryRepository
	loads      sdmx.LoadLogRepository
	endpoints  istatapi.Endpoints
	schema     string
	exclude    []string
	metrics    *telemetry.ETLMetrics
	logger     *zap.Logger
}

// NewService creates a new ISTAT service
func NewService(
	fetcher Fetcher,
	arch archive.Archive,
	wh Warehouse,
	structures sdmx.StructureRepository,
	categories sdmx.CategoryRepository,
	loads sdmx.LoadLogRepository,
	cfg config.IstatConfig,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		fetcher:    fetcher,
		archive:    arch,
		warehouse:  wh,
		structures: structures,
		categories: categories,
		loads:      loads,
		endpoints:  istatapi.NewEndpoints(cfg),
		schema:     cfg.Schema,
		exclude:    cfg.ExcludeFields,
		logger:     log.Named(Source),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ItemError is the failure of one dataflow or codelist inside a batch
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// SyncResult counts what SyncStructures stored
type SyncResult struct {
	Dataflows  int `json:"dataflows"`
	Structures int `json:"structures"`
	Details    int `json:"details"`
	Groups     int `json:"groups"`
}

// CategorySyncResult counts what SyncCategories stored
type CategorySyncResult struct {
	Categories int      `json:"categories"`
	Mapped     int      `json:"mapped"`
	Unmapped   []string `json:"unmapped,omitempty"`
}

// ClassificationResult lists the codelists handled by LoadClassifications
type ClassificationResult struct {
	Loaded  []string    `json:"loaded,omitempty"`
	Skipped []string    `json:"skipped,omitempty"`
	Failed  []ItemError `json:"failed,omitempty"`
}

// TableResult lists the dataflows handled by LoadDataTables
type TableResult struct {
	Loaded  map[string]int64 `json:"loaded,omitempty"`
	Empty   []string         `json:"empty,omitempty"`
	Skipped []string         `json:"skipped,omitempty"`
	Unknown []string         `json:"unknown,omitempty"`
	Failed  []ItemError      `json:"failed,omitempty"`
}

// ViewResult lists the views handled by CreateViews
type ViewResult struct {
	Created []string    `json:"created,omitempty"`
	Skipped []string    `json:"skipped,omitempty"`
	Failed  []ItemError `json:"failed,omitempty"`
}

// ImportResult is the outcome of Import
type ImportResult struct {
	Classifications *ClassificationResult `json:"classifications"`
	Tables          *TableResult          `json:"tables"`
	Views           *ViewResult           `json:"views"`
}

func (s *Service) withSource(ctx context.Context) context.Context {
	ctx, _ = logger.WithSource(ctx, s.logger, Source)
	return ctx
}

// SyncStructures downloads dataflows and data structures and stores them
func (s *Service) SyncStructures(ctx context.Context) (res *SyncResult, err error) {
	ctx = s.withSource(ctx)
	ctx, span := telemetry.StartSpan(ctx, "istat.sync_structures")
	defer func() { telemetry.End(span, err) }()
	log := logger.L(ctx)

	body, err := s.fetcher.GetCached(ctx, s.endpoints.Dataflows())
	if err != nil {
		return nil, fmt.Errorf("download dataflows: %w", err)
	}
	flows, err := sdmxml.ParseDataflows(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse dataflows: %w", err)
	}

	body, err = s.fetcher.GetCached(ctx, s.endpoints.DataStructures())
	if err != nil {
		return nil, fmt.Errorf("download data structures: %w", err)
	}
	set, err := sdmxml.ParseDataStructures(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse data structures: %w", err)
	}

	if err := s.structures.UpsertDataflows(ctx, flows); err != nil {
		return nil, err
	}
	if err := s.structures.UpsertDataStructures(ctx, set.Structures); err != nil {
		return nil, err
	}
	ids := set.StructureIDs()
	if err := s.structures.ReplaceDetails(ctx, ids, set.Details); err != nil {
		return nil, err
	}
	if err := s.structures.ReplaceGroups(ctx, ids, set.Groups); err != nil {
		return nil, err
	}

	res = &SyncResult{
		Dataflows:  len(flows),
		Structures: len(set.Structures),
		Details:    len(set.Details),
		Groups:     len(set.Groups),
	}
	log.Info("Structures synchronized",
		zap.Int("dataflows", res.Dataflows),
		zap.Int("structures", res.Structures),
		zap.Int("details", res.Details),
		zap.Int("groups", res.Groups),
	)
	return res, nil
}

// SyncCategories downloads the category schemes and maps every known
// dataflow to its category.
func (s *Service) SyncCategories(ctx context.Context) (res *CategorySyncResult, err error) {
	ctx = s.withSource(ctx)
	ctx, span := telemetry.StartSpan(ctx, "istat.sync_categories")
	defer func() { telemetry.End(span, err) }()

	body, err := s.fetcher.GetCached(ctx, s.endpoints.CategorySchemes())
	if err != nil {
		return nil, fmt.Errorf("download category schemes: %w", err)
	}
	cats, err := sdmxml.ParseCategorySchemes(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse category schemes: %w", err)
	}
	if err := s.categories.UpsertCategories(ctx, cats); err != nil {
		return nil, err
	}

	flows, err := s.structures.ListDataflows(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(flows))
	for _, df := range flows {
		ids = append(ids, df.ID)
	}
	links := sdmx.NewCategoryMapper(cats).Map(ids)
	if err := s.categories.ReplaceMapping(ctx, links); err != nil {
		return nil, err
	}

	mapped := make(map[string]struct{}, len(links))
	for _, l := range links {
		mapped[l.DataflowID] = struct{}{}
	}
	res = &CategorySyncResult{Categories: len(cats), Mapped: len(links)}
	for _, id := range ids {
		if _, ok := mapped[id]; !ok {
			res.Unmapped = append(res.Unmapped, id)
		}
	}
	logger.L(ctx).Info("Categories synchronized",
		zap.Int("categories", res.Categories),
		zap.Int("mapped", res.Mapped),
		zap.Int("unmapped", len(res.Unmapped)),
	)
	return res, nil
}

// Categories returns every category ordered by ID
func (s *Service) Categories(ctx context.Context) ([]sdmx.Category, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	sdmx.SortCategories(cats)
	return cats, nil
}

// DataflowsForCategory returns the dataflows mapped to a category
func (s *Service) DataflowsForCategory(ctx context.Context, categoryID string) ([]sdmx.Dataflow, error) {
	if err := sdmx.ValidateID(categoryID); err != nil {
		return nil, err
	}
	return s.categories.DataflowsForCategory(ctx, categoryID)
}

// Dataflows returns every known dataflow
func (s *Service) Dataflows(ctx context.Context) ([]sdmx.Dataflow, error) {
	return s.structures.ListDataflows(ctx)
}

// Snapshot downloads the current catalogue without storing it. Used by
// the structure report.
func (s *Service) Snapshot(ctx context.Context) ([]sdmx.Category, []sdmx.Dataflow, sdmx.StructureSet, error) {
	var set sdmx.StructureSet
	body, err := s.fetcher.GetCached(ctx, s.endpoints.CategorySchemes())
	if err != nil {
		return nil, nil, set, err
	}
	cats, err := sdmxml.ParseCategorySchemes(bytes.NewReader(body))
	if err != nil {
		return nil, nil, set, err
	}
	if body, err = s.fetcher.GetCached(ctx, s.endpoints.Dataflows()); err != nil {
		return nil, nil, set, err
	}
	flows, err := sdmxml.ParseDataflows(bytes.NewReader(body))
	if err != nil {
		return nil, nil, set, err
	}
	if body, err = s.fetcher.GetCached(ctx, s.endpoints.DataStructures()); err != nil {
		return nil, nil, set, err
	}
	set, err = sdmxml.ParseDataStructures(bytes.NewReader(body))
	return cats, flows, set, err
}

// AvailableViews returns the published views with their comments
func (s *Service) AvailableViews(ctx context.Context) ([]warehouse.ViewInfo, error) {
	return s.warehouse.AvailableViews(ctx, s.schema)
}

// Import loads codelists and data of the dataflows, then creates their views
func (s *Service) Import(ctx context.Context, dataflowIDs []string) (*ImportResult, error) {
	classifications, err := s.LoadClassifications(ctx, dataflowIDs)
	if err != nil {
		return nil, err
	}
	tables, err := s.LoadDataTables(ctx, dataflowIDs)
	if err != nil {
		return nil, err
	}
	views, err := s.CreateViews(ctx, dataflowIDs)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Classifications: classifications, Tables: tables, Views: views}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
