// Package mur reads the MUR open data catalogue.
package mur

import (
	"context"

	"go.uber.org/zap"

	"github.com/statload/backend/internal/domain/ckan"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/telemetry"
)

// Source is the log label of this service
const Source = "mur"

// Catalog lists the datasets of a CKAN portal
type Catalog interface {
	Datasets(ctx context.Context) ([]ckan.Dataset, error)
}

// Service groups the MUR catalogue by tag
type Service struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewService creates a new MUR service
func NewService(catalog Catalog, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{catalog: catalog, logger: log.Named(Source)}
}

// Catalogue returns the datasets grouped by tag. An empty portal is
// reported as shared.ErrEmptyCatalogue.
func (s *Service) Catalogue(ctx context.Context) (groups []ckan.TagGroup, err error) {
	ctx, log := logger.WithSource(ctx, s.logger, Source)
	ctx, span := telemetry.StartSpan(ctx, "mur.catalogue")
	defer func() { telemetry.End(span, err) }()

	datasets, err := s.catalog.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	if len(datasets) == 0 {
		return nil, shared.ErrEmptyCatalogue
	}
	groups = ckan.GroupByTag(datasets)
	log.Info("Catalogue grouped", zap.Int("datasets", len(datasets)), zap.Int("tags", len(groups)))
	return groups, nil
}
