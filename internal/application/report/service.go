// Package report writes the structure reports of the three catalogues.
package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/statload/backend/internal/domain/ckan"
	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/report"
	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/export"
	"github.com/statload/backend/internal/infrastructure/logger"
)

// Report sources
const (
	SourceEurostat = "eurostat"
	SourceIstat    = "istat"
	SourceMUR      = "mur"
)

// DefaultFiles maps each source to the file written when none is given
var DefaultFiles = map[string]string{
	SourceEurostat: "struttura_eurostat.txt",
	SourceIstat:    "struttura_istat.txt",
	SourceMUR:      "struttura_miur.txt",
}

// EurostatTree loads the Eurostat table of contents
type EurostatTree interface {
	LoadTree(ctx context.Context, refresh bool) (*eurostat.Node, error)
}

// IstatCatalogue downloads the ISTAT categories, dataflows and structures
type IstatCatalogue interface {
	Snapshot(ctx context.Context) ([]sdmx.Category, []sdmx.Dataflow, sdmx.StructureSet, error)
}

// MURCatalogue groups the MUR datasets by tag
type MURCatalogue interface {
	Catalogue(ctx context.Context) ([]ckan.TagGroup, error)
}

// Service builds and writes structure reports
type Service struct {
	eurostat EurostatTree
	istat    IstatCatalogue
	mur      MURCatalogue
	logger   *zap.Logger
}

// NewService creates a new report service. Any source may be nil when its
// report is not needed.
func NewService(es EurostatTree, is IstatCatalogue, mur MURCatalogue, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{eurostat: es, istat: is, mur: mur, logger: log.Named("report")}
}

// Build returns the structure report of source. refresh only applies to
// the Eurostat tree.
func (s *Service) Build(ctx context.Context, source string, refresh bool) (*report.Structure, error) {
	switch source {
	case SourceEurostat:
		if s.eurostat == nil {
			break
		}
		root, err := s.eurostat.LoadTree(ctx, refresh)
		if err != nil {
			return nil, err
		}
		return report.EurostatStructure(root), nil
	case SourceIstat:
		if s.istat == nil {
			break
		}
		cats, flows, set, err := s.istat.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return report.IstatStructure(cats, flows, set), nil
	case SourceMUR:
		if s.mur == nil {
			break
		}
		groups, err := s.mur.Catalogue(ctx)
		if err != nil {
			return nil, err
		}
		return report.MURStructure(groups), nil
	}
	return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("no report for source %q", source))
}

// Write builds the report of source and writes it to path, in the format
// chosen by the extension. An empty path uses DefaultFiles. Returns the
// path written.
func (s *Service) Write(ctx context.Context, source, path string, refresh bool) (string, error) {
	if path == "" {
		path = DefaultFiles[source]
	}
	structure, err := s.Build(ctx, source, refresh)
	if err != nil {
		return "", err
	}
	if err := export.WriteFile(path, structure); err != nil {
		return "", err
	}
	ctx, _ = logger.WithSource(ctx, s.logger, source)
	logger.L(ctx).Info("Report written",
		zap.String("path", path),
		zap.String("format", string(export.FormatFor(path))),
		zap.Int("entries", len(structure.Entries())),
	)
	return path, nil
}
