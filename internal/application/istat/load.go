package istat

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/domain/viewdef"
	"github.com/statload/backend/internal/infrastructure/archive"
	"github.com/statload/backend/internal/infrastructure/csvimport"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/sdmxml"
	"github.com/statload/backend/internal/infrastructure/telemetry"
	"github.com/statload/backend/internal/infrastructure/warehouse"
	"go.uber.org/zap"
)

// LoadClassifications stores the codelists used by the dimensions of the
// dataflows. An archived codelist is reused instead of downloaded again.
func (s *Service) LoadClassifications(ctx context.Context, dataflowIDs []string) (res *ClassificationResult, err error) {
	ctx = s.withSource(ctx)
	ctx, span := telemetry.StartSpan(ctx, "istat.load_classifications")
	defer func() { telemetry.End(span, err) }()
	log := logger.L(ctx)

	enumIDs := make(map[string]struct{})
	for _, id := range dataflowIDs {
		dims, err := s.structures.DimensionCodelists(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, d := range dims {
			if d.EnumID != "" {
				enumIDs[d.EnumID] = struct{}{}
			}
		}
	}
	res = &ClassificationResult{}
	if len(enumIDs) == 0 {
		log.Info("No codelist found for the selected dataflows")
		return res, nil
	}
	if err := s.warehouse.EnsureSchema(ctx, s.schema); err != nil {
		return nil, err
	}

	log.Info("Loading codelists", zap.Int("count", len(enumIDs)))
	for _, enumID := range sortedKeys(enumIDs) {
		loaded, err := s.loadCodelist(ctx, enumID)
		switch {
		case err != nil:
			log.Error("Codelist import failed", zap.String("codelist", enumID), zap.Error(err))
			res.Failed = append(res.Failed, ItemError{ID: enumID, Error: err.Error()})
		case loaded:
			res.Loaded = append(res.Loaded, enumID)
		default:
			res.Skipped = append(res.Skipped, enumID)
		}
	}
	return res, nil
}

// loadCodelist applies the archive rule to one codelist. It reports false
// when the table and the imported file both exist already.
func (s *Service) loadCodelist(ctx context.Context, enumID string) (bool, error) {
	name := enumID + ".xml"
	table := viewdef.IstatCodelistTable(enumID)

	state, err := archive.StateOf(ctx, s.archive, Source, name)
	if err != nil {
		return false, err
	}
	exists, err := s.warehouse.TableExists(ctx, s.schema, table)
	if err != nil {
		return false, err
	}

	var body []byte
	switch state {
	case archive.StateImported:
		if exists {
			return false, nil
		}
		body, err = archive.ReadAll(ctx, s.archive, Source, archive.ImportedName(name))
	case archive.StatePending:
		body, err = archive.ReadAll(ctx, s.archive, Source, name)
	default:
		body, err = s.fetcher.Get(ctx, s.endpoints.Codelist(enumID))
		if err == nil {
			err = archive.WriteAll(ctx, s.archive, Source, name, body)
		}
	}
	if err != nil {
		return false, err
	}

	lists, err := sdmxml.ParseCodelists(bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	n, err := s.warehouse.UpsertIstatCodelist(ctx, s.schema, table, sdmxml.Codes(lists))
	if err != nil {
		return false, err
	}
	if state != archive.StateImported {
		if err := s.archive.MarkImported(ctx, Source, name); err != nil {
			return false, err
		}
	}
	logger.L(ctx).Info("Codelist stored",
		zap.String("codelist", enumID),
		zap.String("table", table),
		zap.Int64("rows", n),
	)
	return true, nil
}

// LoadDataTables downloads the CSV of each dataflow and replaces its table.
// Unknown dataflows and files already imported are skipped.
func (s *Service) LoadDataTables(ctx context.Context, dataflowIDs []string) (res *TableResult, err error) {
	ctx = s.withSource(ctx)
	ctx, span := telemetry.StartSpan(ctx, "istat.load_tables")
	defer func() { telemetry.End(span, err) }()
	log := logger.L(ctx)

	known, err := s.structures.ListDataflows(ctx)
	if err != nil {
		return nil, err
	}
	ids, unknown := sdmx.FilterKnown(dataflowIDs, known)
	res = &TableResult{Loaded: make(map[string]int64), Unknown: unknown}
	for _, id := range unknown {
		log.Warn("Dataflow not found", zap.String("dataset", id))
	}
	if len(ids) == 0 {
		return res, nil
	}
	if err := s.warehouse.EnsureSchema(ctx, s.schema); err != nil {
		return nil, err
	}

	for _, id := range ids {
		rows, err := s.loadTable(ctx, id)
		switch {
		case errors.Is(err, errAlreadyImported):
			res.Skipped = append(res.Skipped, id)
		case errors.Is(err, shared.ErrEmptyDataset):
			res.Empty = append(res.Empty, id)
		case err != nil:
			log.Error("Table import failed", zap.String("dataset", id), zap.Error(err))
			res.Failed = append(res.Failed, ItemError{ID: id, Error: err.Error()})
		default:
			res.Loaded[id] = rows
		}
	}
	return res, nil
}

var errAlreadyImported = errors.New("already imported")

func (s *Service) loadTable(ctx context.Context, id string) (rows int64, err error) {
	ctx, _ = logger.WithDataset(ctx, logger.FromContext(ctx), id)
	log := logger.L(ctx)
	name := id + ".csv"

	state, err := archive.StateOf(ctx, s.archive, Source, name)
	if err != nil {
		return 0, err
	}
	if state == archive.StateImported {
		log.Info("Data file already imported")
		return 0, errAlreadyImported
	}

	entry, err := s.loads.Start(ctx, id, id)
	if err != nil {
		return 0, err
	}
	defer func() {
		entry.Rows = rows
		switch {
		case errors.Is(err, shared.ErrEmptyDataset):
			entry.Status = sdmx.LoadEmpty
		case err != nil:
			entry.Status = sdmx.LoadFailed
			entry.Error = err.Error()
		default:
			entry.Status = sdmx.LoadCompleted
		}
		if ferr := s.loads.Finish(ctx, entry); ferr != nil {
			log.Warn("Failed to record load", zap.Error(ferr))
		}
	}()

	if state == archive.StatePending {
		if err := s.archive.Remove(ctx, Source, name); err != nil {
			return 0, err
		}
	}
	if err := s.download(ctx, id, name); err != nil {
		return 0, err
	}

	table, err := s.readTable(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(table.Dropped) > 0 {
		log.Debug("Columns excluded", zap.Strings("columns", table.Dropped))
	}
	if table.Empty() {
		log.Warn("Data file is empty")
		return 0, shared.ErrEmptyDataset
	}

	rows, err = s.warehouse.ReplaceTextTable(ctx, s.schema, id, table.Columns, table.Rows)
	if err != nil {
		return 0, err
	}
	if err := s.archive.MarkImported(ctx, Source, name); err != nil {
		return rows, err
	}
	log.Info("Table loaded", zap.String("table", id), zap.Int64("rows", rows))
	s.metrics.RecordDatasetLoaded(ctx, Source, id, rows)
	return rows, nil
}

func (s *Service) download(ctx context.Context, id, name string) error {
	w, err := s.archive.Create(ctx, Source, name)
	if err != nil {
		return err
	}
	n, err := s.fetcher.Download(ctx, s.endpoints.Data(id), w)
	if err != nil {
		_ = w.Close()
		_ = s.archive.Remove(ctx, Source, name)
		return fmt.Errorf("download data: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.L(ctx).Debug("Data file downloaded", zap.Int64("bytes", n))
	return nil
}

func (s *Service) readTable(ctx context.Context, name string) (*csvimport.Table, error) {
	r, err := s.archive.Open(ctx, Source, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	table, err := csvimport.ReadTable(r, s.exclude)
	if errors.Is(err, csvimport.ErrEmptyFile) {
		return &csvimport.Table{}, nil
	}
	return table, err
}

// CreateViews publishes one view per dataflow joining its codelists.
// Dataflows without codelists are skipped; a failing view does not stop
// the others.
func (s *Service) CreateViews(ctx context.Context, dataflowIDs []string) (res *ViewResult, err error) {
	ctx = s.withSource(ctx)
	ctx, span := telemetry.StartSpan(ctx, "istat.create_views")
	defer func() { telemetry.End(span, err) }()
	log := logger.L(ctx)

	res = &ViewResult{}
	for _, id := range dataflowIDs {
		name, err := s.createView(ctx, id)
		switch {
		case err != nil:
			log.Error("View creation failed", zap.String("dataset", id), zap.Error(err))
			res.Failed = append(res.Failed, ItemError{ID: id, Error: err.Error()})
		case name == "":
			log.Info("No codelist for dataflow", zap.String("dataset", id))
			res.Skipped = append(res.Skipped, id)
		default:
			log.Info("View created", zap.String("view", name), zap.String("dataset", id))
			res.Created = append(res.Created, name)
		}
	}
	return res, nil
}

func (s *Service) createView(ctx context.Context, id string) (string, error) {
	flow, err := s.structures.FindDataflow(ctx, id)
	if err != nil {
		return "", err
	}
	dims, err := s.structures.DimensionCodelists(ctx, id)
	if err != nil {
		return "", err
	}
	view := IstatViewFor(s.schema, flow, dims)
	if len(view.Dimensions) == 0 {
		return "", nil
	}

	if err := s.warehouse.Exec(ctx, view.SQL()); err != nil {
		return "", err
	}
	if comment := viewdef.CommentOnView(s.schema, view.Name, flow.NameIT, flow.NameEN); comment != "" {
		if err := s.warehouse.Exec(ctx, comment); err != nil {
			return "", err
		}
	}
	s.metrics.RecordViewCreated(ctx, Source)
	return view.Name, nil
}

// IstatViewFor describes the view of a dataflow whose dimensions use dims
func IstatViewFor(schema string, flow *sdmx.Dataflow, dims []sdmx.DimensionCodelist) viewdef.IstatView {
	mapping := make(map[string]string, len(dims))
	for _, d := range dims {
		if d.EnumID == "" {
			continue
		}
		mapping[viewdef.SanitizeColumnName(d.DetailID)] = viewdef.IstatCodelistTable(d.EnumID)
	}
	return viewdef.IstatView{
		Schema:     schema,
		Name:       viewdef.IstatViewName(flow.NameIT, flow.ID),
		Table:      flow.ID,
		Dimensions: mapping,
	}
}

var _ Warehouse = (*warehouse.Warehouse)(nil)
