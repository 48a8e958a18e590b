// Package warehouse writes dataset tables whose columns are only known
// after a file is downloaded. Metadata tables go through gorm instead.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/domain/viewdef"
	"github.com/statload/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DefaultChunkSize is the number of rows sent per COPY
const DefaultChunkSize = 10000

// DB is the subset of pgxpool.Pool used by the warehouse
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Warehouse creates, drops and bulk loads dataset and codelist tables
type Warehouse struct {
	db        DB
	chunkSize int
	logger    *zap.Logger
}

// Option configures a Warehouse
type Option func(*Warehouse)

// WithChunkSize overrides the number of rows per COPY
func WithChunkSize(n int) Option {
	return func(w *Warehouse) {
		if n > 0 {
			w.chunkSize = n
		}
	}
}

// New creates a Warehouse over db
func New(db DB, logger *zap.Logger, opts ...Option) *Warehouse {
	w := &Warehouse{db: db, chunkSize: DefaultChunkSize, logger: logger.Named("warehouse")}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewPool opens a pgx pool for cfg. Behind a transaction pooler the simple
// protocol is used, since prepared statements do not survive between
// transactions.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.Pooler {
		pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Exec runs a statement without arguments
func (w *Warehouse) Exec(ctx context.Context, sql string) error {
	_, err := w.db.Exec(ctx, sql)
	return err
}

// EnsureSchema creates schema if it does not exist
func (w *Warehouse) EnsureSchema(ctx context.Context, schema string) error {
	return w.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+viewdef.Qualified("", schema))
}

// TableExists reports whether schema.table is a table
func (w *Warehouse) TableExists(ctx context.Context, schema, table string) (bool, error) {
	var exists bool
	err := w.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		schema, table,
	).Scan(&exists)
	return exists, err
}

// DropTable drops a table and its dependent views
func (w *Warehouse) DropTable(ctx context.Context, schema, table string) error {
	return w.Exec(ctx, viewdef.DropTableSQL(schema, table))
}

// DropDatasetTable drops the view_<table>... views of a dataset and then its table
func (w *Warehouse) DropDatasetTable(ctx context.Context, schema, table string) error {
	for _, stmt := range viewdef.DropDatasetViewsSQL(schema, table) {
		if err := w.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	w.logger.Debug("Dropped dataset table", zap.String("schema", schema), zap.String("table", table))
	return nil
}

// CreateTextTable creates a table where every column is TEXT
func (w *Warehouse) CreateTextTable(ctx context.Context, schema, table string, columns []string) error {
	return w.Exec(ctx, createTableSQL(schema, table, columns, nil))
}

// CreateTypedTable creates a table with TEXT dimensions followed by
// DOUBLE PRECISION value columns
func (w *Warehouse) CreateTypedTable(ctx context.Context, schema, table string, textCols, numericCols []string) error {
	return w.Exec(ctx, createTableSQL(schema, table, textCols, numericCols))
}

func createTableSQL(schema, table string, textCols, numericCols []string) string {
	defs := make([]string, 0, len(textCols)+len(numericCols))
	for _, c := range textCols {
		defs = append(defs, viewdef.Qualified("", c)+" TEXT")
	}
	for _, c := range numericCols {
		defs = append(defs, viewdef.Qualified("", c)+" DOUBLE PRECISION")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", viewdef.Qualified(schema, table), strings.Join(defs, ", "))
}

// CopyRows bulk loads rows with COPY in chunks, all in one transaction.
// nil values are stored as NULL.
func (w *Warehouse) CopyRows(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	for start := 0; start < len(rows); start += w.chunkSize {
		end := min(start+w.chunkSize, len(rows))
		chunk := normalizeRows(rows[start:end])
		n, err := tx.CopyFrom(ctx, pgx.Identifier{schema, table}, columns, pgx.CopyFromRows(chunk))
		if err != nil {
			return total, fmt.Errorf("copy rows %d-%d into %s.%s: %w", start, end, schema, table, err)
		}
		total += n
		w.logger.Debug("Copied chunk",
			zap.String("table", table), zap.Int("from", start), zap.Int("to", end))
	}
	if err := tx.Commit(ctx); err != nil {
		return total, err
	}
	return total, nil
}

// normalizeRows converts values pgx cannot encode in binary COPY
func normalizeRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		r := make([]any, len(row))
		for j, v := range row {
			switch val := v.(type) {
			case decimal.Decimal:
				r[j] = val.InexactFloat64()
			case *decimal.Decimal:
				if val == nil {
					r[j] = nil
				} else {
					r[j] = val.InexactFloat64()
				}
			default:
				r[j] = v
			}
		}
		out[i] = r
	}
	return out
}

// UpsertEurostatCodelist recreates a code/description lookup table.
// Duplicate codes keep their first description.
func (w *Warehouse) UpsertEurostatCodelist(ctx context.Context, schema, table string, codes []sdmx.Code) (int64, error) {
	if err := w.DropTable(ctx, schema, table); err != nil {
		return 0, err
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (code TEXT PRIMARY KEY, description TEXT)", viewdef.Qualified(schema, table))
	if err := w.Exec(ctx, ddl); err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(codes))
	rows := make([][]any, 0, len(codes))
	for _, c := range codes {
		if _, dup := seen[c.ID]; dup || c.ID == "" {
			continue
		}
		seen[c.ID] = struct{}{}
		rows = append(rows, []any{c.ID, nullable(c.Description())})
	}
	return w.CopyRows(ctx, schema, table, []string{"code", "description"}, rows)
}

// UpsertIstatCodelist creates the lookup table if missing and inserts the
// codes not already present. Returns the number of inserted rows.
func (w *Warehouse) UpsertIstatCodelist(ctx context.Context, schema, table string, codes []sdmx.Code) (int64, error) {
	if err := w.Exec(ctx, istatCodelistDDL(schema, table)); err != nil {
		return 0, err
	}
	if len(codes) == 0 {
		return 0, nil
	}

	insert := istatCodelistInsertSQL(schema, table)
	var inserted int64
	for start := 0; start < len(codes); start += w.chunkSize {
		end := min(start+w.chunkSize, len(codes))
		batch := &pgx.Batch{}
		for _, c := range codes[start:end] {
			batch.Queue(insert, c.ID, nullable(c.NameIT), nullable(c.NameEN))
		}
		n, err := w.sendBatch(ctx, batch)
		inserted += n
		if err != nil {
			return inserted, fmt.Errorf("insert codes into %s.%s: %w", schema, table, err)
		}
	}
	return inserted, nil
}

func (w *Warehouse) sendBatch(ctx context.Context, batch *pgx.Batch) (int64, error) {
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := tx.SendBatch(ctx, batch)
	var n int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, err
		}
		n += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}

func istatCodelistDDL(schema, table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (code_id VARCHAR PRIMARY KEY, name_it TEXT, name_en TEXT)",
		viewdef.Qualified(schema, table))
}

func istatCodelistInsertSQL(schema, table string) string {
	return fmt.Sprintf("INSERT INTO %s (code_id, name_it, name_en) VALUES ($1, $2, $3) ON CONFLICT (code_id) DO NOTHING",
		viewdef.Qualified(schema, table))
}

// ViewInfo is a view and its comment
type ViewInfo struct {
	Name        string `json:"view_name"`
	Description string `json:"view_description,omitempty"`
}

// AvailableViewsView is the catalogue view created by the migrations. It
// lists the published views of its schema and hides itself and the other
// migration views.
const AvailableViewsView = "available_views"

func availableViewsSQL(schema string) string {
	return `SELECT view_name, COALESCE(view_description, '') FROM ` +
		viewdef.Qualified(schema, AvailableViewsView) + ` ORDER BY view_name`
}

// AvailableViews reads the published views of schema and their comments
// from its available_views catalogue
func (w *Warehouse) AvailableViews(ctx context.Context, schema string) ([]ViewInfo, error) {
	rows, err := w.db.Query(ctx, availableViewsSQL(schema))
	if err != nil {
		return nil, fmt.Errorf("list available views: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ViewInfo, error) {
		var v ViewInfo
		err := row.Scan(&v.Name, &v.Description)
		return v, err
	})
}

// ErrNoColumns is returned when a table would have no columns
var ErrNoColumns = errors.New("table has no columns")

// ReplaceTextTable drops table, creates it with TEXT columns and loads rows
func (w *Warehouse) ReplaceTextTable(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, ErrNoColumns
	}
	if err := w.DropTable(ctx, schema, table); err != nil {
		return 0, err
	}
	if err := w.CreateTextTable(ctx, schema, table, columns); err != nil {
		return 0, err
	}
	return w.CopyRows(ctx, schema, table, columns, rows)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
