// Package bootstrap builds the components shared by the statload binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	appeurostat "github.com/statload/backend/internal/application/eurostat"
	appistat "github.com/statload/backend/internal/application/istat"
	"github.com/statload/backend/internal/application/mur"
	"github.com/statload/backend/internal/application/report"
	"github.com/statload/backend/internal/infrastructure/archive"
	"github.com/statload/backend/internal/infrastructure/cache"
	"github.com/statload/backend/internal/infrastructure/ckanapi"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/fetch"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/migration"
	"github.com/statload/backend/internal/infrastructure/persistence"
	"github.com/statload/backend/internal/infrastructure/telemetry"
	"github.com/statload/backend/internal/infrastructure/warehouse"
)

// Options selects what Open sets up
type Options struct {
	// Database connects the metadata database and the warehouse pool.
	// Without it only the catalogue readers work.
	Database bool
	// Migrate applies pending migrations after connecting
	Migrate bool
}

// App holds the connected components
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB        *persistence.Database
	Pool      *pgxpool.Pool
	Warehouse *warehouse.Warehouse
	Archive   archive.Archive
	Cache     cache.ResponseCache
	Fetcher   *fetch.Client
	Metrics   *telemetry.ETLMetrics

	Eurostat *appeurostat.Service
	Istat    *appistat.Service
	MUR      *mur.Service
	Reports  *report.Service

	closers []func(context.Context) error
}

// Open builds the App. On error everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (_ *App, err error) {
	app := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()

	if err := app.openTelemetry(ctx); err != nil {
		return nil, err
	}

	app.Cache = cache.NewResponseCache(ctx, cfg.Redis, log)
	app.onClose(func(context.Context) error { return app.Cache.Close() })

	app.Fetcher = fetch.New(cfg.Fetch, log,
		fetch.WithCache(app.Cache),
		fetch.WithMetrics(app.Metrics),
	)

	if app.Archive, err = archive.New(ctx, cfg.Archive, log); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if opts.Database {
		if err := app.openDatabase(ctx, opts.Migrate); err != nil {
			return nil, err
		}
	}

	app.buildServices()
	return app, nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) openTelemetry(ctx context.Context) error {
	tc := a.Config.Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.onClose(tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	a.onClose(mp.Shutdown)

	if a.Metrics, err = telemetry.NewETLMetrics(mp.Meter("statload")); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	return nil
}

func (a *App) openDatabase(ctx context.Context, migrate bool) error {
	cfg := a.Config
	log := a.Logger

	if cfg.Database.AdminDBName != "" {
		if err := warehouse.EnsureDatabase(ctx, cfg.Database.AdminDSN(), cfg.Database.DBName, log); err != nil {
			return err
		}
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(200*time.Millisecond),
		logger.WithIgnoreRecordNotFoundError(true),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		return err
	}
	a.DB = db
	a.onClose(func(context.Context) error { return db.Close() })

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		return fmt.Errorf("register database tracing: %w", err)
	}

	if migrate {
		if err := a.migrate(); err != nil {
			return err
		}
	}

	pool, err := warehouse.NewPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	a.Pool = pool
	a.onClose(func(context.Context) error { pool.Close(); return nil })
	a.Warehouse = warehouse.New(pool, log)
	return nil
}

func (a *App) migrate() error {
	sqlDB, err := a.DB.DB.DB()
	if err != nil {
		return err
	}
	path, err := migration.ResolvePath(a.Config.Database.MigrationsPath)
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migration.Config{MigrationsPath: path}, a.Logger)
	if err != nil {
		return err
	}
	// Close would also close the shared *sql.DB
	return m.Up()
}

func (a *App) buildServices() {
	cfg := a.Config
	log := a.Logger

	var (
		wh         *warehouse.Warehouse
		eurLogs    *persistence.GormDownloadLogRepository
		eurViews   *persistence.GormViewCatalogRepository
		eurSets    *persistence.GormEurostatDatasetRepository
		structures *persistence.GormStructureRepository
		categories *persistence.GormCategoryRepository
		loads      *persistence.GormLoadLogRepository
	)
	if a.DB != nil {
		db := a.DB.DB
		wh = a.Warehouse
		eurLogs = persistence.NewGormDownloadLogRepository(db)
		eurViews = persistence.NewGormViewCatalogRepository(db)
		eurSets = persistence.NewGormEurostatDatasetRepository(db)
		structures = persistence.NewGormStructureRepository(db, persistence.StructureRepositoryOptions{
			BatchSize: cfg.Istat.DetailBatchSize,
			Retries:   cfg.Istat.DetailRetries,
			RetryWait: cfg.Istat.DetailRetryWait,
			Logger:    log,
		})
		categories = persistence.NewGormCategoryRepository(db)
		loads = persistence.NewGormLoadLogRepository(db)
	}

	a.Eurostat = appeurostat.NewService(a.Fetcher, a.Archive, wh, eurLogs, eurViews, eurSets,
		cfg.Eurostat, log, appeurostat.WithMetrics(a.Metrics))
	a.Istat = appistat.NewService(a.Fetcher, a.Archive, wh, structures, categories, loads,
		cfg.Istat, log, appistat.WithMetrics(a.Metrics))
	a.MUR = mur.NewService(ckanapi.New(a.Fetcher, cfg.CKAN.BaseURL, log), log)
	a.Reports = report.NewService(a.Eurostat, a.Istat, a.MUR, log)
}

// RequireDatabase fails when Open ran without Options.Database
func (a *App) RequireDatabase() error {
	if a.DB == nil {
		return errors.New("database not connected")
	}
	return nil
}

// Close releases the components in reverse order of opening
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
