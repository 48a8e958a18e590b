package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadLogRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormDownloadLogRepository(db)
	ctx := context.Background()

	t.Run("missing log is not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "nama_10_gdp")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("touch stores the uppercased code and the day", func(t *testing.T) {
		require.NoError(t, repo.Touch(ctx, "nama_10_gdp", time.Date(2024, 5, 9, 18, 30, 0, 0, time.UTC)))

		log, err := repo.Get(ctx, "NAMA_10_GDP")
		require.NoError(t, err)
		assert.Equal(t, "NAMA_10_GDP", log.DatasetCode)
		assert.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), log.LastDownloadDate)
	})

	t.Run("touch again moves the date forward", func(t *testing.T) {
		require.NoError(t, repo.Touch(ctx, "NAMA_10_GDP", time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)))

		log, err := repo.Get(ctx, "nama_10_gdp")
		require.NoError(t, err)
		assert.True(t, log.IsUpToDate(time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)))
	})
}

func TestDownloadLogRepository_TouchSQL(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()
	repo := NewGormDownloadLogRepository(mdb.DB)

	mdb.Mock.ExpectExec(`INSERT INTO "eurostat"."download_logs" \("dataset_code","last_download_date"\) VALUES \(\$1,\$2\) ON CONFLICT \("dataset_code"\) DO UPDATE SET "last_download_date"="excluded"."last_download_date"`).
		WithArgs("DEMO_PJAN", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Touch(context.Background(), "demo_pjan", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)))
	mdb.ExpectationsWereMet(t)
}

func TestViewCatalogRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormViewCatalogRepository(db)
	ctx := context.Background()

	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	require.NoError(t, repo.Upsert(ctx, "gdp_[nama_10_gdp]", "nama_10_gdp", "GDP"))
	clock = clock.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, "pop_[demo_pjan]", "demo_pjan", "Population"))

	t.Run("lists most recent first", func(t *testing.T) {
		views, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "pop_[demo_pjan]", views[0].ViewName)
		assert.Equal(t, "gdp_[nama_10_gdp]", views[1].ViewName)
	})

	t.Run("re-creating a view refreshes title and time", func(t *testing.T) {
		clock = clock.Add(time.Hour)
		require.NoError(t, repo.Upsert(ctx, "gdp_[nama_10_gdp]", "nama_10_gdp", "GDP and main components"))

		views, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "gdp_[nama_10_gdp]", views[0].ViewName)
		assert.Equal(t, "GDP and main components", views[0].DatasetTitle)
		assert.True(t, views[0].CreatedAt.Equal(clock))
	})

	t.Run("lists datasets", func(t *testing.T) {
		datasets, err := repo.ListDatasets(ctx)
		require.NoError(t, err)
		require.Len(t, datasets, 2)
		assert.Equal(t, "nama_10_gdp", datasets[0].DatasetCode)
		assert.Equal(t, "demo_pjan", datasets[1].DatasetCode)
	})
}

func TestEurostatDatasetRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormEurostatDatasetRepository(db)
	logs := NewGormDownloadLogRepository(db)
	ctx := context.Background()

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return first }

	ds := &eurostat.Dataset{Code: "nama_10_gdp", ViewName: "gdp_[nama_10_gdp]", Title: "GDP"}
	require.NoError(t, repo.Save(ctx, ds))
	assert.True(t, ds.CreatedAt.Equal(first))

	t.Run("save again keeps creation time", func(t *testing.T) {
		later := first.Add(24 * time.Hour)
		repo.now = func() time.Time { return later }
		require.NoError(t, repo.Save(ctx, &eurostat.Dataset{Code: "nama_10_gdp", ViewName: "gdp_[nama_10_gdp]", Title: "GDP v2"}))

		found, err := repo.FindByCode(ctx, "nama_10_gdp")
		require.NoError(t, err)
		assert.Equal(t, "GDP v2", found.Title)
		assert.True(t, found.CreatedAt.Equal(first))
		assert.True(t, found.LastUpdated.Equal(later))
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, "nope")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("stale datasets", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &eurostat.Dataset{Code: "demo_pjan", ViewName: "pop_[demo_pjan]"}))
		require.NoError(t, repo.Save(ctx, &eurostat.Dataset{Code: "tec00115", ViewName: "g_[tec00115]"}))
		today := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
		require.NoError(t, logs.Touch(ctx, "nama_10_gdp", today))
		require.NoError(t, logs.Touch(ctx, "demo_pjan", today.AddDate(0, 0, -2)))

		stale, err := repo.StaleBefore(ctx, today)
		require.NoError(t, err)
		var codes []string
		for _, s := range stale {
			codes = append(codes, s.Code)
		}
		assert.Equal(t, []string{"demo_pjan", "tec00115"}, codes)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}
