package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/persistence"
)

// TestMain runs before any tests and handles cleanup
func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func TestEurostatRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	ctx := context.Background()

	t.Run("download log is keyed by upper case code", func(t *testing.T) {
		logs := persistence.NewGormDownloadLogRepository(testDB.DB)
		day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

		require.NoError(t, logs.Touch(ctx, "nama_10_gdp", day))
		require.NoError(t, logs.Touch(ctx, "NAMA_10_GDP", day.AddDate(0, 0, 1)))

		got, err := logs.Get(ctx, "Nama_10_Gdp")
		require.NoError(t, err)
		assert.Equal(t, "NAMA_10_GDP", got.DatasetCode)
		assert.Equal(t, "2026-03-15", got.LastDownloadDate.Format("2006-01-02"))

		_, err = logs.Get(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("view catalogue upsert refreshes the row", func(t *testing.T) {
		views := persistence.NewGormViewCatalogRepository(testDB.DB)

		require.NoError(t, views.Upsert(ctx, "view_pil_nama_10_gdp", "nama_10_gdp", "GDP"))
		require.NoError(t, views.Upsert(ctx, "view_pop_demo_pjan", "demo_pjan", "Population"))
		require.NoError(t, views.Upsert(ctx, "view_pil_nama_10_gdp", "nama_10_gdp", "GDP and main components"))

		list, err := views.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "view_pil_nama_10_gdp", list[0].ViewName)
		assert.Equal(t, "GDP and main components", list[0].DatasetTitle)

		datasets, err := views.ListDatasets(ctx)
		require.NoError(t, err)
		assert.Len(t, datasets, 2)
	})

	t.Run("stale datasets", func(t *testing.T) {
		datasets := persistence.NewGormEurostatDatasetRepository(testDB.DB)
		logs := persistence.NewGormDownloadLogRepository(testDB.DB)
		today := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

		for _, ds := range []*eurostat.Dataset{
			{Code: "fresh_ds", ViewName: "view_fresh", Title: "Fresh"},
			{Code: "old_ds", ViewName: "view_old", Title: "Old"},
			{Code: "never_ds", ViewName: "view_never", Title: "Never"},
		} {
			require.NoError(t, datasets.Save(ctx, ds))
		}
		require.NoError(t, logs.Touch(ctx, "fresh_ds", today))
		require.NoError(t, logs.Touch(ctx, "old_ds", today.AddDate(0, 0, -3)))

		stale, err := datasets.StaleBefore(ctx, today)
		require.NoError(t, err)
		codes := make([]string, len(stale))
		for i, ds := range stale {
			codes[i] = ds.Code
		}
		assert.Equal(t, []string{"never_ds", "old_ds"}, codes)

		found, err := datasets.FindByCode(ctx, "old_ds")
		require.NoError(t, err)
		assert.Equal(t, "view_old", found.ViewName)
	})
}

func TestIstatRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	ctx := context.Background()

	structures := persistence.NewGormStructureRepository(testDB.DB, persistence.StructureRepositoryOptions{BatchSize: 2})
	categories := persistence.NewGormCategoryRepository(testDB.DB)

	flows := []sdmx.Dataflow{
		{ID: "22_289", NameIT: "Popolazione residente", NameEN: "Resident population", RefID: "DCIS_POPRES1"},
		{ID: "22_315", NameIT: "Nati vivi", RefID: "DCIS_NATI"},
		{ID: "101_12", NameIT: "Coltivazioni", RefID: "DCSP_COLTIVAZIONI"},
	}
	require.NoError(t, structures.UpsertDataflows(ctx, flows))
	require.NoError(t, structures.UpsertDataStructures(ctx, []sdmx.DataStructure{
		{ID: "DCIS_POPRES1", NameIT: "Popolazione"},
	}))

	details := []sdmx.StructureDetail{
		{DataStructureID: "DCIS_POPRES1", Type: sdmx.ComponentDimension, DetailID: "ITTER107", EnumID: "CL_ITTER107"},
		{DataStructureID: "DCIS_POPRES1", Type: sdmx.ComponentDimension, DetailID: "SEXISTAT1", EnumID: "CL_SEXISTAT1"},
		{DataStructureID: "DCIS_POPRES1", Type: sdmx.ComponentDimension, DetailID: "TIME_PERIOD"},
		{DataStructureID: "DCIS_POPRES1", Type: "Attribute", DetailID: "OBS_STATUS", EnumID: "CL_OBS_STATUS"},
	}

	t.Run("details are replaced per structure", func(t *testing.T) {
		require.NoError(t, structures.ReplaceDetails(ctx, []string{"DCIS_POPRES1"}, details))
		require.NoError(t, structures.ReplaceDetails(ctx, []string{"DCIS_POPRES1"}, details))

		dims, err := structures.DimensionCodelists(ctx, "22_289")
		require.NoError(t, err)
		assert.Equal(t, []sdmx.DimensionCodelist{
			{DetailID: "ITTER107", EnumID: "CL_ITTER107"},
			{DetailID: "SEXISTAT1", EnumID: "CL_SEXISTAT1"},
		}, dims)
	})

	t.Run("category mapping", func(t *testing.T) {
		cats := []sdmx.Category{
			{ID: "22", NameIT: "Popolazione"},
			{ID: "101", NameIT: "Agricoltura"},
		}
		require.NoError(t, categories.UpsertCategories(ctx, cats))
		require.NoError(t, categories.UpsertCategories(ctx, cats))

		ids := []string{"22_289", "22_315", "101_12"}
		require.NoError(t, categories.ReplaceMapping(ctx, sdmx.NewCategoryMapper(cats).Map(ids)))

		listed, err := categories.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, listed, 2)

		mapped, err := categories.DataflowsForCategory(ctx, "22")
		require.NoError(t, err)
		require.Len(t, mapped, 2)
		assert.Equal(t, "22_289", mapped[0].ID)
		assert.Equal(t, "22_315", mapped[1].ID)

		var viewRows int64
		require.NoError(t, testDB.DB.Table("istat.dataflow_category_view").Count(&viewRows).Error)
		assert.Equal(t, int64(3), viewRows)
	})

	t.Run("load log", func(t *testing.T) {
		loads := persistence.NewGormLoadLogRepository(testDB.DB)

		entry, err := loads.Start(ctx, "22_289", "22_289")
		require.NoError(t, err)
		entry.Rows = 42
		entry.Status = sdmx.LoadCompleted
		require.NoError(t, loads.Finish(ctx, entry))

		recent, err := loads.Recent(ctx, 5)
		require.NoError(t, err)
		require.NotEmpty(t, recent)
		assert.Equal(t, int64(42), recent[0].Rows)
		assert.Equal(t, sdmx.LoadCompleted, recent[0].Status)
		assert.NotNil(t, recent[0].FinishedAt)
	})
}
