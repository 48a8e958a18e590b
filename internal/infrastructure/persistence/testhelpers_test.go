package persistence

import (
	"testing"

	"github.com/statload/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSQLiteDB opens an in-memory database with the eurostat and istat
// schemas attached and every metadata model migrated.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// attached schemas live on a single connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, schema := range []string{"eurostat", "istat"} {
		require.NoError(t, db.Exec("ATTACH DATABASE ':memory:' AS "+schema).Error)
	}

	require.NoError(t, db.AutoMigrate(
		&models.DownloadLogModel{},
		&models.ViewCatalogModel{},
		&models.EurostatDatasetModel{},
		&models.DataflowModel{},
		&models.DataStructureModel{},
		&models.StructureDetailModel{},
		&models.StructureGroupModel{},
		&models.CategoryModel{},
		&models.DataflowCategoryModel{},
		&models.LoadLogModel{},
	))
	return db
}
