package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/statload/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDatabase_Ping(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()
	db := &Database{DB: mdb.DB}

	mdb.Mock.ExpectPing()

	require.NoError(t, db.Ping(context.Background()))
	mdb.ExpectationsWereMet(t)
}

func TestDatabase_Close(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	db := &Database{DB: mdb.DB}

	mdb.Mock.ExpectClose()

	require.NoError(t, db.Close())
	mdb.ExpectationsWereMet(t)
}

func TestDatabase_Stats(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()
	db := &Database{DB: mdb.DB}

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Transaction(t *testing.T) {
	type testModel struct {
		ID   uint
		Name string
	}

	t.Run("commits on success", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		defer mdb.Close()
		db := &Database{DB: mdb.DB}

		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectQuery(`INSERT INTO "test_models"`).
			WithArgs("test").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mdb.Mock.ExpectCommit()

		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return tx.Create(&testModel{Name: "test"}).Error
		})
		require.NoError(t, err)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		defer mdb.Close()
		db := &Database{DB: mdb.DB}

		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		mdb.ExpectationsWereMet(t)
	})
}
