package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// EnsureDatabase connects to the maintenance database at adminDSN and
// creates the database name when it does not exist.
func EnsureDatabase(ctx context.Context, adminDSN, name string, logger *zap.Logger) error {
	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()

	return ensureDatabase(ctx, db, name, logger)
}

func ensureDatabase(ctx context.Context, db *sql.DB, name string, logger *zap.Logger) error {
	var exists bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check database %s: %w", name, err)
	}
	if exists {
		logger.Debug("Database exists", zap.String("database", name))
		return nil
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	logger.Info("Database created", zap.String("database", name))
	return nil
}
