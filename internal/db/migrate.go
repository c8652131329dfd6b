// Package db applies catalog schema migrations with goose
// (github.com/pressly/goose/v3) for both the PostgreSQL and SQLite backends.
//
// Migration files live in internal/db/migrations/{postgres,sqlite} and are
// embedded via //go:embed. Both schemas carry the same tables; only column
// types differ (transcript chains are BIGINT[] in PostgreSQL and JSON text in
// SQLite).
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/db/migrations"
	"github.com/dewyman/TALON/internal/dbpool"
)

// MigratePostgres applies pending PostgreSQL migrations.
func MigratePostgres(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger) error {
	// goose requires a *sql.DB; open one over the pgx stdlib driver.
	sqlDB, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	return RunMigrations(ctx, sqlDB, goose.DialectPostgres, migrations.Postgres(), log)
}

// MigrateSQLite applies pending SQLite migrations to an open database.
func MigrateSQLite(ctx context.Context, sqlDB *sql.DB, log *logrus.Logger) error {
	return RunMigrations(ctx, sqlDB, goose.DialectSQLite3, migrations.SQLite(), log)
}

// RunMigrations applies all pending migrations from the provided filesystem.
// The fsys should contain goose-annotated SQL files (e.g. "001_catalog.sql").
func RunMigrations(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, fsys fs.FS, log *logrus.Logger) error {
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}

		log.WithFields(logrus.Fields{
			"dialect":  dialect,
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.WithField("dialect", dialect).Debug("all migrations already applied")
	}

	return nil
}
