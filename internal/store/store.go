// Package store persists the splice graph catalog in PostgreSQL.
//
// The catalog is read once per run (LoadSnapshot) and written back in
// checkpoints (SaveChanges) holding only what the run registered. Rows are
// keyed by genome build so several builds share one database.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/dbpool"
	"github.com/dewyman/TALON/internal/domain"
	"github.com/dewyman/TALON/internal/models"
)

const (
	defaultQueryTimeout = 30 * time.Second

	// Whole-table reads and bulk copies scale with catalog size.
	bulkTimeout = 15 * time.Minute
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Compile-time check: *CatalogStore must satisfy domain.CatalogStore.
var _ domain.CatalogStore = (*CatalogStore)(nil)

// Base contains shared dependencies for the store.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// CatalogStore reads and writes catalog snapshots and run records.
type CatalogStore struct {
	Base
}

// New creates a CatalogStore.
func New(pool *dbpool.Pool, log *logrus.Logger) *CatalogStore {
	return &CatalogStore{Base: Base{Pool: pool, Log: log}}
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// withBulkTimeout creates a context for whole-table operations.
func withBulkTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, bulkTimeout)
}

// ensureBuild registers a genome build name if it is not known yet.
func ensureBuild(ctx context.Context, tx pgx.Tx, build string) error {
	if build == "" {
		return fmt.Errorf("genome build: %w", models.ErrMissingID)
	}

	_, err := tx.Exec(ctx, `INSERT INTO genome_builds (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, build)
	if err != nil {
		return fmt.Errorf("registering build %s: %w", build, err)
	}

	return nil
}

// mapPgError translates constraint failures into model sentinels.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, models.ErrDuplicateKey)
	}

	return err
}
