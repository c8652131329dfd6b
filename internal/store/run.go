package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dewyman/TALON/internal/models"
)

// maxListLimit caps list queries.
const maxListLimit = 1000

// RecordRun stores the summary of a finished run.
func (s *CatalogStore) RecordRun(ctx context.Context, run models.Run) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit.

	if err := ensureBuild(ctx, tx, run.Build); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, build, dataset, reads) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Build, run.Dataset, run.Reads)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, mapPgError(err))
	}

	return tx.Commit(ctx)
}

// ListRuns returns the runs of a build, most recent first.
func (s *CatalogStore) ListRuns(ctx context.Context, build string, limit int) ([]models.Run, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT id::text, build, dataset, reads FROM runs WHERE build = $1 ORDER BY finished_at DESC LIMIT $2`,
		build, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Run, error) {
		var r models.Run
		err := row.Scan(&r.ID, &r.Build, &r.Dataset, &r.Reads)

		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}

	return runs, nil
}
