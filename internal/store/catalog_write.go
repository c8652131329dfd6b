package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/models"
)

// SaveChanges writes one checkpoint in a single transaction. New vertices,
// edges and transcripts are bulk-copied; genes are upserted because a
// checkpoint also carries known genes whose extrema widened.
func (s *CatalogStore) SaveChanges(ctx context.Context, build string, ch models.Changes) error {
	if ch.Empty() {
		return nil
	}

	ctx, cancel := withBulkTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit.

	if err := ensureBuild(ctx, tx, build); err != nil {
		return err
	}

	if err := upsertGenes(ctx, tx, build, ch.Genes); err != nil {
		return err
	}

	if err := copyRows(ctx, tx, "vertices", vertexColumns, ch.Vertices, func(v models.Vertex) []any {
		return []any{build, v.ID, v.Chrom, v.Pos, string(v.Strand), string(v.Role)}
	}); err != nil {
		return err
	}

	if err := copyRows(ctx, tx, "edges", edgeColumns, ch.Edges, func(e models.Edge) []any {
		return []any{build, e.ID, e.V5, e.V3, string(e.Type), string(e.Strand)}
	}); err != nil {
		return err
	}

	if err := copyRows(ctx, tx, "transcripts", transcriptColumns, ch.Transcripts, func(t models.Transcript) []any {
		return []any{build, t.ID, t.GeneID, t.Name, t.Edges}
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"build":       build,
		"vertices":    len(ch.Vertices),
		"edges":       len(ch.Edges),
		"genes":       len(ch.Genes),
		"transcripts": len(ch.Transcripts),
	}).Debug("checkpoint written")

	return nil
}

func copyRows[T any](ctx context.Context, tx pgx.Tx, table string, columns []string, items []T, row func(T) []any) error {
	if len(items) == 0 {
		return nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		return row(items[i]), nil
	}))
	if err != nil {
		return fmt.Errorf("copying %s: %w", table, mapPgError(err))
	}

	if n != int64(len(items)) {
		return fmt.Errorf("copying %s: wrote %d of %d rows", table, n, len(items))
	}

	return nil
}

const upsertGeneSQL = `INSERT INTO genes (build, id, name, chromosome, strand, min_pos, max_pos)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (build, id) DO UPDATE
	SET min_pos = LEAST(genes.min_pos, EXCLUDED.min_pos),
	    max_pos = GREATEST(genes.max_pos, EXCLUDED.max_pos)`

func upsertGenes(ctx context.Context, tx pgx.Tx, build string, genes []models.Gene) error {
	if len(genes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, g := range genes {
		batch.Queue(upsertGeneSQL, build, g.ID, g.Name, g.Chrom, string(g.Strand), g.Min, g.Max)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting genes: %w", mapPgError(err))
	}

	return nil
}
