package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dewyman/TALON/internal/models"
)

// LoadSnapshot reads every catalog table of a build. The four tables are read
// concurrently on separate connections; the result is ordered by ID.
// An unknown build yields an empty snapshot.
func (s *CatalogStore) LoadSnapshot(ctx context.Context, build string) (*models.Snapshot, error) {
	ctx, cancel := withBulkTimeout(ctx)
	defer cancel()

	snap := &models.Snapshot{Build: build}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Vertices, err = loadTable(gctx, s, "vertices", vertexColumns, build, scanVertex)
		return err
	})
	g.Go(func() (err error) {
		snap.Edges, err = loadTable(gctx, s, "edges", edgeColumns, build, scanEdge)
		return err
	})
	g.Go(func() (err error) {
		snap.Genes, err = loadTable(gctx, s, "genes", geneColumns, build, scanGene)
		return err
	})
	g.Go(func() (err error) {
		snap.Transcripts, err = loadTable(gctx, s, "transcripts", transcriptColumns, build, scanTranscript)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"build":       build,
		"vertices":    len(snap.Vertices),
		"edges":       len(snap.Edges),
		"genes":       len(snap.Genes),
		"transcripts": len(snap.Transcripts),
	}).Info("catalog loaded")

	return snap, nil
}

func loadTable[T any](
	ctx context.Context, s *CatalogStore, table string, columns []string, build string,
	scan pgx.RowToFunc[T],
) ([]T, error) {
	// columns[0] is the build key, which the scan helpers do not read.
	query := fmt.Sprintf("SELECT %s FROM %s WHERE build = $1 ORDER BY id",
		strings.Join(columns[1:], ", "), table)

	rows, err := s.Pool.Query(ctx, query, build)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}

	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}

	return out, nil
}

// Builds lists the genome builds present in the database.
func (s *CatalogStore) Builds(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, "SELECT name FROM genome_builds ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}

	builds, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("reading builds: %w", err)
	}

	return builds, nil
}
