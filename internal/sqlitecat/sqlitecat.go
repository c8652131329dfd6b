// Package sqlitecat stores the splice graph catalog in a single SQLite file.
// It is the zero-setup backend for local runs and the source format for
// `talon import`, which copies a file catalog into PostgreSQL.
package sqlitecat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dewyman/TALON/internal/db"
	"github.com/dewyman/TALON/internal/domain"
	"github.com/dewyman/TALON/internal/models"
)

// Compile-time check: *Store must satisfy domain.CatalogStore.
var _ domain.CatalogStore = (*Store)(nil)

// Store is a catalog backed by a SQLite database file.
type Store struct {
	db  *sql.DB
	log *logrus.Logger
}

// Open opens (creating if needed) the catalog file at path and applies
// pending migrations.
func Open(ctx context.Context, path string, log *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite catalog: %w", err)
	}

	// One writer at a time; SQLite serialises writes anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("opening sqlite catalog %s: %w", path, err)
	}

	if err := db.MigrateSQLite(ctx, sqlDB, log); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Store{db: sqlDB, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database file is readable.
func (s *Store) HealthCheck(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}

	return nil
}

// LoadSnapshot reads every catalog table of a build, ordered by ID.
func (s *Store) LoadSnapshot(ctx context.Context, build string) (*models.Snapshot, error) {
	snap := &models.Snapshot{Build: build}

	var err error

	snap.Vertices, err = query(ctx, s.db,
		`SELECT id, chromosome, position, strand, role FROM vertices WHERE build = ? ORDER BY id`, build,
		func(rows *sql.Rows) (v models.Vertex, err error) {
			err = rows.Scan(&v.ID, &v.Chrom, &v.Pos, &v.Strand, &v.Role)
			return v, err
		})
	if err != nil {
		return nil, fmt.Errorf("reading vertices: %w", err)
	}

	snap.Edges, err = query(ctx, s.db,
		`SELECT id, v5, v3, edge_type, strand FROM edges WHERE build = ? ORDER BY id`, build,
		func(rows *sql.Rows) (e models.Edge, err error) {
			err = rows.Scan(&e.ID, &e.V5, &e.V3, &e.Type, &e.Strand)
			return e, err
		})
	if err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}

	snap.Genes, err = query(ctx, s.db,
		`SELECT id, name, chromosome, strand, min_pos, max_pos FROM genes WHERE build = ? ORDER BY id`, build,
		func(rows *sql.Rows) (g models.Gene, err error) {
			err = rows.Scan(&g.ID, &g.Name, &g.Chrom, &g.Strand, &g.Min, &g.Max)
			return g, err
		})
	if err != nil {
		return nil, fmt.Errorf("reading genes: %w", err)
	}

	snap.Transcripts, err = query(ctx, s.db,
		`SELECT id, gene_id, name, edges FROM transcripts WHERE build = ? ORDER BY id`, build,
		func(rows *sql.Rows) (t models.Transcript, err error) {
			var chain string
			if err = rows.Scan(&t.ID, &t.GeneID, &t.Name, &chain); err != nil {
				return t, err
			}

			if err = json.Unmarshal([]byte(chain), &t.Edges); err != nil {
				return t, fmt.Errorf("transcript %d chain: %w", t.ID, err)
			}

			return t, nil
		})
	if err != nil {
		return nil, fmt.Errorf("reading transcripts: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"build":       build,
		"vertices":    len(snap.Vertices),
		"transcripts": len(snap.Transcripts),
	}).Info("catalog loaded")

	return snap, nil
}

func query[T any](ctx context.Context, q *sql.DB, stmt, build string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, stmt, build)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, item)
	}

	return out, rows.Err()
}

// SaveChanges writes one checkpoint in a single transaction.
func (s *Store) SaveChanges(ctx context.Context, build string, ch models.Changes) error {
	if ch.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit.

	if err := ensureBuild(ctx, tx, build); err != nil {
		return err
	}

	err = insertAll(ctx, tx, `INSERT INTO genes (build, id, name, chromosome, strand, min_pos, max_pos)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (build, id) DO UPDATE
		SET min_pos = MIN(genes.min_pos, excluded.min_pos),
		    max_pos = MAX(genes.max_pos, excluded.max_pos)`,
		ch.Genes, func(g models.Gene) ([]any, error) {
			return []any{build, g.ID, g.Name, g.Chrom, string(g.Strand), g.Min, g.Max}, nil
		})
	if err != nil {
		return fmt.Errorf("writing genes: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO vertices (build, id, chromosome, position, strand, role) VALUES (?, ?, ?, ?, ?, ?)`,
		ch.Vertices, func(v models.Vertex) ([]any, error) {
			return []any{build, v.ID, v.Chrom, v.Pos, string(v.Strand), string(v.Role)}, nil
		})
	if err != nil {
		return fmt.Errorf("writing vertices: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO edges (build, id, v5, v3, edge_type, strand) VALUES (?, ?, ?, ?, ?, ?)`,
		ch.Edges, func(e models.Edge) ([]any, error) {
			return []any{build, e.ID, e.V5, e.V3, string(e.Type), string(e.Strand)}, nil
		})
	if err != nil {
		return fmt.Errorf("writing edges: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO transcripts (build, id, gene_id, name, edges) VALUES (?, ?, ?, ?, ?)`,
		ch.Transcripts, func(t models.Transcript) ([]any, error) {
			chain, err := json.Marshal(t.Edges)
			if err != nil {
				return nil, err
			}

			return []any{build, t.ID, t.GeneID, t.Name, string(chain)}, nil
		})
	if err != nil {
		return fmt.Errorf("writing transcripts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}

	return nil
}

func insertAll[T any](ctx context.Context, tx *sql.Tx, stmt string, items []T, args func(T) ([]any, error)) error {
	if len(items) == 0 {
		return nil
	}

	ps, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer ps.Close()

	for _, item := range items {
		a, err := args(item)
		if err != nil {
			return err
		}

		if _, err := ps.ExecContext(ctx, a...); err != nil {
			return mapSQLiteError(err)
		}
	}

	return nil
}

// RecordRun stores the summary of a finished run.
func (s *Store) RecordRun(ctx context.Context, run models.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit.

	if err := ensureBuild(ctx, tx, run.Build); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO runs (id, build, dataset, reads) VALUES (?, ?, ?, ?)`,
		run.ID, run.Build, run.Dataset, run.Reads)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, mapSQLiteError(err))
	}

	return tx.Commit()
}

// ListRuns returns the runs of a build, most recent first. A non-positive
// limit returns every run.
func (s *Store) ListRuns(ctx context.Context, build string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = -1
	}

	return query(ctx, s.db,
		`SELECT id, build, dataset, reads FROM runs WHERE build = ? ORDER BY finished_at DESC, rowid DESC LIMIT `+fmt.Sprint(limit),
		build, func(rows *sql.Rows) (models.Run, error) {
			var r models.Run
			err := rows.Scan(&r.ID, &r.Build, &r.Dataset, &r.Reads)

			return r, err
		})
}

// Builds lists the genome builds present in the file.
func (s *Store) Builds(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM genome_builds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		out = append(out, name)
	}

	return out, rows.Err()
}

func ensureBuild(ctx context.Context, tx *sql.Tx, build string) error {
	if build == "" {
		return fmt.Errorf("genome build: %w", models.ErrMissingID)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO genome_builds (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, build); err != nil {
		return fmt.Errorf("registering build %s: %w", build, err)
	}

	return nil
}

// mapSQLiteError translates constraint failures into model sentinels.
func mapSQLiteError(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%s: %w", se.Error(), models.ErrDuplicateKey)
		}
	}

	return err
}
