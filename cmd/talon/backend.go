package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/catalog"
	"github.com/dewyman/TALON/internal/config"
	"github.com/dewyman/TALON/internal/db"
	"github.com/dewyman/TALON/internal/dbpool"
	"github.com/dewyman/TALON/internal/domain"
	"github.com/dewyman/TALON/internal/models"
	"github.com/dewyman/TALON/internal/runinfo"
	"github.com/dewyman/TALON/internal/service"
	"github.com/dewyman/TALON/internal/sqlitecat"
	"github.com/dewyman/TALON/internal/store"
)

// catalogBackend is a persisted catalog, PostgreSQL or SQLite.
type catalogBackend interface {
	domain.CatalogStore
	HealthCheck(ctx context.Context) error
	Builds(ctx context.Context) ([]string, error)
	ListRuns(ctx context.Context, build string, limit int) ([]models.Run, error)
	Close() error
}

// Compile-time checks.
var (
	_ catalogBackend = (*pgBackend)(nil)
	_ catalogBackend = (*sqlitecat.Store)(nil)
)

type pgBackend struct {
	*store.CatalogStore
	pool *dbpool.Pool
}

func (b *pgBackend) HealthCheck(ctx context.Context) error { return b.pool.HealthCheck(ctx) }

func (b *pgBackend) Close() error {
	b.pool.Close()

	return nil
}

// openBackend connects to the configured catalog and brings its schema up to date.
func openBackend(ctx context.Context, cfg *config.Config, log *logrus.Logger) (catalogBackend, error) {
	if !cfg.UsesPostgres() {
		return sqlitecat.Open(ctx, cfg.SQLitePath, log)
	}

	return openPostgres(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns, log)
}

func openPostgres(ctx context.Context, url string, maxConns int32, log *logrus.Logger) (*pgBackend, error) {
	pool, err := dbpool.NewPool(ctx, url, maxConns)
	if err != nil {
		return nil, err
	}

	if err := db.MigratePostgres(ctx, pool, log); err != nil {
		pool.Close()

		return nil, err
	}

	return &pgBackend{CatalogStore: store.New(pool, log), pool: pool}, nil
}

// session is one annotation run: the loaded catalog, its checkpoint worker
// and the annotator driving both.
type session struct {
	backend   catalogBackend
	worker    *service.CheckpointWorker
	annotator *service.Annotator
	log       *logrus.Logger
	stop      context.CancelFunc
}

// openSession loads the configured build and starts checkpointing into it.
func openSession(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*session, error) {
	if err := cfg.RequireBuild(); err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	snap, err := backend.LoadSnapshot(ctx, cfg.GenomeBuild)
	if err != nil {
		_ = backend.Close()

		return nil, fmt.Errorf("loading build %s: %w", cfg.GenomeBuild, err)
	}

	cat, err := catalog.Load(snap, cfg.StrandAware)
	if err != nil {
		_ = backend.Close()

		return nil, fmt.Errorf("building catalog for %s: %w", cfg.GenomeBuild, err)
	}

	ri := runinfo.New(cfg.RunSettings(), cat.MaxIDs())

	// The worker outlives ctx so an interrupted run still persists its queue.
	workerCtx, stop := context.WithCancel(context.Background())
	worker := service.NewCheckpointWorker(backend, log, 0)
	go worker.Run(workerCtx)

	log.WithFields(logrus.Fields{
		"run_id":       ri.ID,
		"build":        cfg.GenomeBuild,
		"strand_aware": cfg.StrandAware,
		"cutoff_5p":    cfg.Cutoff5p,
		"cutoff_3p":    cfg.Cutoff3p,
	}).Info("run started")

	return &session{
		backend:   backend,
		worker:    worker,
		annotator: service.NewAnnotator(cat, ri, worker, cfg.CheckpointInterval, log),
		log:       log,
		stop:      stop,
	}, nil
}

// finish persists what is left, records the run and releases the backend.
func (s *session) finish(ctx context.Context) error {
	err := s.annotator.Checkpoint(ctx)
	err = errors.Join(err, s.worker.Close())
	s.stop()

	if err == nil {
		err = s.backend.RecordRun(ctx, s.annotator.Run())
	}

	st := s.annotator.Stats(ctx)
	s.log.WithFields(logrus.Fields{
		"run_id":    st.RunID,
		"reads":     st.Reads,
		"skipped":   st.Skipped,
		"by_status": st.ByStatus,
	}).Info("run finished")

	return errors.Join(err, s.backend.Close())
}
