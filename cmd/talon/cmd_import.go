package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dewyman/TALON/internal/domain"
	"github.com/dewyman/TALON/internal/models"
	"github.com/dewyman/TALON/internal/sqlitecat"
)

// importReport summarises one build copied between catalogs.
type importReport struct {
	Build    string              `json:"build"`
	Read     models.CatalogStats `json:"read"`
	Verified models.CatalogStats `json:"verified"`
	DryRun   bool                `json:"dry_run"`
}

func newImportCmd() *cobra.Command {
	var from, build string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import --from <catalog.db>",
		Short: "Copy builds from a SQLite catalog into the configured catalog",
		Long: `Import reads every build (or only --build) from a SQLite catalog file and
writes it into the configured catalog, usually PostgreSQL. Each build is
written in one transaction and verified by reloading it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from == "" {
				return errors.New("--from is required")
			}

			ctx := cmd.Context()

			reports, err := runImport(ctx, from, build, dryRun)
			if err != nil {
				return err
			}

			return printImportReports(cmd.OutOrStdout(), reports)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source SQLite catalog file")
	cmd.Flags().StringVar(&build, "only-build", "", "Import only this genome build")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read and count the source without writing")

	return cmd
}

func runImport(ctx context.Context, from, build string, dryRun bool) ([]importReport, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if !cfg.UsesPostgres() && samePath(cfg.SQLitePath, from) {
		return nil, fmt.Errorf("source and target are the same catalog: %s", from)
	}

	src, err := sqlitecat.Open(ctx, from, log)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	builds := []string{build}
	if build == "" {
		if builds, err = src.Builds(ctx); err != nil {
			return nil, err
		}
	}

	var dst catalogBackend
	if !dryRun {
		if dst, err = openBackend(ctx, cfg, log); err != nil {
			return nil, fmt.Errorf("opening target: %w", err)
		}
		defer dst.Close()
	}

	reports := make([]importReport, 0, len(builds))

	for _, b := range builds {
		rep, err := importBuild(ctx, src, dst, b, log)
		if err != nil {
			return reports, fmt.Errorf("importing %s: %w", b, err)
		}

		reports = append(reports, rep)
	}

	return reports, nil
}

func importBuild(ctx context.Context, src, dst domain.CatalogStore, build string, log *logrus.Logger) (importReport, error) {
	start := time.Now()
	rep := importReport{Build: build, DryRun: dst == nil}

	snap, err := src.LoadSnapshot(ctx, build)
	if err != nil {
		return rep, err
	}

	rep.Read = snapshotStats(snap)
	if dst == nil {
		return rep, nil
	}

	ch := models.Changes{
		Vertices:    snap.Vertices,
		Edges:       snap.Edges,
		Genes:       snap.Genes,
		Transcripts: snap.Transcripts,
	}
	if err := dst.SaveChanges(ctx, build, ch); err != nil {
		return rep, err
	}

	back, err := dst.LoadSnapshot(ctx, build)
	if err != nil {
		return rep, fmt.Errorf("verifying: %w", err)
	}

	rep.Verified = snapshotStats(back)
	if rep.Verified != rep.Read {
		return rep, fmt.Errorf("verification mismatch: read %+v, found %+v", rep.Read, rep.Verified)
	}

	log.WithFields(logrus.Fields{
		"build":       build,
		"vertices":    rep.Read.Vertices,
		"transcripts": rep.Read.Transcripts,
		"duration":    time.Since(start).String(),
	}).Info("build imported")

	return rep, nil
}

func snapshotStats(s *models.Snapshot) models.CatalogStats {
	return models.CatalogStats{
		Vertices:    len(s.Vertices),
		Edges:       len(s.Edges),
		Genes:       len(s.Genes),
		Transcripts: len(s.Transcripts),
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)

	return errA == nil && errB == nil && absA == absB
}

func printImportReports(w io.Writer, reports []importReport) error {
	if flagFmt == "json" {
		return formatJSON(w, reports)
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		status := "imported"
		if r.DryRun {
			status = "dry-run"
		}

		rows = append(rows, []string{
			r.Build, status,
			fmt.Sprint(r.Read.Vertices), fmt.Sprint(r.Read.Edges),
			fmt.Sprint(r.Read.Genes), fmt.Sprint(r.Read.Transcripts),
		})
	}

	formatTable(w, []string{"BUILD", "STATUS", "VERTICES", "EDGES", "GENES", "TRANSCRIPTS"}, rows)

	return nil
}
