package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dewyman/TALON/internal/catalog"
	"github.com/dewyman/TALON/internal/config"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the splice graph catalog",
	}
	cmd.AddCommand(catalogStatsCmd())
	cmd.AddCommand(catalogCheckCmd())
	cmd.AddCommand(catalogRunsCmd())

	return cmd
}

// withBackend opens the configured catalog for the duration of fn.
func withBackend(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, b catalogBackend) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(ctx, cfg, b)
}

type buildStats struct {
	Build       string `json:"build"`
	Vertices    int    `json:"vertices"`
	Edges       int    `json:"edges"`
	Genes       int    `json:"genes"`
	Transcripts int    `json:"transcripts"`
}

func catalogStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entity counts per build (all builds unless --build is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, cfg *config.Config, b catalogBackend) error {
				builds := []string{cfg.GenomeBuild}
				if cfg.GenomeBuild == "" {
					var err error
					if builds, err = b.Builds(ctx); err != nil {
						return err
					}
				}

				stats := make([]buildStats, 0, len(builds))
				for _, build := range builds {
					snap, err := b.LoadSnapshot(ctx, build)
					if err != nil {
						return fmt.Errorf("loading %s: %w", build, err)
					}

					st := snapshotStats(snap)
					stats = append(stats, buildStats{
						Build: build, Vertices: st.Vertices, Edges: st.Edges,
						Genes: st.Genes, Transcripts: st.Transcripts,
					})
				}

				return printBuildStats(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func printBuildStats(w io.Writer, stats []buildStats) error {
	if flagFmt == "json" {
		return formatJSON(w, stats)
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Build, fmt.Sprint(s.Vertices), fmt.Sprint(s.Edges),
			fmt.Sprint(s.Genes), fmt.Sprint(s.Transcripts),
		})
	}

	formatTable(w, []string{"BUILD", "VERTICES", "EDGES", "GENES", "TRANSCRIPTS"}, rows)

	return nil
}

func catalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load a build and verify graph and index consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, cfg *config.Config, b catalogBackend) error {
				if err := cfg.RequireBuild(); err != nil {
					return err
				}

				snap, err := b.LoadSnapshot(ctx, cfg.GenomeBuild)
				if err != nil {
					return err
				}

				cat, err := catalog.Load(snap, cfg.StrandAware)
				if err != nil {
					return err
				}

				if err := cat.Check(); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", cfg.GenomeBuild)

				return nil
			})
		},
	}
}

func catalogRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded annotation runs of a build, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, cfg *config.Config, b catalogBackend) error {
				if err := cfg.RequireBuild(); err != nil {
					return err
				}

				runs, err := b.ListRuns(ctx, cfg.GenomeBuild, limit)
				if err != nil {
					return err
				}

				if flagFmt == "json" {
					return formatJSON(cmd.OutOrStdout(), runs)
				}

				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{r.ID, r.Dataset, fmt.Sprint(r.Reads)})
				}

				formatTable(cmd.OutOrStdout(), []string{"RUN", "DATASET", "READS"}, rows)

				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max runs to list (0 = all)")

	return cmd
}
