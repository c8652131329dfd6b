package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dewyman/TALON/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the catalog schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			backend, err := openBackend(ctx, cfg, log)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", db.SchemaVersion())

			return backend.Close()
		},
	}
}
