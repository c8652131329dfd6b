// Command talon annotates long-read transcriptome alignments against a splice
// graph catalog and serves the same engine over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dewyman/TALON/internal/config"
)

// Build-time variables set via ldflags.
var (
	commit    = ""
	buildDate = ""
)

var (
	flagConfig string
	flagFmt    string

	// lookup resolves settings once the root command has read the config file.
	lookup config.Lookup = os.Getenv
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("talon version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}

	return fmt.Sprintf("talon version %s", config.Version)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "talon",
		Short:   "TALON: long-read transcript annotation against a splice graph catalog",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			file, err := readConfigFile(flagConfig)
			if err != nil {
				return err
			}

			lookup = newLookup(cmd.Flags(), file)

			return nil
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "Config file (YAML)")
	root.PersistentFlags().StringVar(&flagFmt, "format", "tsv", "Output format: tsv|json|table")
	registerSettingFlags(root.PersistentFlags())

	root.AddCommand(newAnnotateCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newCatalogCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the full configuration through flags, env and file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(lookup)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.JSONFormatter{})

	return log, nil
}
