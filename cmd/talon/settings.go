package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dewyman/TALON/internal/config"
)

// settingFlag binds a command-line flag to a configuration key.
type settingFlag struct {
	name  string
	key   string
	usage string
}

var settingFlags = []settingFlag{
	{"database-url", "DATABASE_URL", "PostgreSQL catalog URL (env: DATABASE_URL)"},
	{"sqlite", "SQLITE_PATH", "SQLite catalog file (env: SQLITE_PATH)"},
	{"build", "GENOME_BUILD", "Genome build (env: GENOME_BUILD)"},
	{"dataset", "DATASET", "Dataset name recorded with the run (env: DATASET)"},
	{"cutoff-5p", "CUTOFF_5P", "Max distance in bp to a known start (env: CUTOFF_5P, default 500)"},
	{"cutoff-3p", "CUTOFF_3P", "Max distance in bp to a known end (env: CUTOFF_3P, default 300)"},
	{"strand-aware", "STRAND_AWARE", "Index vertices per strand: true|false (env: STRAND_AWARE)"},
	{"id-prefix", "ID_PREFIX", "Prefix of generated gene/transcript names (env: ID_PREFIX)"},
	{"checkpoint-interval", "CHECKPOINT_INTERVAL", "Reads between catalog checkpoints, 0 = end of run only (env: CHECKPOINT_INTERVAL)"},
	{"log-level", "LOG_LEVEL", "Log level (env: LOG_LEVEL)"},
	{"port", "PORT", "HTTP port for serve (env: PORT)"},
	{"listen-host", "LISTEN_HOST", "HTTP listen host for serve (env: LISTEN_HOST)"},
}

func registerSettingFlags(flags *pflag.FlagSet) {
	for _, f := range settingFlags {
		flags.String(f.name, "", f.usage)
	}
}

// configFile is ~/.talon/config.yaml. Top-level keys mirror the environment
// variable names in lower case; a profile overrides them.
type configFile struct {
	Settings      map[string]any            `yaml:",inline"`
	Profiles      map[string]map[string]any `yaml:"profiles"`
	ActiveProfile string                    `yaml:"active_profile"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".talon", "config.yaml")
}

// readConfigFile flattens the config file into configuration keys. A missing
// file yields no settings.
func readConfigFile(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	merge := func(m map[string]any) {
		for k, v := range m {
			if v == nil {
				continue
			}

			out[strings.ToUpper(strings.ReplaceAll(k, "-", "_"))] = fmt.Sprint(v)
		}
	}

	merge(cfg.Settings)

	if cfg.ActiveProfile != "" {
		p, ok := cfg.Profiles[cfg.ActiveProfile]
		if !ok {
			return nil, fmt.Errorf("config file %s: active profile %q not defined", path, cfg.ActiveProfile)
		}

		merge(p)
	}

	return out, nil
}

// newLookup resolves a key from a changed flag, then the environment, then
// the config file.
func newLookup(flags *pflag.FlagSet, file map[string]string) config.Lookup {
	byKey := make(map[string]string, len(settingFlags))
	for _, f := range settingFlags {
		byKey[f.key] = f.name
	}

	return func(key string) string {
		if name, ok := byKey[key]; ok {
			if f := flags.Lookup(name); f != nil && f.Changed {
				return f.Value.String()
			}
		}

		if v := os.Getenv(key); v != "" {
			return v
		}

		return file[key]
	}
}
