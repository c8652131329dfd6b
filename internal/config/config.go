// Package config provides environment-driven configuration for TALON.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dewyman/TALON/internal/runinfo"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL        Secret
	SQLitePath         string
	DBMaxConns         int32
	GenomeBuild        string
	Dataset            string
	Cutoff5p           int64
	Cutoff3p           int64
	StrandAware        bool
	IDPrefix           string
	CheckpointInterval int
	LogLevel           string
	Port               string
	ListenHost         string
	CORSOrigins        []string
}

// Lookup resolves one configuration key such as "CUTOFF_5P". An empty result
// selects the default.
type Lookup func(key string) string

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through lookup with sensible defaults.
func LoadFrom(lookup Lookup) (*Config, error) {
	envOrDefault := func(key, fallback string) string {
		if v := lookup(key); v != "" {
			return v
		}

		return fallback
	}

	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		SQLitePath:  envOrDefault("SQLITE_PATH", ""),
		GenomeBuild: envOrDefault("GENOME_BUILD", ""),
		Dataset:     envOrDefault("DATASET", "default"),
		IDPrefix:    envOrDefault("ID_PREFIX", "TALON"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		Port:        envOrDefault("PORT", "3030"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		StrandAware: envOrDefault("STRAND_AWARE", "false") == "true",
	}

	var err error

	if cfg.Cutoff5p, err = parseInt64("CUTOFF_5P", envOrDefault("CUTOFF_5P", "500")); err != nil {
		return nil, err
	}

	if cfg.Cutoff3p, err = parseInt64("CUTOFF_3P", envOrDefault("CUTOFF_3P", "300")); err != nil {
		return nil, err
	}

	interval, err := strconv.Atoi(envOrDefault("CHECKPOINT_INTERVAL", "10000"))
	if err != nil || interval < 0 {
		return nil, fmt.Errorf("CHECKPOINT_INTERVAL must be a non-negative integer")
	}
	cfg.CheckpointInterval = interval

	maxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "8"))
	if err != nil || maxConns < 2 || maxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 2 and 200")
	}
	cfg.DBMaxConns = int32(maxConns) //nolint:gosec // bounded above.

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// UsesPostgres reports whether the catalog lives in PostgreSQL rather than a
// SQLite file.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL.Value() != ""
}

// RunSettings converts the configuration into the engine's run settings.
func (c *Config) RunSettings() runinfo.Settings {
	return runinfo.Settings{
		Build:       c.GenomeBuild,
		Dataset:     c.Dataset,
		Cutoff5p:    c.Cutoff5p,
		Cutoff3p:    c.Cutoff3p,
		StrandAware: c.StrandAware,
		IDPrefix:    c.IDPrefix,
	}
}

func parseInt64(key, v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	return n, nil
}
