package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var idPrefixRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,15}$`)

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRun(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		if c.SQLitePath == "" {
			return fmt.Errorf("DATABASE_URL or SQLITE_PATH is required")
		}

		return nil
	}

	if c.SQLitePath != "" {
		return fmt.Errorf("DATABASE_URL and SQLITE_PATH are mutually exclusive")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		sslmode := dbURL.Query().Get("sslmode")
		if sslmode == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

// RequireBuild reports an error unless a genome build is configured. Commands
// that only manage the catalog database do not need one.
func (c *Config) RequireBuild() error {
	if strings.TrimSpace(c.GenomeBuild) == "" {
		return fmt.Errorf("GENOME_BUILD is required")
	}

	return nil
}

func (c *Config) validateRun() error {
	if c.Cutoff5p < 0 {
		return fmt.Errorf("CUTOFF_5P must not be negative")
	}

	if c.Cutoff3p < 0 {
		return fmt.Errorf("CUTOFF_3P must not be negative")
	}

	if !idPrefixRe.MatchString(c.IDPrefix) {
		return fmt.Errorf("ID_PREFIX must start with a letter and hold at most 16 letters, digits or underscores, got %q", c.IDPrefix)
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local runs, 0.0.0.0/:: when a container enforces the boundary.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}
