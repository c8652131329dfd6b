// Package dbpool opens the PostgreSQL pool behind the catalog store.
package dbpool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
		"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxConns covers one connection per catalog table during a parallel
// load plus the checkpoint writer and the HTTP health checks.
const DefaultMaxConns = 8

// Pool is the catalog connection pool. Only the calls the store makes are
// exposed; the store wraps each in a timeout.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool. A non-positive maxConns
// selects DefaultMaxConns.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	// Catalog loads stream whole tables; only bound idle transactions.
	cfg.ConnConfig.RuntimeParams["idle_in_transaction_session_timeout"] = "300000"
	cfg.ConnConfig.RuntimeParams["application_name"] = "talon"

	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Query runs a statement that returns rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// Begin starts a transaction. Checkpoints write all tables of a batch in one.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

// HealthCheck pings the database and fails when the catalog schema is missing.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var ok bool

	err := p.pool.QueryRow(ctx, "SELECT to_regclass('public.vertices') IS NOT NULL").Scan(&ok)
	if err != nil {
		return fmt.Errorf("health check query: %w", err)
	}

	if !ok {
		return fmt.Errorf("health check: catalog schema not migrated")
	}

	return nil
}

// ConnString returns the connection string, for the migration driver.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.pool.Close()
}
