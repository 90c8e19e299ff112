// Package db provides the PostgreSQL-backed simulation store. Repositories
// accept a DBTX interface that is satisfied by both *pgxpool.Pool and pgx.Tx,
// so the same code runs inside or outside a transaction.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"linecast/internal/config"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

//go:embed migrations/000001_simulations.up.sql
var simulationsSchema string

// NewPool opens a connection pool from cfg and verifies it with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, acquireTimeout(cfg))
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// Migrate creates the simulations table when it does not exist yet.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, simulationsSchema); err != nil {
		return fmt.Errorf("applying simulations schema: %w", err)
	}
	return nil
}

func acquireTimeout(cfg config.DatabaseConfig) time.Duration {
	if cfg.AcquireTimeout > 0 {
		return cfg.AcquireTimeout
	}
	return 2 * time.Second
}

// pinger is the part of *pgxpool.Pool the health probe needs.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthProbe reports database reachability on /health.
type HealthProbe struct {
	pool    pinger
	timeout time.Duration
}

// NewHealthProbe wraps pool for the health endpoint.
func NewHealthProbe(pool pinger, timeout time.Duration) *HealthProbe {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &HealthProbe{pool: pool, timeout: timeout}
}

// Name implements core.HealthProbe.
func (p *HealthProbe) Name() string { return "database" }

// Check implements core.HealthProbe.
func (p *HealthProbe) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}
