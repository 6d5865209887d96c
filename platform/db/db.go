// Package db owns the Postgres pool, embedded migrations and error mapping.
package db

import (
	"context"
	"time"

	"minimusiker_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName  = "minimusiker_backend"
	fallbackMaxConns = 10
)

// NewPool opens the pool and pings once so a bad DATABASE_URL fails at startup.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}
	configurePool(poolConfig, cfg.GetDatabaseMaxConns())

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// configurePool sizes the pool for one API or scheduler process. The API and
// the scheduler each hold their own pool against the same database.
func configurePool(pc *pgxpool.Config, maxConns int32) {
	if maxConns <= 0 {
		maxConns = fallbackMaxConns
	}
	pc.MaxConns = maxConns
	pc.MinConns = 1
	pc.MaxConnLifetime = 30 * time.Minute
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.HealthCheckPeriod = 30 * time.Second
	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; !ok {
		pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
}
