package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConnLifetime   = time.Hour
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = 5 * time.Second
)

// PoolConfig configures the order-store connection pool. Zero durations fall
// back to the package defaults.
type PoolConfig struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

func (c *PoolConfig) normalize() {
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = defaultMaxConnLifetime
	}
	if c.HealthCheckPeriod <= 0 {
		c.HealthCheckPeriod = defaultHealthCheckPeriod
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
}

// NewPool opens a pgx pool against the order store and verifies connectivity
// before handing it out. The initial ping runs under the connect timeout so a
// misconfigured DATABASE_URL fails fast instead of hanging startup.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	cfg.normalize()

	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.HealthCheckPeriod = cfg.HealthCheckPeriod
	pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
