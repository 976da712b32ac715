package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jovzzqez008/sol-bot/internal/config"
)

// Pool is the shared connection pool behind the lock and trade stores.
type Pool struct {
	*pgxpool.Pool
}

// PoolOption tunes the pgxpool config before connecting.
type PoolOption func(*pgxpool.Config)

// WithMaxConns caps open connections. Zero keeps the pgxpool default.
func WithMaxConns(n int) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = int32(n)
		}
	}
}

// WithMinConns keeps n connections warm so lock checks skip the dial.
func WithMinConns(n int) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MinConns = int32(n)
		}
	}
}

// WithConnMaxLifetime recycles connections older than d.
func WithConnMaxLifetime(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnLifetime = d
		}
	}
}

// PoolOptionsFromConfig maps the storage config onto pool options.
func PoolOptionsFromConfig(cfg config.StorageConfig) []PoolOption {
	return []PoolOption{
		WithMaxConns(cfg.PostgresMaxConns),
		WithMinConns(cfg.PostgresMinConns),
		WithConnMaxLifetime(cfg.PostgresConnMaxLifetime),
	}
}

// poolConfig parses dsn and applies opts.
func poolConfig(dsn string, opts ...PoolOption) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	return cfg, nil
}

// NewPool connects to Postgres and pings it before returning.
func NewPool(ctx context.Context, dsn string, opts ...PoolOption) (*Pool, error) {
	cfg, err := poolConfig(dsn, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

const pgErrUniqueViolation = "23505"

// isDuplicateKeyError reports a unique constraint violation, which the
// trade store treats as an idempotent replay of the same event.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
