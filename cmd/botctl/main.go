// Package main provides operator commands for a running bot fleet:
// releasing stuck monitor locks, silencing alerts, editing runtime params,
// listing dry-run trades and applying migrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/storage/migrations"
	pgstore "github.com/Jovzzqez008/sol-bot/internal/storage/postgres"
)

const usage = `usage: botctl <command> [args]

commands:
  release <mint>           force-release a monitor lock
  silence <duration>       suppress notifications, e.g. "silence 2h"
  unsilence                resume notifications
  params                   list runtime params
  set-param <key> <value>  set a runtime param
  trades [-limit N]        show recent dry-run trades and the summary
  report [-limit N]        outcome statistics by exit reason and rule
  migrate                  apply Postgres and ClickHouse migrations
`

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
			os.Exit(2)
		}
		logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, name string, args []string) error {
	if cfg.Storage.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, pgstore.PoolOptionsFromConfig(cfg.Storage)...)
	if err != nil {
		return err
	}
	defer pool.Close()

	if name == "migrate" {
		return migrate(ctx, cfg, pool, logger)
	}

	// Operator writes never take locks, so the owner only needs to be unique.
	cmds := &commands{
		locks:  pgstore.NewMintRegistry(pool, "botctl-"+uuid.NewString(), cfg.Monitor.LockTTL),
		trades: pgstore.NewTradeEventStore(pool),
		out:    os.Stdout,
		now:    time.Now,
	}
	return cmds.run(ctx, name, args)
}

func migrate(ctx context.Context, cfg *config.Config, pool *pgstore.Pool, logger *zap.Logger) error {
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}
	logger.Info("postgres migrations done", zap.Strings("applied", applied))

	if cfg.Storage.ClickhouseDSN == "" {
		logger.Warn("CLICKHOUSE_DSN not set, skipping clickhouse migrations")
		return nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	logger.Info("clickhouse migrations done")
	return conn.Close()
}
