package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
	chstore "github.com/Jovzzqez008/sol-bot/internal/storage/clickhouse"
	"github.com/Jovzzqez008/sol-bot/internal/storage/memory"
	"github.com/Jovzzqez008/sol-bot/internal/storage/migrations"
	pgstore "github.com/Jovzzqez008/sol-bot/internal/storage/postgres"
)

// botStores holds the storage implementations used by the bot.
type botStores struct {
	locks  storage.MintRegistry
	trades storage.TradeEventStore
	ticks  storage.PriceTickStore
}

// instanceOwner identifies this process as a lock holder.
func instanceOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "bot"
	}
	return host + "-" + uuid.NewString()
}

// createStores builds in-memory stores or connects to Postgres and
// ClickHouse, applying migrations first.
func createStores(ctx context.Context, cfg config.StorageConfig, lockTTL time.Duration, owner string, logger *zap.Logger) (*botStores, func(), error) {
	if cfg.UseMemory {
		stores := &botStores{
			locks:  memory.NewMintRegistry(owner, lockTTL),
			trades: memory.NewTradeEventStore(),
			ticks:  memory.NewPriceTickStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.PoolOptionsFromConfig(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("postgres migrations applied", zap.Strings("versions", applied))
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &botStores{
		locks:  pgstore.NewMintRegistry(pool, owner, lockTTL),
		trades: pgstore.NewTradeEventStore(pool),
		ticks:  chstore.NewPriceTickStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}
