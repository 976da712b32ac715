// Package main runs the token monitor bot: it listens for new tokens,
// monitors each one in its own task, fires alerts and simulates trades.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/feed"
	"github.com/Jovzzqez008/sol-bot/internal/ingestion"
	"github.com/Jovzzqez008/sol-bot/internal/monitor"
	"github.com/Jovzzqez008/sol-bot/internal/notify"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/oracle"
	"github.com/Jovzzqez008/sol-bot/internal/recorder"
	"github.com/Jovzzqez008/sol-bot/internal/rules"
	"github.com/Jovzzqez008/sol-bot/internal/safety"
	"github.com/Jovzzqez008/sol-bot/internal/simulation"
	"github.com/Jovzzqez008/sol-bot/internal/solana"
	"github.com/Jovzzqez008/sol-bot/internal/status"
)

const forceExitAfter = 30 * time.Second

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := config.Load()

	useMemory := flag.Bool("use-memory", cfg.Storage.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	noStatus := flag.Bool("no-status", !cfg.Status.Enabled, "Disable the HTTP status server")
	flag.Parse()

	cfg.Storage.UseMemory = *useMemory
	cfg.Status.Enabled = !*noStatus

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if !cfg.Storage.UseMemory && (cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "") {
		logger.Fatal("POSTGRES_DSN and CLICKHOUSE_DSN are required (use -use-memory for in-memory storage)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go forceExitOnSecondSignal(ctx, done, logger)

	err = run(ctx, cfg, logger)
	close(done)
	if err != nil {
		logger.Fatal("bot stopped with error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// forceExitOnSecondSignal exits the process if shutdown is interrupted by
// another signal or takes longer than forceExitAfter.
func forceExitOnSecondSignal(ctx context.Context, done <-chan struct{}, logger *zap.Logger) {
	select {
	case <-ctx.Done():
	case <-done:
		return
	}
	logger.Info("received signal, initiating graceful shutdown")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
		os.Exit(1)
	case <-time.After(forceExitAfter):
		logger.Error("graceful shutdown timed out, forcing exit", zap.Duration("after", forceExitAfter))
		os.Exit(1)
	case <-done:
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	metrics := observability.NewMetrics(observability.DefaultNamespace, nil)
	stats := observability.NewStats(metrics)

	owner := instanceOwner()
	stores, cleanup, err := createStores(ctx, cfg.Storage, cfg.Monitor.LockTTL, owner, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	logTradeSummary(ctx, stores, logger)

	ruleSet, err := rules.FromConfig(cfg.Rules)
	if err != nil {
		return fmt.Errorf("build rules: %w", err)
	}
	evaluator := rules.NewEvaluator(ruleSet...)

	scenario, ok := domain.ScenarioByID(cfg.DryRun.Scenario)
	if !ok {
		return fmt.Errorf("unknown scenario %q", cfg.DryRun.Scenario)
	}
	simulator := simulation.NewSimulator(scenario, cfg.DryRun.SolPriceUSD)

	discord := notify.NewDiscordNotifier(cfg.Discord, logger)
	defer func() { _ = discord.Close() }()
	var channels []notify.Notifier
	if discord.Enabled() {
		channels = append(channels, discord)
	}
	telegram := notify.NewTelegramNotifier(cfg.Telegram, logger)
	if telegram.Enabled() {
		channels = append(channels, telegram)
	}
	notifier := notify.NewMultiNotifier(channels...)

	priceOracle := oracle.NewDexScreenerClient(
		oracle.WithBaseURL(cfg.Oracle.BaseURL),
		oracle.WithTimeout(cfg.Oracle.Timeout),
		oracle.WithLogger(logger),
		oracle.WithMetrics(metrics),
	)

	var checker ingestion.SafetyChecker
	if cfg.Safety.Enabled {
		pool, err := solana.NewPool(cfg.Safety.RPCURLs, logger,
			solana.WithTimeout(cfg.Safety.RPCTimeout),
			solana.WithLatencyObserver(func(method string, d time.Duration) {
				metrics.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
			}),
		)
		if err != nil {
			return fmt.Errorf("rpc pool: %w", err)
		}
		hctx, cancel := context.WithTimeout(ctx, cfg.Safety.RPCTimeout)
		healthy, err := pool.CheckHealth(hctx)
		cancel()
		if err != nil {
			logger.Warn("safety checks will fail until an rpc endpoint recovers", zap.Error(err))
		} else {
			logger.Info("rpc pool ready", zap.Int("healthy", healthy), zap.Int("endpoints", pool.Size()))
		}
		checker = safety.NewChecker(pool, cfg.Safety.RPCTimeout, logger)
	}

	ticks := recorder.NewTickBuffer(recorder.TickBufferOptions{
		Store:         stores.ticks,
		BatchSize:     cfg.Monitor.TickBatchSize,
		FlushInterval: cfg.Monitor.TickFlushInterval,
		Logger:        logger,
		Metrics:       metrics,
	})

	registry := monitor.NewRegistry()
	scheduler := monitor.NewScheduler(monitor.Options{
		Monitor:   cfg.Monitor,
		DryRun:    cfg.DryRun,
		Registry:  registry,
		Oracle:    priceOracle,
		Rules:     evaluator,
		Simulator: simulator,
		Notifier:  notifier,
		Locks:     stores.locks,
		Trades:    stores.trades,
		Ticks:     ticks,
		Stats:     stats,
		Logger:    logger,
	})

	dispatcher := ingestion.NewDispatcher(ingestion.DispatcherOptions{
		Locks:           stores.locks,
		Registry:        registry,
		Starter:         scheduler,
		Safety:          checker,
		Stats:           stats,
		MinMarketCapUSD: cfg.Monitor.MinMarketCapUSD,
		MaxMonitors:     cfg.Monitor.MaxMonitors,
		Logger:          logger,
	})

	feedCfg := feed.DefaultConfig()
	feedCfg.BufferSize = cfg.Feed.BufferSize
	feedCfg.ReconnectDelay = cfg.Feed.ReconnectMin
	feedCfg.MaxReconnectDelay = cfg.Feed.ReconnectMax
	feedCfg.PingInterval = cfg.Feed.PingInterval
	client := feed.NewPumpPortalClient(cfg.Feed.URL, &feedCfg, logger, metrics)

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:        client,
		Handler:       dispatcher,
		Workers:       cfg.Feed.IngestWorkers,
		HandleTimeout: cfg.Feed.HandleTimeout,
		Logger:        logger,
	})

	mode := "alert-only"
	if cfg.DryRun.Enabled {
		mode = "dry-run"
	}
	statusServer := status.NewServer(status.Options{
		Addr:      cfg.Status.Addr(),
		Mode:      mode,
		Stats:     stats,
		Registry:  registry,
		Positions: scheduler.Positions(),
		Failures:  scheduler.Failures(),
		Metrics:   metrics.Handler(),
		Logger:    logger,
	})

	// The tick buffer outlives ctx so ticks from tasks finishing their
	// last step are still flushed.
	tickCtx, stopTicks := context.WithCancel(context.WithoutCancel(ctx))
	defer stopTicks()
	ticksDone := make(chan struct{})
	go func() {
		defer close(ticksDone)
		_ = ticks.Run(tickCtx)
	}()

	logger.Info("bot starting",
		zap.String("mode", mode),
		zap.String("owner", owner),
		zap.Bool("use_memory", cfg.Storage.UseMemory),
		zap.Int("rules", len(ruleSet)),
		zap.String("scenario", scenario.ScenarioID),
		zap.Int("notifiers", notifier.Len()),
		zap.Bool("safety_check", checker != nil),
	)
	if notifier.Len() > 0 {
		msg := fmt.Sprintf("Bot online (%s, %d rules, scenario %s)", mode, len(ruleSet), scenario.ScenarioID)
		if err := notifier.SendText(ctx, msg); err != nil {
			logger.Warn("startup notification failed", zap.Error(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(gctx)
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	if cfg.Status.Enabled {
		g.Go(func() error {
			return statusServer.Run(gctx)
		})
	}
	if telegram.Enabled() {
		commands := notify.NewCommandHandler(notify.CommandOptions{
			Stats:         stats,
			Active:        registry.Size,
			OpenPositions: scheduler.Positions().Open,
			Params:        stores.locks,
			Mode:          mode,
		})
		g.Go(func() error {
			return telegram.RunCommands(gctx, commands)
		})
	}
	statusServer.SetRunning(true)

	runErr := g.Wait()
	statusServer.SetRunning(false)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("component failed", zap.Error(runErr))
	}

	// Every task finishes its current step and releases its lock.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Monitor.ShutdownTimeout)
	defer cancel()
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		logger.Warn("scheduler shutdown incomplete", zap.Error(err))
	}

	stopTicks()
	<-ticksDone
	_ = client.Close()

	logTradeSummary(shutdownCtx, stores, logger)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func logTradeSummary(ctx context.Context, stores *botStores, logger *zap.Logger) {
	summary, err := stores.trades.Summary(ctx)
	if err != nil {
		logger.Warn("trade summary unavailable", zap.Error(err))
		return
	}
	logger.Info("trade summary",
		zap.Int64("sells", summary.Sells),
		zap.Int64("wins", summary.Wins),
		zap.Int64("losses", summary.Losses),
		zap.Float64("win_rate", summary.WinRate()),
		zap.Float64("avg_pnl_percent", summary.AvgPnLPercent),
		zap.Float64("best_pnl", summary.BestPnL),
		zap.Float64("worst_pnl", summary.WorstPnL),
	)
}
