package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// ErrSchedulerStopped is returned by Start after Shutdown has begun.
var ErrSchedulerStopped = errors.New("scheduler stopped")

const (
	defaultStepTimeout    = 15 * time.Second
	defaultReleaseTimeout = 5 * time.Second
)

// Scheduler spawns and supervises one monitoring task per asset.
type Scheduler struct {
	monitorCfg config.MonitorConfig
	dryRunCfg  config.DryRunConfig

	registry  *Registry
	oracle    PriceOracle
	rules     RuleEvaluator
	simulator TradeSimulator
	notifier  Notifier
	locks     storage.MintRegistry
	trades    storage.TradeEventStore
	ticks     TickSink
	params    *Params
	positions *PositionLimiter
	stats     *observability.Stats
	metrics   *observability.Metrics
	failures  *FailureCollector
	logger    *zap.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

// Options contains configuration for creating a Scheduler.
type Options struct {
	Monitor config.MonitorConfig
	DryRun  config.DryRunConfig

	Registry  *Registry
	Oracle    PriceOracle
	Rules     RuleEvaluator
	Simulator TradeSimulator // Required when DryRun.Enabled
	Notifier  Notifier       // Optional
	Locks     storage.MintRegistry
	Trades    storage.TradeEventStore // Optional
	Ticks     TickSink                // Optional
	Positions *PositionLimiter        // Default: DryRun.MaxOpenPositions
	Stats     *observability.Stats
	Failures  *FailureCollector
	Logger    *zap.Logger
	Clock     func() time.Time // Default: time.Now
}

// NewScheduler creates a scheduler. Tasks run until Shutdown.
func NewScheduler(opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	stats := opts.Stats
	if stats == nil {
		stats = observability.NewStats(nil)
	}

	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	failures := opts.Failures
	if failures == nil {
		failures = NewFailureCollector(logger)
	}

	positions := opts.Positions
	if positions == nil {
		var gauge prometheus.Gauge
		if m := stats.Metrics(); m != nil {
			gauge = m.OpenPositions
		}
		positions = NewPositionLimiter(opts.DryRun.MaxOpenPositions, gauge)
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	monitorCfg := opts.Monitor
	if monitorCfg.StepTimeout <= 0 {
		monitorCfg.StepTimeout = defaultStepTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		monitorCfg: monitorCfg,
		dryRunCfg:  opts.DryRun,
		registry:   registry,
		oracle:     opts.Oracle,
		rules:      opts.Rules,
		simulator:  opts.Simulator,
		notifier:   opts.Notifier,
		locks:      opts.Locks,
		trades:     opts.Trades,
		ticks:      opts.Ticks,
		params:     NewParams(opts.Locks),
		positions:  positions,
		stats:      stats,
		metrics:    stats.Metrics(),
		failures:   failures,
		logger:     logger,
		now:        clock,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Registry returns the scheduler's registry.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Failures returns the failure collector.
func (s *Scheduler) Failures() *FailureCollector {
	return s.failures
}

// Positions returns the open position limiter.
func (s *Scheduler) Positions() *PositionLimiter {
	return s.positions
}

// Start spawns the monitoring task for a registered record. From here the
// task owns removal and lock release.
func (s *Scheduler) Start(rec *domain.AssetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return ErrSchedulerStopped
	}

	s.wg.Add(1)
	if s.metrics != nil {
		s.metrics.ActiveMonitors.Inc()
	}

	t := newTask(s, rec)
	go t.supervise(s.ctx)
	return nil
}

// Shutdown stops accepting assets, signals every task to finish its
// current step, and waits for them to exit or for ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("all monitor tasks stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("monitor tasks still running at shutdown deadline",
			zap.Int("remaining", s.registry.Size()),
		)
		return ctx.Err()
	}
}

// Wait blocks until every task has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
