package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/monitor"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/solana"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// Filter labels
const (
	FilterMinMarketCap = "min_market_cap"
	FilterSafety       = "safety"
)

const releaseTimeout = 5 * time.Second

// Dispatcher gates, filters and registers new tokens.
//
// Once the monitor lock is acquired the dispatcher releases it on every
// path until the record is handed to the scheduler; after that the
// monitoring task owns the release.
type Dispatcher struct {
	locks        storage.MintRegistry
	registry     *monitor.Registry
	starter      TaskStarter
	safety       SafetyChecker
	stats        *observability.Stats
	minMarketCap float64
	maxMonitors  int
	logger       *zap.Logger
	now          func() time.Time
}

// DispatcherOptions contains configuration for creating a Dispatcher.
type DispatcherOptions struct {
	Locks           storage.MintRegistry
	Registry        *monitor.Registry
	Starter         TaskStarter
	Safety          SafetyChecker // Optional
	Stats           *observability.Stats
	MinMarketCapUSD float64 // 0 disables the filter
	MaxMonitors     int     // 0 = unbounded
	Logger          *zap.Logger
	Clock           func() time.Time // Default: time.Now
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	stats := opts.Stats
	if stats == nil {
		stats = observability.NewStats(nil)
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Dispatcher{
		locks:        opts.Locks,
		registry:     opts.Registry,
		starter:      opts.Starter,
		safety:       opts.Safety,
		stats:        stats,
		minMarketCap: opts.MinMarketCapUSD,
		maxMonitors:  opts.MaxMonitors,
		logger:       logger,
		now:          clock,
	}
}

// admission tracks how far a locked mint got towards the scheduler.
type admission struct {
	registered bool
	started    bool
}

// Handle processes one notification. Errors from collaborators are
// logged; a dropped token is not an error. A panic anywhere in the
// dispatch is logged and does not reach the worker.
func (d *Dispatcher) Handle(ctx context.Context, ev domain.NewTokenEvent) {
	logger := d.logger.With(zap.String("mint", ev.Mint), zap.String("symbol", ev.Symbol))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatch panicked", zap.String("panic", fmt.Sprint(r)), zap.Stack("stack"))
		}
	}()

	d.stats.IncDetected()

	if ev.Mint == "" {
		d.logger.Warn("notification without mint", zap.String("signature", ev.Signature))
		return
	}

	if err := solana.ValidateAddress(ev.Mint); err != nil {
		d.stats.IncInvalid()
		logger.Warn("invalid mint address", zap.Error(err))
		return
	}

	first, err := d.locks.SeenMint(ctx, ev.Mint)
	if err != nil {
		logger.Warn("seen check failed", zap.Error(err))
		return
	}
	if !first {
		return
	}

	locked, err := d.locks.LockMonitor(ctx, ev.Mint)
	if err != nil {
		logger.Warn("monitor lock failed", zap.Error(err))
		return
	}
	if !locked {
		return
	}

	d.dispatchLocked(ctx, ev, logger)
}

// dispatchLocked runs with the monitor lock held. Unless the scheduler
// took the record, the deferred cleanup unregisters it and releases the
// lock, including when admit panics.
func (d *Dispatcher) dispatchLocked(ctx context.Context, ev domain.NewTokenEvent, logger *zap.Logger) {
	var st admission
	defer func() {
		if st.started {
			return
		}
		if st.registered {
			d.registry.Remove(ev.Mint)
		}
		d.release(ctx, ev.Mint, logger)
	}()

	d.admit(ctx, ev, logger, &st)
}

// admit applies filters and starts monitoring, recording progress in st.
func (d *Dispatcher) admit(ctx context.Context, ev domain.NewTokenEvent, logger *zap.Logger, st *admission) {
	price, marketCap := ev.InitialMarket()

	if d.minMarketCap > 0 && marketCap > 0 && marketCap < d.minMarketCap {
		d.stats.IncFiltered(FilterMinMarketCap)
		logger.Debug("below min market cap",
			zap.Float64("marketCap", marketCap),
			zap.Float64("min", d.minMarketCap),
		)
		return
	}

	if d.maxMonitors > 0 && d.registry.Size() >= d.maxMonitors {
		d.stats.IncRejected()
		logger.Warn("monitor capacity reached", zap.Int("max", d.maxMonitors))
		return
	}

	if d.safety != nil {
		report := d.safety.Check(ctx, ev.Mint)
		if !report.Safe {
			d.stats.IncFiltered(FilterSafety)
			logger.Info("mint failed safety check", zap.String("reason", report.Reason))
			return
		}
	}

	rec := domain.NewAssetRecord(ev.Mint, ev.Symbol, ev.Name, price, marketCap, d.now())
	rec.BondingCurve = ev.BondingCurve

	if err := d.registry.Register(rec); err != nil {
		logger.Warn("register failed", zap.Error(err))
		return
	}
	st.registered = true

	if err := d.starter.Start(rec); err != nil {
		logger.Warn("start monitoring failed", zap.Error(err))
		return
	}
	st.started = true

	d.stats.IncMonitored()
	logger.Info("monitoring token",
		zap.String("name", rec.Name),
		zap.Float64("initialPrice", price),
		zap.Float64("initialMarketCap", marketCap),
		zap.Int("active", d.registry.Size()),
	)
}

func (d *Dispatcher) release(ctx context.Context, mint string, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := d.locks.ReleaseMonitor(ctx, mint); err != nil {
		logger.Warn("failed to release monitor lock", zap.Error(err))
	}
}
