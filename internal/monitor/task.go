package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/idhash"
)

// task is the single writer of one AssetRecord.
type task struct {
	s            *Scheduler
	rec          *domain.AssetRecord
	logger       *zap.Logger
	lastProgress int64
}

func newTask(s *Scheduler, rec *domain.AssetRecord) *task {
	return &task{
		s:   s,
		rec: rec,
		logger: s.logger.With(
			zap.String("mint", rec.Mint),
			zap.String("symbol", rec.Symbol),
		),
	}
}

// supervise runs the task and performs cleanup exactly once on exit.
func (t *task) supervise(ctx context.Context) {
	defer t.s.wg.Done()
	t.finish(t.runRecovered(ctx))
}

func (t *task) runRecovered(ctx context.Context) (reason domain.TerminalReason) {
	defer func() {
		if r := recover(); r != nil {
			t.s.failures.Report(TaskFailure{
				Mint:  t.rec.Mint,
				Err:   fmt.Sprint(r),
				Stack: string(debug.Stack()),
				At:    t.s.now(),
			})
			reason = domain.TerminalErrored
		}
	}()
	return t.run(ctx)
}

func (t *task) run(ctx context.Context) domain.TerminalReason {
	t.logger.Info("monitoring started",
		zap.Float64("initialPrice", t.rec.InitialPrice),
		zap.Float64("initialMarketCap", t.rec.InitialMarketCap),
	)

	for {
		if ctx.Err() != nil {
			return domain.TerminalShutdown
		}

		now := t.s.now()
		if now.Sub(t.rec.StartTime) >= t.s.monitorCfg.MaxMonitorTime {
			return domain.TerminalTimedOut
		}

		// Steps run to completion even when shutdown begins mid-step.
		if reason, done := t.step(context.WithoutCancel(ctx), now); done {
			return reason
		}

		t.logProgress()

		if !t.sleep(ctx) {
			return domain.TerminalShutdown
		}
	}
}

// step runs one iteration: fetch, update, dump check, alert check, exit check.
func (t *task) step(ctx context.Context, now time.Time) (domain.TerminalReason, bool) {
	q := t.fetchPrice(ctx)
	if q == nil {
		return "", false
	}

	t.rec.Observe(*q, now)
	snap := t.rec.Snapshot(now)
	t.s.registry.Publish(snap)
	t.recordTick(snap)

	if snap.MaxPrice > 0 && snap.DrawdownPercent() <= t.s.monitorCfg.DumpThresholdPercent {
		t.logger.Info("dump detected",
			zap.Float64("drawdownPercent", snap.DrawdownPercent()),
			zap.Float64("maxPrice", snap.MaxPrice),
			zap.Float64("price", snap.CurrentPrice),
		)
		return domain.TerminalDumped, true
	}

	if snap.InitialPrice > 0 && !t.s.registry.IsAlerted(t.rec.Mint) {
		t.checkAlerts(ctx, snap, now)
	}

	if t.rec.HasPosition() && t.checkExit(ctx, now) {
		return domain.TerminalClosed, true
	}
	return "", false
}

func (t *task) fetchPrice(ctx context.Context) *domain.PriceQuote {
	ctx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	defer cancel()

	q, err := t.s.oracle.GetPrice(ctx, t.rec.Mint)
	if err != nil {
		t.logger.Debug("price fetch failed", zap.Error(err))
		t.collaboratorError("oracle")
		return nil
	}
	if q == nil || q.Price <= 0 {
		t.logger.Debug("price unavailable")
		return nil
	}
	return q
}

func (t *task) recordTick(snap domain.Snapshot) {
	if t.s.ticks == nil {
		return
	}
	t.s.ticks.Enqueue(domain.PriceTick{
		Mint:        snap.Mint,
		TimestampMs: snap.TakenAt.UnixMilli(),
		Price:       snap.CurrentPrice,
		MarketCap:   snap.CurrentMarketCap,
		Liquidity:   snap.CurrentLiquidity,
		Checks:      snap.ChecksCount,
	})
}

// checkAlerts evaluates rules once per iteration until the first alert.
// Every alert of the first firing evaluation is counted and notified; at
// most one position is opened for them.
func (t *task) checkAlerts(ctx context.Context, snap domain.Snapshot, now time.Time) {
	alerts := t.s.rules.Evaluate(snap)
	if len(alerts) == 0 {
		return
	}
	if !t.s.registry.MarkAlerted(t.rec.Mint) {
		return
	}

	names := domain.RuleNames(alerts)
	t.logger.Info("alert fired",
		zap.Strings("rules", names),
		zap.Float64("gainPercent", snap.GainPercent()),
		zap.Float64("elapsedMinutes", snap.ElapsedMinutes()),
		zap.Float64("price", snap.CurrentPrice),
	)

	silenced := t.silenced(ctx, now)
	for _, a := range alerts {
		t.s.stats.IncAlerts(a.RuleName)
		if silenced {
			continue
		}
		t.notify(ctx, snap, a)
	}
	if silenced {
		t.logger.Info("notifications silenced", zap.Strings("rules", names))
	}

	if t.s.dryRunCfg.Enabled {
		t.openPosition(ctx, snap, names, now)
	}
}

func (t *task) notify(ctx context.Context, snap domain.Snapshot, a domain.Alert) {
	if t.s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	defer cancel()

	if err := t.s.notifier.Send(ctx, snap, a); err != nil {
		t.logger.Warn("failed to send notification", zap.String("rule", a.RuleName), zap.Error(err))
		t.collaboratorError("notifier")
	}
}

func (t *task) notifyText(ctx context.Context, text string, now time.Time) {
	if t.s.notifier == nil || t.silenced(ctx, now) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	defer cancel()

	if err := t.s.notifier.SendText(ctx, text); err != nil {
		t.logger.Warn("failed to send notification", zap.Error(err))
		t.collaboratorError("notifier")
	}
}

func (t *task) openPosition(ctx context.Context, snap domain.Snapshot, rules []string, now time.Time) {
	if t.s.simulator == nil {
		return
	}

	if t.paused(ctx) {
		t.logger.Info("dry run paused, skipping buy")
		return
	}

	if !t.s.positions.TryAcquire() {
		t.logger.Info("max open positions reached, skipping buy",
			zap.Int("open", t.s.positions.Open()),
			zap.Int("max", t.s.dryRunCfg.MaxOpenPositions),
		)
		return
	}

	// The slot belongs to this call until the record holds the position;
	// from then on finish releases it with the position.
	opened := false
	defer func() {
		if !opened {
			t.s.positions.Release()
		}
	}()

	fill, err := t.simulateBuy(ctx, snap)
	if err != nil {
		t.logger.Warn("simulated buy failed", zap.Error(err))
		t.collaboratorError("simulator")
		return
	}

	t.rec.OpenPosition(*fill, t.s.dryRunCfg.TradeAmountSOL, rules, now)
	opened = true
	t.s.stats.IncDryRunBuy()

	t.logger.Info("dry-run buy",
		zap.Float64("signalPrice", snap.CurrentPrice),
		zap.Float64("execPrice", fill.ExecPrice),
		zap.Float64("tokens", fill.TokensBought),
		zap.Float64("partialFill", fill.PartialFill),
	)

	t.persist(ctx, &domain.TradeEvent{
		EventID:        idhash.ComputeTradeEventID(t.rec.Mint, domain.SideBuy, t.s.dryRunCfg.Scenario, now.UnixMilli()),
		Mint:           t.rec.Mint,
		Symbol:         t.rec.Symbol,
		Side:           domain.SideBuy,
		RuleNames:      rules,
		SignalPrice:    snap.CurrentPrice,
		ExecPrice:      fill.ExecPrice,
		Tokens:         fill.TokensBought,
		SizeSOL:        t.rec.EntrySizeSOL,
		SlipFactor:     fill.SlipFactor,
		PartialFill:    fill.PartialFill,
		EntryMarketCap: t.rec.EntryMarketCap,
		EntryLiquidity: t.rec.EntryLiquidity,
		DryRun:         true,
		CreatedAt:      now,
	})
}

func (t *task) simulateBuy(ctx context.Context, snap domain.Snapshot) (*domain.BuyFill, error) {
	ctx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	defer cancel()

	return t.s.simulator.SimulateBuy(ctx, domain.BuyRequest{
		Mint:         t.rec.Mint,
		Price:        snap.CurrentPrice,
		SizeSOL:      t.s.dryRunCfg.TradeAmountSOL,
		SlippageBps:  t.s.dryRunCfg.SlippageBps,
		LiquidityUSD: snap.CurrentLiquidity,
	})
}

// exitReason returns the triggered exit, or "" to keep holding.
func (t *task) exitReason(gain float64, hold time.Duration) string {
	cfg := t.s.dryRunCfg
	switch {
	case gain >= cfg.TakeProfitPercent:
		return domain.ExitReasonTakeProfit
	case gain <= cfg.StopLossPercent:
		return domain.ExitReasonStopLoss
	case cfg.MaxHoldTime > 0 && hold >= cfg.MaxHoldTime:
		return domain.ExitReasonMaxHold
	default:
		return ""
	}
}

// checkExit sells when an exit triggers. A failed sell keeps the position
// for the next iteration.
func (t *task) checkExit(ctx context.Context, now time.Time) bool {
	snap := t.rec.Snapshot(now)
	gain := snap.PositionGainPercent()
	hold := snap.HoldDuration()

	reason := t.exitReason(gain, hold)
	if reason == "" {
		return false
	}

	simCtx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	fill, err := t.s.simulator.SimulateSell(simCtx, domain.SellRequest{
		Mint:         t.rec.Mint,
		EntryPrice:   t.rec.EntryPrice,
		ExitPrice:    snap.CurrentPrice,
		Tokens:       t.rec.TokensHeld,
		SlippageBps:  t.s.dryRunCfg.SlippageBps,
		LiquidityUSD: snap.CurrentLiquidity,
	})
	cancel()
	if err != nil {
		t.logger.Warn("simulated sell failed",
			zap.String("exitReason", reason),
			zap.Error(err),
		)
		t.collaboratorError("simulator")
		return false
	}

	pnl := fill.PnLPercent
	holdSeconds := hold.Seconds()
	t.s.stats.RecordDryRunClose(pnl > 0)

	t.logger.Info("dry-run sell",
		zap.String("exitReason", reason),
		zap.Float64("entryPrice", t.rec.EntryPrice),
		zap.Float64("execPrice", fill.ExecPrice),
		zap.Float64("pnlPercent", pnl),
		zap.Duration("hold", hold),
	)

	t.persist(ctx, &domain.TradeEvent{
		EventID:        idhash.ComputeTradeEventID(t.rec.Mint, domain.SideSell, t.s.dryRunCfg.Scenario, now.UnixMilli()),
		Mint:           t.rec.Mint,
		Symbol:         t.rec.Symbol,
		Side:           domain.SideSell,
		RuleNames:      t.rec.EntryRules,
		SignalPrice:    snap.CurrentPrice,
		ExecPrice:      fill.ExecPrice,
		Tokens:         fill.TokensSold,
		SizeSOL:        t.rec.EntrySizeSOL,
		SlipFactor:     fill.SlipFactor,
		PartialFill:    fill.PartialFill,
		PnLPercent:     &pnl,
		HoldSeconds:    &holdSeconds,
		ExitReason:     reason,
		EntryMarketCap: t.rec.EntryMarketCap,
		EntryLiquidity: t.rec.EntryLiquidity,
		DryRun:         true,
		CreatedAt:      now,
	})

	t.notifyText(ctx, fmt.Sprintf("%s %s closed (%s): %+.1f%% after %s",
		domain.OutcomeClass(pnl), t.rec.Symbol, reason, pnl, hold.Round(time.Second)), now)

	t.rec.ClosePosition()
	t.s.positions.Release()
	return true
}

func (t *task) persist(ctx context.Context, e *domain.TradeEvent) {
	if t.s.trades == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	defer cancel()

	if err := t.s.trades.Insert(ctx, e); err != nil {
		t.logger.Warn("failed to persist trade event",
			zap.String("side", e.Side),
			zap.String("eventID", e.EventID),
			zap.Error(err),
		)
		t.collaboratorError("trade_store")
	}
}

func (t *task) silenced(ctx context.Context, now time.Time) bool {
	ctx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	defer cancel()

	silenced, err := t.s.params.SilencedAt(ctx, now)
	if err != nil {
		t.logger.Warn("failed to read param", zap.String("key", ParamAlertSilenceUntil), zap.Error(err))
		return false
	}
	return silenced
}

func (t *task) paused(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, t.s.monitorCfg.StepTimeout)
	defer cancel()

	paused, err := t.s.params.DryRunPaused(ctx)
	if err != nil {
		t.logger.Warn("failed to read param", zap.String("key", ParamDryRunPaused), zap.Error(err))
		return false
	}
	return paused
}

func (t *task) logProgress() {
	every := t.s.monitorCfg.ProgressLogEvery
	checks := t.rec.ChecksCount
	if every <= 0 || checks == 0 || checks == t.lastProgress || checks%every != 0 {
		return
	}
	t.lastProgress = checks

	snap := t.rec.Snapshot(t.s.now())
	t.logger.Debug("monitoring progress",
		zap.Int64("checks", checks),
		zap.Float64("price", snap.CurrentPrice),
		zap.Float64("gainPercent", snap.GainPercent()),
		zap.Float64("drawdownPercent", snap.DrawdownPercent()),
		zap.Float64("elapsedMinutes", snap.ElapsedMinutes()),
		zap.Bool("position", snap.HasPosition()),
	)
}

func (t *task) sleep(ctx context.Context) bool {
	timer := time.NewTimer(t.s.monitorCfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// finish removes the record and releases the distributed lock.
func (t *task) finish(reason domain.TerminalReason) {
	now := t.s.now()

	if t.rec.HasPosition() {
		t.logger.Warn("open position abandoned",
			zap.String("reason", string(reason)),
			zap.Float64("entryPrice", t.rec.EntryPrice),
			zap.Float64("tokens", t.rec.TokensHeld),
		)
		t.rec.ClosePosition()
		t.s.positions.Release()
	}

	t.s.registry.Remove(t.rec.Mint)

	ctx, cancel := context.WithTimeout(context.Background(), defaultReleaseTimeout)
	defer cancel()
	if err := t.s.locks.ReleaseMonitor(ctx, t.rec.Mint); err != nil {
		t.logger.Warn("failed to release monitor lock", zap.Error(err))
		t.collaboratorError("lock")
	}

	lifetime := now.Sub(t.rec.StartTime)
	if m := t.s.metrics; m != nil {
		m.ActiveMonitors.Dec()
		m.TerminalTransitions.WithLabelValues(string(reason)).Inc()
		m.TaskLifetime.WithLabelValues(string(reason)).Observe(lifetime.Seconds())
	}

	t.logger.Info("monitoring stopped",
		zap.String("reason", string(reason)),
		zap.Int64("checks", t.rec.ChecksCount),
		zap.Float64("maxPrice", t.rec.MaxPrice),
		zap.Duration("lifetime", lifetime),
	)
}

func (t *task) collaboratorError(name string) {
	if t.s.metrics != nil {
		t.s.metrics.CollaboratorErrors.WithLabelValues(name).Inc()
	}
}
