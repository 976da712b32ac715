package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/monitor"
	"github.com/Jovzzqez008/sol-bot/internal/storage/memory"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newCommands() (*commands, *memory.MintRegistry, *memory.TradeEventStore, *bytes.Buffer) {
	locks := memory.NewMintRegistry("ops", time.Hour)
	trades := memory.NewTradeEventStore()
	out := &bytes.Buffer{}
	return &commands{
		locks:  locks,
		trades: trades,
		out:    out,
		now:    func() time.Time { return now },
	}, locks, trades, out
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	cmds, _, _, out := newCommands()

	ok, err := cmds.locks.LockMonitor(ctx, "mint1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, cmds.run(ctx, "release", []string{"mint1"}))
	assert.Contains(t, out.String(), "released mint1")

	ok, err = cmds.locks.LockMonitor(ctx, "mint1")
	require.NoError(t, err)
	assert.True(t, ok, "lock must be free after release")
}

func TestRelease_NoLock(t *testing.T) {
	cmds, _, _, out := newCommands()

	require.NoError(t, cmds.run(context.Background(), "release", []string{"mint1"}))
	assert.Contains(t, out.String(), "no lock held")
}

func TestSilenceAndUnsilence(t *testing.T) {
	ctx := context.Background()
	cmds, locks, _, _ := newCommands()
	params := monitor.NewParams(locks)

	require.NoError(t, cmds.run(ctx, "silence", []string{"2h"}))

	v, err := locks.GetParam(ctx, monitor.ParamAlertSilenceUntil, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T12:00:00Z", v)

	silenced, err := params.SilencedAt(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, silenced)

	require.NoError(t, cmds.run(ctx, "unsilence", nil))
	silenced, err = params.SilencedAt(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, silenced)
}

func TestSilence_InvalidDuration(t *testing.T) {
	cmds, _, _, _ := newCommands()

	assert.ErrorIs(t, cmds.run(context.Background(), "silence", []string{"soon"}), errUsage)
	assert.ErrorIs(t, cmds.run(context.Background(), "silence", []string{"-1h"}), errUsage)
	assert.ErrorIs(t, cmds.run(context.Background(), "silence", nil), errUsage)
}

func TestSetParamAndList(t *testing.T) {
	ctx := context.Background()
	cmds, locks, _, out := newCommands()

	require.NoError(t, cmds.run(ctx, "set-param", []string{monitor.ParamDryRunPaused, "true"}))

	paused, err := monitor.NewParams(locks).DryRunPaused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	out.Reset()
	require.NoError(t, cmds.run(ctx, "params", nil))
	assert.Contains(t, out.String(), "KEY")
	assert.Contains(t, out.String(), "dry_run_paused")
	assert.Contains(t, out.String(), "true")

	assert.ErrorIs(t, cmds.run(ctx, "set-param", []string{"only-key"}), errUsage)
}

func TestTrades(t *testing.T) {
	ctx := context.Background()
	cmds, _, trades, out := newCommands()

	pnl := 42.5
	hold := 120.0
	require.NoError(t, trades.Insert(ctx, &domain.TradeEvent{
		EventID: "buy1", Mint: "mint1", Symbol: "AAA", Side: domain.SideBuy,
		RuleNames: []string{"FAST_PUMP"}, ExecPrice: 1.02, CreatedAt: now,
	}))
	require.NoError(t, trades.Insert(ctx, &domain.TradeEvent{
		EventID: "sell1", Mint: "mint1", Symbol: "AAA", Side: domain.SideSell,
		ExecPrice: 1.45, PnLPercent: &pnl, HoldSeconds: &hold,
		ExitReason: domain.ExitReasonTakeProfit, CreatedAt: now.Add(2 * time.Minute),
	}))

	require.NoError(t, cmds.run(ctx, "trades", []string{"-limit", "5"}))

	s := out.String()
	assert.Contains(t, s, "FAST_PUMP")
	assert.Contains(t, s, "TAKE_PROFIT")
	assert.Contains(t, s, "+42.5")
	assert.Contains(t, s, "closed: 1  wins: 1  losses: 0  win rate: 100.0%")

	assert.ErrorIs(t, cmds.run(ctx, "trades", []string{"-limit", "0"}), errUsage)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	cmds, _, trades, out := newCommands()

	win, loss := 80.0, -20.0
	hold := 60.0
	require.NoError(t, trades.Insert(ctx, &domain.TradeEvent{
		EventID: "s1", Mint: "mint1", Side: domain.SideSell, RuleNames: []string{"MOMENTUM"},
		PnLPercent: &win, HoldSeconds: &hold, ExitReason: domain.ExitReasonTakeProfit, CreatedAt: now,
	}))
	require.NoError(t, trades.Insert(ctx, &domain.TradeEvent{
		EventID: "s2", Mint: "mint2", Side: domain.SideSell, RuleNames: []string{"MOMENTUM"},
		PnLPercent: &loss, HoldSeconds: &hold, ExitReason: domain.ExitReasonStopLoss, CreatedAt: now.Add(time.Minute),
	}))

	require.NoError(t, cmds.run(ctx, "report", nil))

	s := out.String()
	assert.Contains(t, s, "GROUP")
	assert.Contains(t, s, "ALL")
	assert.Contains(t, s, "STOP_LOSS")
	assert.Contains(t, s, "TAKE_PROFIT")
	assert.Contains(t, s, "MOMENTUM")
	assert.Contains(t, s, "50.0")
}

func TestUnknownCommand(t *testing.T) {
	cmds, _, _, _ := newCommands()
	assert.ErrorIs(t, cmds.run(context.Background(), "explode", nil), errUsage)
}
