package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/monitor"
	"github.com/Jovzzqez008/sol-bot/internal/performance"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

var errUsage = errors.New("usage")

// adminStore is everything the operator commands touch.
type adminStore interface {
	storage.MintRegistry
	storage.LockAdmin
}

// commands runs operator subcommands against the shared stores.
type commands struct {
	locks  adminStore
	trades storage.TradeEventStore
	out    io.Writer
	now    func() time.Time
}

func (c *commands) run(ctx context.Context, name string, args []string) error {
	switch name {
	case "release":
		return c.release(ctx, args)
	case "silence":
		return c.silence(ctx, args)
	case "unsilence":
		return c.unsilence(ctx)
	case "params":
		return c.params(ctx)
	case "set-param":
		return c.setParam(ctx, args)
	case "trades":
		return c.tradesCmd(ctx, args)
	case "report":
		return c.report(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

// release force-releases a monitor lock left behind by a crashed instance.
func (c *commands) release(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: release <mint>", errUsage)
	}
	mint := args[0]
	if err := c.locks.ForceRelease(ctx, mint); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(c.out, "no lock held for %s\n", mint)
			return nil
		}
		return fmt.Errorf("release %s: %w", mint, err)
	}
	fmt.Fprintf(c.out, "released %s\n", mint)
	return nil
}

func (c *commands) silence(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: silence <duration>", errUsage)
	}
	d, err := time.ParseDuration(args[0])
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: invalid duration %q", errUsage, args[0])
	}
	until := c.now().Add(d).UTC().Format(time.RFC3339)
	if err := c.locks.SetParam(ctx, monitor.ParamAlertSilenceUntil, until); err != nil {
		return fmt.Errorf("set %s: %w", monitor.ParamAlertSilenceUntil, err)
	}
	fmt.Fprintf(c.out, "alerts silenced until %s\n", until)
	return nil
}

func (c *commands) unsilence(ctx context.Context) error {
	if err := c.locks.SetParam(ctx, monitor.ParamAlertSilenceUntil, ""); err != nil {
		return fmt.Errorf("clear %s: %w", monitor.ParamAlertSilenceUntil, err)
	}
	fmt.Fprintln(c.out, "alerts unsilenced")
	return nil
}

func (c *commands) params(ctx context.Context) error {
	params, err := c.locks.ListParams(ctx)
	if err != nil {
		return fmt.Errorf("list params: %w", err)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, params[k])
	}
	return w.Flush()
}

func (c *commands) setParam(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: set-param <key> <value>", errUsage)
	}
	key, value := strings.TrimSpace(args[0]), args[1]
	if key == "" {
		return fmt.Errorf("%w: empty key", errUsage)
	}
	if err := c.locks.SetParam(ctx, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	fmt.Fprintf(c.out, "%s = %s\n", key, value)
	return nil
}

func (c *commands) tradesCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trades", flag.ContinueOnError)
	fs.SetOutput(c.out)
	limit := fs.Int("limit", 20, "Number of recent trade events to show")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", errUsage)
	}

	events, err := c.trades.ListRecent(ctx, *limit)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSIDE\tSYMBOL\tMINT\tEXEC\tPNL%\tREASON")
	for _, e := range events {
		pnl := "-"
		if e.PnLPercent != nil {
			pnl = fmt.Sprintf("%+.1f", *e.PnLPercent)
		}
		reason := e.ExitReason
		if reason == "" {
			reason = strings.Join(e.RuleNames, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.10g\t%s\t%s\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Side, e.Symbol, e.Mint, e.ExecPrice, pnl, reason)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary, err := c.trades.Summary(ctx)
	if err != nil {
		return fmt.Errorf("trade summary: %w", err)
	}
	fmt.Fprintf(c.out, "\nclosed: %d  wins: %d  losses: %d  win rate: %.1f%%  avg pnl: %+.1f%%\n",
		summary.Sells, summary.Wins, summary.Losses, summary.WinRate()*100, summary.AvgPnLPercent)
	return nil
}

// report prints outcome statistics for recent closed trades.
func (c *commands) report(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(c.out)
	limit := fs.Int("limit", 1000, "Number of recent trade events to aggregate")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", errUsage)
	}

	events, err := c.trades.ListRecent(ctx, *limit)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	rows := []performance.Aggregate{performance.Compute(performance.KeyAll, events)}
	rows = append(rows, performance.ByExitReason(events)...)
	rows = append(rows, performance.ByRule(events)...)

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tTRADES\tTOKENS\tWIN%\tMEAN%\tMEDIAN%\tP10%\tP90%\tMAX_DD%\tLOSS_STREAK\tAVG_HOLD")
	for _, a := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%+.1f\t%+.1f\t%+.1f\t%+.1f\t%.1f\t%d\t%s\n",
			a.Key, a.Trades, a.Tokens, a.WinRate*100, a.Mean, a.Median, a.P10, a.P90,
			a.MaxDrawdown, a.MaxConsecutiveLosses,
			(time.Duration(a.AvgHoldSeconds) * time.Second).String())
	}
	return w.Flush()
}
