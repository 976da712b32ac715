package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/monitor"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

const commandHelp = `Commands:
/status - counters, active monitors and open positions
/pause - stop opening dry-run positions
/resume - allow dry-run positions again
/silence <duration> - mute alerts, e.g. /silence 30m
/unsilence - unmute alerts`

// CommandHandler answers operator chat commands. Runtime switches go
// through the shared parameter store so every instance sees them.
type CommandHandler struct {
	stats     *observability.Stats
	active    func() int
	positions func() int
	store     storage.MintRegistry
	params    *monitor.Params
	mode      string
	now       func() time.Time
}

// CommandOptions contains configuration for creating a CommandHandler.
type CommandOptions struct {
	Stats         *observability.Stats
	Active        func() int // Optional: active monitor count
	OpenPositions func() int // Optional: open dry-run positions
	Params        storage.MintRegistry
	Mode          string
	Clock         func() time.Time // Default: time.Now
}

// NewCommandHandler creates a command handler.
func NewCommandHandler(opts CommandOptions) *CommandHandler {
	stats := opts.Stats
	if stats == nil {
		stats = observability.NewStats(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &CommandHandler{
		stats:     stats,
		active:    opts.Active,
		positions: opts.OpenPositions,
		store:     opts.Params,
		params:    monitor.NewParams(opts.Params),
		mode:      opts.Mode,
		now:       clock,
	}
}

// Handle executes one command and returns the reply text.
func (h *CommandHandler) Handle(ctx context.Context, command, args string) string {
	switch strings.ToLower(command) {
	case "status", "stats":
		return h.status(ctx)
	case "pause":
		return h.setParam(ctx, monitor.ParamDryRunPaused, "true", "Dry-run buys paused")
	case "resume":
		return h.setParam(ctx, monitor.ParamDryRunPaused, "false", "Dry-run buys resumed")
	case "silence":
		d, err := time.ParseDuration(strings.TrimSpace(args))
		if err != nil || d <= 0 {
			return "Usage: /silence <duration>, e.g. /silence 30m"
		}
		until := h.now().Add(d).UTC().Format(time.RFC3339)
		return h.setParam(ctx, monitor.ParamAlertSilenceUntil, until, "Alerts silenced until "+until)
	case "unsilence":
		return h.setParam(ctx, monitor.ParamAlertSilenceUntil, "", "Alerts unsilenced")
	default:
		return commandHelp
	}
}

func (h *CommandHandler) setParam(ctx context.Context, key, value, ok string) string {
	if h.store == nil {
		return "Parameter store unavailable"
	}
	if err := h.store.SetParam(ctx, key, value); err != nil {
		return fmt.Sprintf("Failed to set %s: %v", key, err)
	}
	return ok
}

func (h *CommandHandler) status(ctx context.Context) string {
	snap := h.stats.Snapshot()

	var b strings.Builder
	mode := h.mode
	if h.store != nil {
		if paused, _ := h.params.DryRunPaused(ctx); paused {
			mode += " (paused)"
		}
	}
	fmt.Fprintf(&b, "Mode: %s\n", mode)

	if h.active != nil || h.positions != nil {
		active, open := 0, 0
		if h.active != nil {
			active = h.active()
		}
		if h.positions != nil {
			open = h.positions()
		}
		fmt.Fprintf(&b, "Active monitors: %d | Open positions: %d\n", active, open)
	}

	fmt.Fprintf(&b, "Detected %d | Monitored %d | Alerts %d\n", snap.Detected, snap.Monitored, snap.Alerts)
	fmt.Fprintf(&b, "Filtered %d | Rejected %d | Invalid %d\n", snap.Filtered, snap.Rejected, snap.Invalid)
	fmt.Fprintf(&b, "Dry run: %d buys, %d trades, %dW/%dL (%.1f%% win rate)\n",
		snap.DryRunBuys, snap.DryRunTrades, snap.DryRunWins, snap.DryRunLosses, snap.WinRate*100)

	if h.store != nil {
		if silenced, _ := h.params.SilencedAt(ctx, h.now()); silenced {
			b.WriteString("Alerts silenced\n")
		}
	}
	fmt.Fprintf(&b, "Uptime: %s", (time.Duration(snap.UptimeSec) * time.Second).String())
	return b.String()
}
