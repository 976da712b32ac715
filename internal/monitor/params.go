package monitor

import (
	"context"
	"strconv"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// Runtime parameter keys stored in the distributed registry.
const (
	// ParamAlertSilenceUntil holds an RFC3339 time. Notifications are
	// suppressed until then; alerts are still counted and acted on.
	ParamAlertSilenceUntil = "alert_silence_until"

	// ParamDryRunPaused set to "true" stops new simulated positions.
	ParamDryRunPaused = "dry_run_paused"
)

// Params reads runtime parameters. Read errors and malformed values count
// as unset.
type Params struct {
	store storage.MintRegistry
}

// NewParams creates a parameter reader over store.
func NewParams(store storage.MintRegistry) *Params {
	return &Params{store: store}
}

// SilencedAt reports whether notifications are silenced at now.
func (p *Params) SilencedAt(ctx context.Context, now time.Time) (bool, error) {
	v, err := p.store.GetParam(ctx, ParamAlertSilenceUntil, "")
	if err != nil || v == "" {
		return false, err
	}
	until, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return false, err
	}
	return now.Before(until), nil
}

// DryRunPaused reports whether new positions are paused.
func (p *Params) DryRunPaused(ctx context.Context) (bool, error) {
	v, err := p.store.GetParam(ctx, ParamDryRunPaused, "false")
	if err != nil {
		return false, err
	}
	paused, err := strconv.ParseBool(v)
	if err != nil {
		return false, err
	}
	return paused, nil
}
