package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validScenarios = map[string]bool{
	"optimistic":  true,
	"realistic":   true,
	"pessimistic": true,
	"degraded":    true,
}

// Validate checks the config for invalid values. The returned error wraps
// ErrInvalidConfig and lists every offending field.
func (c *Config) Validate() error {
	var errs []ValidationError

	if c.Feed.URL == "" {
		errs = append(errs, ValidationError{"feed.url", "must not be empty"})
	}
	if c.Feed.IngestWorkers < 1 {
		errs = append(errs, ValidationError{"feed.ingest_workers", "must be at least 1"})
	}
	if c.Oracle.Timeout <= 0 {
		errs = append(errs, ValidationError{"oracle.timeout", "must be positive"})
	}

	errs = append(errs, validateMonitor(&c.Monitor)...)
	errs = append(errs, validateDryRun(&c.DryRun)...)

	if c.Safety.Enabled && len(c.Safety.RPCURLs) == 0 {
		errs = append(errs, ValidationError{"safety.rpc_urls", "required when the safety check is enabled"})
	}
	errs = append(errs, validateStorage(&c.Storage)...)

	if c.Status.Enabled && (c.Status.Port < 1 || c.Status.Port > 65535) {
		errs = append(errs, ValidationError{"status.port", "must be between 1 and 65535"})
	}
	if c.Discord.BotToken != "" && c.Discord.ChannelID == "" {
		errs = append(errs, ValidationError{"discord.channel_id", "required when a bot token is set"})
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, ValidationError{"telegram.chat_id", "required when a bot token is set"})
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func validateMonitor(m *MonitorConfig) []ValidationError {
	var errs []ValidationError

	if m.PollInterval < 100*time.Millisecond {
		errs = append(errs, ValidationError{"monitor.poll_interval", "must be at least 100ms"})
	}
	if m.MaxMonitorTime <= 0 {
		errs = append(errs, ValidationError{"monitor.max_monitor_time", "must be positive"})
	}
	if m.DumpThresholdPercent >= 0 {
		errs = append(errs, ValidationError{"monitor.dump_threshold_percent", "must be negative"})
	}
	if m.MinMarketCapUSD < 0 {
		errs = append(errs, ValidationError{"monitor.min_market_cap_usd", "must not be negative"})
	}
	if m.MaxMonitors < 0 {
		errs = append(errs, ValidationError{"monitor.max_monitors", "must not be negative"})
	}
	if m.LockTTL < m.MaxMonitorTime {
		errs = append(errs, ValidationError{"monitor.lock_ttl", "must cover max monitor time"})
	}
	if m.StepTimeout <= 0 {
		errs = append(errs, ValidationError{"monitor.step_timeout", "must be positive"})
	}
	return errs
}

func validateDryRun(d *DryRunConfig) []ValidationError {
	var errs []ValidationError

	if !d.Enabled {
		return nil
	}
	if d.TradeAmountSOL <= 0 {
		errs = append(errs, ValidationError{"dry_run.trade_amount_sol", "must be positive"})
	}
	if d.SlippageBps <= 0 || d.SlippageBps > 10000 {
		errs = append(errs, ValidationError{"dry_run.slippage_bps", "must be in (0, 10000]"})
	}
	if d.TakeProfitPercent <= 0 {
		errs = append(errs, ValidationError{"dry_run.take_profit_percent", "must be positive"})
	}
	if d.StopLossPercent >= 0 {
		errs = append(errs, ValidationError{"dry_run.stop_loss_percent", "must be negative"})
	}
	if d.MaxHoldTime <= 0 {
		errs = append(errs, ValidationError{"dry_run.max_hold_time", "must be positive"})
	}
	if d.SolPriceUSD <= 0 {
		errs = append(errs, ValidationError{"dry_run.sol_price_usd", "must be positive"})
	}
	if !validScenarios[d.Scenario] {
		errs = append(errs, ValidationError{"dry_run.scenario", "unknown scenario " + d.Scenario})
	}
	return errs
}

func validateStorage(s *StorageConfig) []ValidationError {
	var errs []ValidationError

	if s.PostgresMaxConns < 0 || s.PostgresMinConns < 0 {
		errs = append(errs, ValidationError{"storage.postgres_conns", "must not be negative"})
	}
	if s.PostgresMaxConns > 0 && s.PostgresMinConns > s.PostgresMaxConns {
		errs = append(errs, ValidationError{"storage.postgres_min_conns", "must not exceed max conns"})
	}
	if s.PostgresConnMaxLifetime < 0 {
		errs = append(errs, ValidationError{"storage.postgres_conn_max_lifetime", "must not be negative"})
	}
	return errs
}
