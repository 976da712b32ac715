// Package config loads the bot's configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete bot configuration.
type Config struct {
	LogLevel string

	Feed     FeedConfig
	Oracle   OracleConfig
	Monitor  MonitorConfig
	Rules    RulesConfig
	DryRun   DryRunConfig
	Safety   SafetyConfig
	Storage  StorageConfig
	Discord  DiscordConfig
	Telegram TelegramConfig
	Status   StatusConfig
}

// FeedConfig configures the new-token websocket feed.
type FeedConfig struct {
	URL           string
	BufferSize    int
	IngestWorkers int
	ReconnectMin  time.Duration
	ReconnectMax  time.Duration
	PingInterval  time.Duration
	HandleTimeout time.Duration
}

// OracleConfig configures the DexScreener price oracle.
type OracleConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MonitorConfig configures the per-asset monitor loop.
type MonitorConfig struct {
	PollInterval         time.Duration
	MaxMonitorTime       time.Duration
	DumpThresholdPercent float64
	MinMarketCapUSD      float64
	MaxMonitors          int // 0 = unbounded
	ProgressLogEvery     int64
	StepTimeout          time.Duration
	LockTTL              time.Duration
	ShutdownTimeout      time.Duration
	TickFlushInterval    time.Duration
	TickBatchSize        int
}

// RulesConfig holds the alert rule thresholds.
type RulesConfig struct {
	FastPumpGainPercent float64
	FastPumpWindow      time.Duration
	MomentumGainPercent float64
	SteadyGainPercent   float64
	SteadyMinAge        time.Duration
	SteadyMaxDrawdown   float64
	Enabled             []string // empty = all rules
}

// DryRunConfig configures simulated trading.
type DryRunConfig struct {
	Enabled           bool
	TradeAmountSOL    float64
	SlippageBps       int
	TakeProfitPercent float64
	StopLossPercent   float64
	MaxHoldTime       time.Duration
	MaxOpenPositions  int // 0 = unbounded
	SolPriceUSD       float64
	Scenario          string
}

// SafetyConfig configures the on-chain mint safety check.
type SafetyConfig struct {
	Enabled    bool
	RPCURLs    []string
	RPCTimeout time.Duration
}

// StorageConfig selects and configures persistence.
type StorageConfig struct {
	UseMemory     bool
	PostgresDSN   string
	ClickhouseDSN string

	// Postgres pool sizing; zero keeps the pgxpool default.
	PostgresMaxConns        int
	PostgresMinConns        int
	PostgresConnMaxLifetime time.Duration
}

// DiscordConfig configures the Discord notifier.
type DiscordConfig struct {
	BotToken  string
	ChannelID string
}

// TelegramConfig configures the Telegram notifier.
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// StatusConfig configures the HTTP status server.
type StatusConfig struct {
	Enabled bool
	Port    int
}

// Addr returns the listen address for the status server.
func (s StatusConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	maxMonitorTime := 30 * time.Minute
	return &Config{
		LogLevel: "info",
		Feed: FeedConfig{
			URL:           "wss://pumpportal.fun/api/data",
			BufferSize:    256,
			IngestWorkers: 8,
			ReconnectMin:  1 * time.Second,
			ReconnectMax:  30 * time.Second,
			PingInterval:  30 * time.Second,
			HandleTimeout: 15 * time.Second,
		},
		Oracle: OracleConfig{
			BaseURL: "https://api.dexscreener.com",
			Timeout: 5 * time.Second,
		},
		Monitor: MonitorConfig{
			PollInterval:         10 * time.Second,
			MaxMonitorTime:       maxMonitorTime,
			DumpThresholdPercent: -30,
			MinMarketCapUSD:      5000,
			MaxMonitors:          500,
			ProgressLogEvery:     6,
			StepTimeout:          10 * time.Second,
			LockTTL:              maxMonitorTime + 10*time.Minute,
			ShutdownTimeout:      30 * time.Second,
			TickFlushInterval:    5 * time.Second,
			TickBatchSize:        500,
		},
		Rules: RulesConfig{
			FastPumpGainPercent: 50,
			FastPumpWindow:      5 * time.Minute,
			MomentumGainPercent: 100,
			SteadyGainPercent:   30,
			SteadyMinAge:        10 * time.Minute,
			SteadyMaxDrawdown:   -10,
		},
		DryRun: DryRunConfig{
			Enabled:           true,
			TradeAmountSOL:    0.01,
			SlippageBps:       1500,
			TakeProfitPercent: 100,
			StopLossPercent:   -20,
			MaxHoldTime:       15 * time.Minute,
			MaxOpenPositions:  3,
			SolPriceUSD:       150,
			Scenario:          "realistic",
		},
		Safety: SafetyConfig{
			Enabled:    false,
			RPCURLs:    []string{"https://api.mainnet-beta.solana.com"},
			RPCTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			PostgresMaxConns:        10,
			PostgresMinConns:        1,
			PostgresConnMaxLifetime: 30 * time.Minute,
		},
		Status: StatusConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	d := Defaults()

	maxMonitorTime := envDuration("MAX_MONITOR_TIME", d.Monitor.MaxMonitorTime)

	return &Config{
		LogLevel: strings.ToLower(envString("LOG_LEVEL", d.LogLevel)),

		Feed: FeedConfig{
			URL:           envString("PUMPPORTAL_WS_URL", d.Feed.URL),
			BufferSize:    envInt("FEED_BUFFER_SIZE", d.Feed.BufferSize),
			IngestWorkers: envInt("INGEST_WORKERS", d.Feed.IngestWorkers),
			ReconnectMin:  envDuration("FEED_RECONNECT_MIN", d.Feed.ReconnectMin),
			ReconnectMax:  envDuration("FEED_RECONNECT_MAX", d.Feed.ReconnectMax),
			PingInterval:  envDuration("FEED_PING_INTERVAL", d.Feed.PingInterval),
			HandleTimeout: envDuration("INGEST_HANDLE_TIMEOUT", d.Feed.HandleTimeout),
		},

		Oracle: OracleConfig{
			BaseURL: envString("DEXSCREENER_URL", d.Oracle.BaseURL),
			Timeout: envDuration("ORACLE_TIMEOUT", d.Oracle.Timeout),
		},

		Monitor: MonitorConfig{
			PollInterval:         envDuration("POLL_INTERVAL", d.Monitor.PollInterval),
			MaxMonitorTime:       maxMonitorTime,
			DumpThresholdPercent: envFloat("DUMP_THRESHOLD_PERCENT", d.Monitor.DumpThresholdPercent),
			MinMarketCapUSD:      envFloat("MIN_MARKET_CAP_USD", d.Monitor.MinMarketCapUSD),
			MaxMonitors:          envInt("MAX_MONITORS", d.Monitor.MaxMonitors),
			ProgressLogEvery:     envInt64("PROGRESS_LOG_EVERY", d.Monitor.ProgressLogEvery),
			StepTimeout:          envDuration("STEP_TIMEOUT", d.Monitor.StepTimeout),
			LockTTL:              envDuration("LOCK_TTL", maxMonitorTime+10*time.Minute),
			ShutdownTimeout:      envDuration("SHUTDOWN_TIMEOUT", d.Monitor.ShutdownTimeout),
			TickFlushInterval:    envDuration("TICK_FLUSH_INTERVAL", d.Monitor.TickFlushInterval),
			TickBatchSize:        envInt("TICK_BATCH_SIZE", d.Monitor.TickBatchSize),
		},

		Rules: RulesConfig{
			FastPumpGainPercent: envFloat("RULE_FAST_PUMP_GAIN", d.Rules.FastPumpGainPercent),
			FastPumpWindow:      envDuration("RULE_FAST_PUMP_WINDOW", d.Rules.FastPumpWindow),
			MomentumGainPercent: envFloat("RULE_MOMENTUM_GAIN", d.Rules.MomentumGainPercent),
			SteadyGainPercent:   envFloat("RULE_STEADY_GAIN", d.Rules.SteadyGainPercent),
			SteadyMinAge:        envDuration("RULE_STEADY_MIN_AGE", d.Rules.SteadyMinAge),
			SteadyMaxDrawdown:   envFloat("RULE_STEADY_MAX_DRAWDOWN", d.Rules.SteadyMaxDrawdown),
			Enabled:             envStringSlice("RULES_ENABLED"),
		},

		DryRun: DryRunConfig{
			Enabled:           envBoolDefault("DRY_RUN", d.DryRun.Enabled),
			TradeAmountSOL:    envFloat("TRADE_AMOUNT_SOL", d.DryRun.TradeAmountSOL),
			SlippageBps:       envInt("SLIPPAGE_BPS", d.DryRun.SlippageBps),
			TakeProfitPercent: envFloat("TAKE_PROFIT_PERCENT", d.DryRun.TakeProfitPercent),
			StopLossPercent:   envFloat("STOP_LOSS_PERCENT", d.DryRun.StopLossPercent),
			MaxHoldTime:       envDuration("MAX_HOLD_TIME", d.DryRun.MaxHoldTime),
			MaxOpenPositions:  envInt("MAX_OPEN_POSITIONS", d.DryRun.MaxOpenPositions),
			SolPriceUSD:       envFloat("SOL_PRICE_USD", d.DryRun.SolPriceUSD),
			Scenario:          strings.ToLower(envString("SIM_SCENARIO", d.DryRun.Scenario)),
		},

		Safety: SafetyConfig{
			Enabled:    envBoolDefault("SAFETY_CHECK_ENABLED", d.Safety.Enabled),
			RPCURLs:    envStringSliceDefault("SOLANA_RPC_URLS", d.Safety.RPCURLs),
			RPCTimeout: envDuration("SOLANA_RPC_TIMEOUT", d.Safety.RPCTimeout),
		},

		Storage: StorageConfig{
			UseMemory:     envBoolDefault("USE_MEMORY", false),
			PostgresDSN:   envString("POSTGRES_DSN", ""),
			ClickhouseDSN: envString("CLICKHOUSE_DSN", ""),

			PostgresMaxConns:        envInt("POSTGRES_MAX_CONNS", d.Storage.PostgresMaxConns),
			PostgresMinConns:        envInt("POSTGRES_MIN_CONNS", d.Storage.PostgresMinConns),
			PostgresConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", d.Storage.PostgresConnMaxLifetime),
		},

		Discord: DiscordConfig{
			BotToken:  envString("DISCORD_BOT_TOKEN", ""),
			ChannelID: envString("DISCORD_CHANNEL_ID", ""),
		},

		Telegram: TelegramConfig{
			BotToken: envString("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   envInt64("TELEGRAM_CHAT_ID", 0),
		},

		Status: StatusConfig{
			Enabled: envBoolDefault("STATUS_SERVER_ENABLED", d.Status.Enabled),
			Port:    envInt("PORT", d.Status.Port),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envInt64(key string, defaultVal int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}

func envStringSlice(key string) []string {
	return envStringSliceDefault(key, nil)
}

func envStringSliceDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
