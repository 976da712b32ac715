package status

import (
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/observability"
)

// HealthResponse is the JSON response for /health.
type HealthResponse struct {
	Status        string    `json:"status"`
	Server        string    `json:"server"`
	BotRunning    bool      `json:"bot_running"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Mode          string    `json:"mode"`
	Timestamp     time.Time `json:"timestamp"`
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Server      ServerSection      `json:"server"`
	Bot         BotSection         `json:"bot"`
	Activity    ActivitySection    `json:"activity"`
	Performance PerformanceSection `json:"performance"`
	Assets      []AssetStatus      `json:"assets"`
}

type ServerSection struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

type BotSection struct {
	Running bool   `json:"running"`
	Mode    string `json:"mode"`
}

type ActivitySection struct {
	Detected       int64 `json:"detected"`
	Monitored      int64 `json:"monitored"`
	Alerts         int64 `json:"alerts"`
	Filtered       int64 `json:"filtered"`
	Rejected       int64 `json:"rejected"`
	Invalid        int64 `json:"invalid"`
	ActiveMonitors int   `json:"active_monitors"`
	OpenPositions  int   `json:"open_positions"`
}

type PerformanceSection struct {
	Trades  int64   `json:"trades"`
	Wins    int64   `json:"wins"`
	Losses  int64   `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// AssetStatus is one monitored asset in /status.
type AssetStatus struct {
	Mint           string  `json:"mint"`
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	GainPercent    float64 `json:"gain_percent"`
	DrawdownPct    float64 `json:"drawdown_percent"`
	ElapsedMinutes float64 `json:"elapsed_minutes"`
	Checks         int64   `json:"checks"`
	Position       bool    `json:"position"`
}

// StatsResponse is the JSON response for /stats.
type StatsResponse struct {
	observability.StatsSnapshot
	ActiveMonitors int   `json:"active_monitors"`
	OpenPositions  int   `json:"open_positions"`
	TaskFailures   int64 `json:"task_failures"`
}
