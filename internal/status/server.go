// Package status serves the bot's health and counters over HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
)

const (
	serviceName     = "sol-bot"
	shutdownTimeout = 5 * time.Second
)

// RegistryView is the read side of the monitor registry.
type RegistryView interface {
	Size() int
	Snapshots() []domain.Snapshot
}

// PositionView reports open simulated positions.
type PositionView interface {
	Open() int
}

// FailureView reports monitor task failures.
type FailureView interface {
	Total() int64
}

// Server exposes read-only status endpoints.
type Server struct {
	addr      string
	mode      string
	stats     *observability.Stats
	registry  RegistryView
	positions PositionView
	failures  FailureView
	metrics   http.Handler
	logger    *zap.Logger
	started   time.Time
	running   atomic.Bool
	mux       *http.ServeMux
}

// Options contains configuration for creating a Server.
type Options struct {
	Addr      string
	Mode      string // "dry-run" or "alert-only"
	Stats     *observability.Stats
	Registry  RegistryView
	Positions PositionView // Optional
	Failures  FailureView  // Optional
	Metrics   http.Handler // Optional, served at /metrics
	Logger    *zap.Logger
}

// NewServer creates a status server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := opts.Stats
	if stats == nil {
		stats = observability.NewStats(nil)
	}

	s := &Server{
		addr:      opts.Addr,
		mode:      opts.Mode,
		stats:     stats,
		registry:  opts.Registry,
		positions: opts.Positions,
		failures:  opts.Failures,
		metrics:   opts.Metrics,
		logger:    logger,
		started:   time.Now(),
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /ping", s.handlePing)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	return s
}

// SetRunning marks whether the bot pipeline is active.
func (s *Server) SetRunning(running bool) {
	s.running.Store(running)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) uptimeSeconds() int64 {
	return int64(time.Since(s.started).Seconds())
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"service": serviceName,
		"status":  "healthy",
		"mode":    s.mode,
		"endpoints": map[string]string{
			"health":  "/health",
			"status":  "/status",
			"stats":   "/stats",
			"ping":    "/ping",
			"metrics": "/metrics",
		},
	})
}

// handleHealth always answers 200 so platform health checks never
// restart a bot that is still starting up.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{
		Status:        "healthy",
		Server:        "online",
		BotRunning:    s.running.Load(),
		UptimeSeconds: s.uptimeSeconds(),
		Mode:          s.mode,
		Timestamp:     time.Now().UTC(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.stats.Snapshot()

	resp := StatusResponse{
		Server: ServerSection{
			Status:        "online",
			StartedAt:     s.started.UTC(),
			UptimeSeconds: s.uptimeSeconds(),
		},
		Bot: BotSection{
			Running: s.running.Load(),
			Mode:    s.mode,
		},
		Activity: ActivitySection{
			Detected:       snap.Detected,
			Monitored:      snap.Monitored,
			Alerts:         snap.Alerts,
			Filtered:       snap.Filtered,
			Rejected:       snap.Rejected,
			Invalid:        snap.Invalid,
			ActiveMonitors: s.activeMonitors(),
			OpenPositions:  s.openPositions(),
		},
		Performance: PerformanceSection{
			Trades:  snap.DryRunTrades,
			Wins:    snap.DryRunWins,
			Losses:  snap.DryRunLosses,
			WinRate: snap.WinRate,
		},
	}

	if s.registry != nil {
		for _, a := range s.registry.Snapshots() {
			resp.Assets = append(resp.Assets, AssetStatus{
				Mint:           a.Mint,
				Symbol:         a.Symbol,
				Price:          a.CurrentPrice,
				GainPercent:    a.GainPercent(),
				DrawdownPct:    a.DrawdownPercent(),
				ElapsedMinutes: a.ElapsedMinutes(),
				Checks:         a.ChecksCount,
				Position:       a.HasPosition(),
			})
		}
	}

	writeJSON(w, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := StatsResponse{
		StatsSnapshot:  s.stats.Snapshot(),
		ActiveMonitors: s.activeMonitors(),
		OpenPositions:  s.openPositions(),
	}
	if s.failures != nil {
		resp.TaskFailures = s.failures.Total()
	}
	writeJSON(w, resp)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"ping":      "pong",
		"timestamp": time.Now().UTC(),
		"uptime":    s.uptimeSeconds(),
	})
}

func (s *Server) activeMonitors() int {
	if s.registry == nil {
		return 0
	}
	return s.registry.Size()
}

func (s *Server) openPositions() int {
	if s.positions == nil {
		return 0
	}
	return s.positions.Open()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
