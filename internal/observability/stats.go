package observability

import (
	"sync/atomic"
	"time"
)

// Stats holds the bot's monotonically increasing counters. Each increment
// is mirrored into Metrics when one is attached. Counters are eventually
// consistent with the monitor registry and must not drive control flow.
type Stats struct {
	metrics *Metrics
	started time.Time

	detected  atomic.Int64
	monitored atomic.Int64
	alerts    atomic.Int64
	filtered  atomic.Int64
	rejected  atomic.Int64
	invalid   atomic.Int64

	dryRunBuys   atomic.Int64
	dryRunTrades atomic.Int64
	dryRunWins   atomic.Int64
	dryRunLosses atomic.Int64
}

// NewStats creates zeroed counters. m may be nil.
func NewStats(m *Metrics) *Stats {
	return &Stats{metrics: m, started: time.Now()}
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Detected     int64   `json:"detected"`
	Monitored    int64   `json:"monitored"`
	Alerts       int64   `json:"alerts"`
	Filtered     int64   `json:"filtered"`
	Rejected     int64   `json:"rejected"`
	Invalid      int64   `json:"invalid"`
	DryRunBuys   int64   `json:"dry_run_buys"`
	DryRunTrades int64   `json:"dry_run_trades"`
	DryRunWins   int64   `json:"dry_run_wins"`
	DryRunLosses int64   `json:"dry_run_losses"`
	WinRate      float64 `json:"win_rate"`
	UptimeSec    float64 `json:"uptime_seconds"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Detected:     s.detected.Load(),
		Monitored:    s.monitored.Load(),
		Alerts:       s.alerts.Load(),
		Filtered:     s.filtered.Load(),
		Rejected:     s.rejected.Load(),
		Invalid:      s.invalid.Load(),
		DryRunBuys:   s.dryRunBuys.Load(),
		DryRunTrades: s.dryRunTrades.Load(),
		DryRunWins:   s.dryRunWins.Load(),
		DryRunLosses: s.dryRunLosses.Load(),
		UptimeSec:    time.Since(s.started).Seconds(),
	}
	if snap.DryRunTrades > 0 {
		snap.WinRate = float64(snap.DryRunWins) / float64(snap.DryRunTrades)
	}
	return snap
}

// IncDetected counts a received notification.
func (s *Stats) IncDetected() {
	s.detected.Add(1)
	if s.metrics != nil {
		s.metrics.TokensDetected.Inc()
		s.metrics.LastEventReceivedTS.SetToCurrentTime()
	}
}

// IncMonitored counts a hand-off to the scheduler.
func (s *Stats) IncMonitored() {
	s.monitored.Add(1)
	if s.metrics != nil {
		s.metrics.TokensMonitored.Inc()
	}
}

// IncFiltered counts a token dropped by the named filter.
func (s *Stats) IncFiltered(filter string) {
	s.filtered.Add(1)
	if s.metrics != nil {
		s.metrics.TokensFiltered.WithLabelValues(filter).Inc()
	}
}

// IncRejected counts a token refused because the monitor cap was reached.
func (s *Stats) IncRejected() {
	s.rejected.Add(1)
	if s.metrics != nil {
		s.metrics.TokensRejected.Inc()
	}
}

// IncInvalid counts a notification with a malformed mint.
func (s *Stats) IncInvalid() {
	s.invalid.Add(1)
	if s.metrics != nil {
		s.metrics.TokensInvalid.Inc()
	}
}

// IncAlerts counts one fired alert.
func (s *Stats) IncAlerts(rule string) {
	s.alerts.Add(1)
	if s.metrics != nil {
		s.metrics.AlertsFired.WithLabelValues(rule).Inc()
	}
}

// IncDryRunBuy counts an opened simulated position.
func (s *Stats) IncDryRunBuy() {
	s.dryRunBuys.Add(1)
	if s.metrics != nil {
		s.metrics.DryRunTrades.WithLabelValues("BUY").Inc()
	}
}

// RecordDryRunClose counts a closed simulated position and its outcome.
func (s *Stats) RecordDryRunClose(win bool) {
	s.dryRunTrades.Add(1)
	outcome := "LOSS"
	if win {
		s.dryRunWins.Add(1)
		outcome = "WIN"
	} else {
		s.dryRunLosses.Add(1)
	}
	if s.metrics != nil {
		s.metrics.DryRunTrades.WithLabelValues("SELL").Inc()
		s.metrics.DryRunOutcome.WithLabelValues(outcome).Inc()
	}
}

// Metrics returns the attached metrics, or nil.
func (s *Stats) Metrics() *Metrics {
	return s.metrics
}
