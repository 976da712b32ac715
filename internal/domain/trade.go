package domain

import "time"

// TradeEvent is a persisted dry-run buy or sell.
// Corresponds to the trade_events table.
type TradeEvent struct {
	EventID string // deterministic hash
	Mint    string
	Symbol  string
	Side    string // "BUY" | "SELL"

	RuleNames   []string
	SignalPrice float64 // oracle price that triggered the trade
	ExecPrice   float64 // after slippage
	Tokens      float64
	SizeSOL     float64
	SlipFactor  float64
	PartialFill float64

	// Sell only
	PnLPercent  *float64
	HoldSeconds *float64
	ExitReason  string

	EntryMarketCap float64
	EntryLiquidity float64
	DryRun         bool
	CreatedAt      time.Time
}

// Trade sides
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Position exit reason codes
const (
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonMaxHold    = "MAX_HOLD"
)

// TerminalReason is why a monitoring task stopped.
type TerminalReason string

// Terminal transitions of the per-asset state machine.
const (
	TerminalTimedOut TerminalReason = "TIMED_OUT"
	TerminalDumped   TerminalReason = "DUMPED"
	TerminalClosed   TerminalReason = "CLOSED"
	TerminalErrored  TerminalReason = "ERRORED"
	TerminalShutdown TerminalReason = "SHUTDOWN"
)

// Outcome class constants
const (
	OutcomeClassWin  = "WIN"
	OutcomeClassLoss = "LOSS"
)

// OutcomeClass classifies a realized P&L percentage.
func OutcomeClass(pnlPercent float64) string {
	if pnlPercent > 0 {
		return OutcomeClassWin
	}
	return OutcomeClassLoss
}

// TradeSummary aggregates closed dry-run trades.
type TradeSummary struct {
	Sells         int64
	Wins          int64
	Losses        int64
	AvgPnLPercent float64
	BestPnL       float64
	WorstPnL      float64
}

// WinRate returns wins/sells, or 0 with no sells.
func (s TradeSummary) WinRate() float64 {
	if s.Sells == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Sells)
}
