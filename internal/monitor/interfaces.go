// Package monitor runs one supervised monitoring task per detected asset.
package monitor

import (
	"context"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// PriceOracle returns the latest quote for a mint.
// A nil quote with a nil error means no price is available yet.
type PriceOracle interface {
	GetPrice(ctx context.Context, mint string) (*domain.PriceQuote, error)
}

// RuleEvaluator returns the alerts fired by a snapshot.
type RuleEvaluator interface {
	Evaluate(s domain.Snapshot) []domain.Alert
}

// TradeSimulator produces dry-run fills.
type TradeSimulator interface {
	SimulateBuy(ctx context.Context, req domain.BuyRequest) (*domain.BuyFill, error)
	SimulateSell(ctx context.Context, req domain.SellRequest) (*domain.SellFill, error)
}

// Notifier delivers alerts and lifecycle messages.
type Notifier interface {
	Send(ctx context.Context, s domain.Snapshot, a domain.Alert) error
	SendText(ctx context.Context, text string) error
}

// TickSink accepts price observations for history. Enqueue must not block.
type TickSink interface {
	Enqueue(t domain.PriceTick) bool
}
