// Package simulation produces dry-run buy and sell fills.
package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// Simulator errors
var (
	ErrInvalidRequest = errors.New("invalid simulation request")
	ErrFillTooSmall   = errors.New("fill ratio below minimum")
)

// DefaultMinFillRatio is the smallest partial fill accepted.
const DefaultMinFillRatio = 0.25

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Simulator applies a scenario's execution costs to signal prices.
// Slippage is the scenario base plus a size impact against pool
// liquidity; when it exceeds the request's slippage budget the fill is
// reduced proportionally and the slippage is capped at the budget.
type Simulator struct {
	scenario     domain.ScenarioConfig
	solPriceUSD  decimal.Decimal
	minFillRatio decimal.Decimal
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithMinFillRatio sets the smallest accepted partial fill.
func WithMinFillRatio(r float64) Option {
	return func(s *Simulator) {
		s.minFillRatio = decimal.NewFromFloat(r)
	}
}

// NewSimulator creates a simulator for scenario with the given SOL/USD
// price used to size trades against liquidity.
func NewSimulator(scenario domain.ScenarioConfig, solPriceUSD float64, opts ...Option) *Simulator {
	s := &Simulator{
		scenario:     scenario,
		solPriceUSD:  decimal.NewFromFloat(solPriceUSD),
		minFillRatio: decimal.NewFromFloat(DefaultMinFillRatio),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scenario returns the configured execution scenario.
func (s *Simulator) Scenario() domain.ScenarioConfig {
	return s.scenario
}

// SimulateBuy computes an entry fill.
//
//	exec   = price * (1 + (slip + mev) / 100)
//	tokens = sizeSOL * solPrice * fill / exec
func (s *Simulator) SimulateBuy(ctx context.Context, req domain.BuyRequest) (*domain.BuyFill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Price <= 0 || req.SizeSOL <= 0 || req.SlippageBps <= 0 {
		return nil, fmt.Errorf("%w: price=%v size=%v slippage_bps=%d", ErrInvalidRequest, req.Price, req.SizeSOL, req.SlippageBps)
	}

	size := decimal.NewFromFloat(req.SizeSOL)
	slip, fill, err := s.execution(size, req.LiquidityUSD, req.SlippageBps)
	if err != nil {
		return nil, err
	}

	adverse := slip.Add(decimal.NewFromFloat(s.scenario.MEVPenaltyPct))
	factor := one.Add(adverse.Div(hundred))
	exec := decimal.NewFromFloat(req.Price).Mul(factor)
	tokens := size.Mul(s.solPriceUSD).Mul(fill).Div(exec)

	return &domain.BuyFill{
		ExecPrice:    exec.InexactFloat64(),
		TokensBought: tokens.InexactFloat64(),
		SlipFactor:   factor.InexactFloat64(),
		PartialFill:  fill.InexactFloat64(),
		FeeSOL:       s.feeSOL(),
	}, nil
}

// SimulateSell computes an exit fill. The position is always closed; a
// partial fill only reduces TokensSold.
//
//	exec = exitPrice * (1 - slip / 100)
//	pnl  = (exec - entry) / entry * 100
func (s *Simulator) SimulateSell(ctx context.Context, req domain.SellRequest) (*domain.SellFill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.EntryPrice <= 0 || req.ExitPrice <= 0 || req.Tokens <= 0 || req.SlippageBps <= 0 {
		return nil, fmt.Errorf("%w: entry=%v exit=%v tokens=%v slippage_bps=%d", ErrInvalidRequest, req.EntryPrice, req.ExitPrice, req.Tokens, req.SlippageBps)
	}

	entry := decimal.NewFromFloat(req.EntryPrice)
	exit := decimal.NewFromFloat(req.ExitPrice)
	tokens := decimal.NewFromFloat(req.Tokens)

	// Position value in SOL drives the size impact on the way out.
	var sizeSOL decimal.Decimal
	if s.solPriceUSD.IsPositive() {
		sizeSOL = tokens.Mul(exit).Div(s.solPriceUSD)
	}

	slip, fill, err := s.execution(sizeSOL, req.LiquidityUSD, req.SlippageBps)
	if err != nil {
		return nil, err
	}

	factor := one.Sub(slip.Div(hundred))
	exec := exit.Mul(factor)
	pnl := exec.Sub(entry).Div(entry).Mul(hundred)

	return &domain.SellFill{
		ExecPrice:   exec.InexactFloat64(),
		TokensSold:  tokens.Mul(fill).InexactFloat64(),
		SlipFactor:  factor.InexactFloat64(),
		PartialFill: fill.InexactFloat64(),
		PnLPercent:  pnl.InexactFloat64(),
		FeeSOL:      s.feeSOL(),
	}, nil
}

// execution returns the applied slippage percent and the filled fraction.
func (s *Simulator) execution(sizeSOL decimal.Decimal, liquidityUSD float64, slippageBps int) (slip, fill decimal.Decimal, err error) {
	slip = decimal.NewFromFloat(s.scenario.SlippagePct)
	if liquidityUSD > 0 {
		sizeUSD := sizeSOL.Mul(s.solPriceUSD)
		impact := sizeUSD.Div(decimal.NewFromFloat(liquidityUSD)).Mul(hundred)
		slip = slip.Add(impact)
	}

	fill = one
	budget := decimal.NewFromInt(int64(slippageBps)).Div(hundred)
	if slip.GreaterThan(budget) {
		fill = budget.Div(slip)
		slip = budget
	}
	if fill.LessThan(s.minFillRatio) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s < %s", ErrFillTooSmall, fill.StringFixed(4), s.minFillRatio.String())
	}
	return slip, fill, nil
}

func (s *Simulator) feeSOL() float64 {
	return decimal.NewFromFloat(s.scenario.FeeSOL).
		Add(decimal.NewFromFloat(s.scenario.PriorityFeeSOL)).
		InexactFloat64()
}
