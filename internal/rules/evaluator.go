package rules

import (
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// Evaluator runs a fixed rule set against snapshots. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator over rules, evaluated in order.
func NewEvaluator(rules ...Rule) *Evaluator {
	return &Evaluator{rules: rules}
}

// Rules returns the configured rules.
func (e *Evaluator) Rules() []Rule {
	return e.rules
}

// Evaluate returns one alert per fired rule. Nothing fires until both the
// initial and current prices are known.
func (e *Evaluator) Evaluate(s domain.Snapshot) []domain.Alert {
	if s.InitialPrice <= 0 || s.CurrentPrice <= 0 {
		return nil
	}

	var alerts []domain.Alert
	for _, r := range e.rules {
		if !r.Check(s) {
			continue
		}
		alerts = append(alerts, newAlert(r.Name(), s))
	}
	return alerts
}

func newAlert(rule string, s domain.Snapshot) domain.Alert {
	gain := s.GainPercent()
	minutes := s.ElapsedMinutes()

	var slope float64
	if minutes > 0 {
		slope = gain / minutes
	}

	return domain.Alert{
		RuleName:         rule,
		GainPercent:      gain,
		TimeElapsed:      time.Duration(minutes * float64(time.Minute)),
		PriceAtAlert:     s.CurrentPrice,
		MarketCapAtAlert: s.CurrentMarketCap,
		Slope:            slope,
	}
}
