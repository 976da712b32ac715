package rules

import (
	"errors"
	"fmt"

	"github.com/Jovzzqez008/sol-bot/internal/config"
)

// Factory errors
var (
	ErrUnknownRule        = errors.New("unknown rule")
	ErrInvalidGain        = errors.New("rule gain threshold must be positive")
	ErrMissingWindow      = errors.New("FAST_PUMP requires a positive window")
	ErrInvalidMaxDrawdown = errors.New("STEADY_CLIMB max drawdown must be negative")
	ErrNoRules            = errors.New("no rules enabled")
)

// AllRuleNames lists every rule in evaluation order.
var AllRuleNames = []string{RuleFastPump, RuleMomentum, RuleSteadyClimb}

// FromConfig creates the enabled rules in evaluation order.
// An empty cfg.Enabled enables every rule.
func FromConfig(cfg config.RulesConfig) ([]Rule, error) {
	names := cfg.Enabled
	if len(names) == 0 {
		names = AllRuleNames
	}

	out := make([]Rule, 0, len(names))
	for _, name := range names {
		r, err := fromName(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, ErrNoRules
	}
	return out, nil
}

func fromName(name string, cfg config.RulesConfig) (Rule, error) {
	switch name {
	case RuleFastPump:
		if cfg.FastPumpGainPercent <= 0 {
			return nil, ErrInvalidGain
		}
		if cfg.FastPumpWindow <= 0 {
			return nil, ErrMissingWindow
		}
		return NewFastPumpRule(cfg.FastPumpGainPercent, cfg.FastPumpWindow), nil
	case RuleMomentum:
		if cfg.MomentumGainPercent <= 0 {
			return nil, ErrInvalidGain
		}
		return NewMomentumRule(cfg.MomentumGainPercent), nil
	case RuleSteadyClimb:
		if cfg.SteadyGainPercent <= 0 {
			return nil, ErrInvalidGain
		}
		if cfg.SteadyMaxDrawdown >= 0 {
			return nil, ErrInvalidMaxDrawdown
		}
		return NewSteadyClimbRule(cfg.SteadyGainPercent, cfg.SteadyMinAge, cfg.SteadyMaxDrawdown), nil
	default:
		return nil, ErrUnknownRule
	}
}
