// Package rules holds the momentum alert rules and their evaluator.
package rules

import (
	"fmt"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// Rule names
const (
	RuleFastPump    = "FAST_PUMP"
	RuleMomentum    = "MOMENTUM"
	RuleSteadyClimb = "STEADY_CLIMB"
)

// Rule is a predicate over an iteration snapshot.
type Rule interface {
	// Name returns the rule identifier recorded on alerts and trades.
	Name() string

	// Check reports whether the rule fires for the snapshot.
	Check(s domain.Snapshot) bool
}

// FastPumpRule fires on a large gain shortly after detection.
type FastPumpRule struct {
	MinGainPercent float64
	Window         time.Duration
}

// NewFastPumpRule creates a new FastPumpRule.
func NewFastPumpRule(minGainPercent float64, window time.Duration) *FastPumpRule {
	return &FastPumpRule{MinGainPercent: minGainPercent, Window: window}
}

// Name returns the rule identifier.
func (r *FastPumpRule) Name() string { return RuleFastPump }

// Check fires when gain >= MinGainPercent within Window of detection.
func (r *FastPumpRule) Check(s domain.Snapshot) bool {
	return s.GainPercent() >= r.MinGainPercent && s.ElapsedMinutes() <= r.Window.Minutes()
}

// MomentumRule fires on a large gain at any age.
type MomentumRule struct {
	MinGainPercent float64
}

// NewMomentumRule creates a new MomentumRule.
func NewMomentumRule(minGainPercent float64) *MomentumRule {
	return &MomentumRule{MinGainPercent: minGainPercent}
}

// Name returns the rule identifier.
func (r *MomentumRule) Name() string { return RuleMomentum }

// Check fires when gain >= MinGainPercent.
func (r *MomentumRule) Check(s domain.Snapshot) bool {
	return s.GainPercent() >= r.MinGainPercent
}

// SteadyClimbRule fires on a moderate gain held over time without a deep
// pullback from the peak.
type SteadyClimbRule struct {
	MinGainPercent     float64
	MinAge             time.Duration
	MaxDrawdownPercent float64 // negative, e.g. -10
}

// NewSteadyClimbRule creates a new SteadyClimbRule.
func NewSteadyClimbRule(minGainPercent float64, minAge time.Duration, maxDrawdownPercent float64) *SteadyClimbRule {
	return &SteadyClimbRule{
		MinGainPercent:     minGainPercent,
		MinAge:             minAge,
		MaxDrawdownPercent: maxDrawdownPercent,
	}
}

// Name returns the rule identifier.
func (r *SteadyClimbRule) Name() string { return RuleSteadyClimb }

// Check fires when gain >= MinGainPercent, age >= MinAge and the drawdown
// from peak is shallower than MaxDrawdownPercent.
func (r *SteadyClimbRule) Check(s domain.Snapshot) bool {
	return s.GainPercent() >= r.MinGainPercent &&
		s.ElapsedMinutes() >= r.MinAge.Minutes() &&
		s.DrawdownPercent() > r.MaxDrawdownPercent
}

// String implements fmt.Stringer for logging.
func (r *SteadyClimbRule) String() string {
	return fmt.Sprintf("%s(gain>=%.0f%%, age>=%s, dd>%.0f%%)", RuleSteadyClimb, r.MinGainPercent, r.MinAge, r.MaxDrawdownPercent)
}
