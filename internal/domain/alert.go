package domain

import "time"

// Alert is a fired momentum rule with the metrics that triggered it.
type Alert struct {
	RuleName         string
	GainPercent      float64
	TimeElapsed      time.Duration
	PriceAtAlert     float64
	MarketCapAtAlert float64
	Slope            float64 // gain percent per minute
}

// RuleNames returns the rule names of the given alerts in order.
func RuleNames(alerts []Alert) []string {
	names := make([]string, 0, len(alerts))
	for _, a := range alerts {
		names = append(names, a.RuleName)
	}
	return names
}
