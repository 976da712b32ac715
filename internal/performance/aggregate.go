// Package performance aggregates closed dry-run trades into outcome
// statistics, overall and per exit reason or entry rule.
package performance

import (
	"math"
	"sort"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// KeyAll labels the aggregate over every closed trade.
const KeyAll = "ALL"

// Aggregate summarizes realized P&L percentages of closed trades.
type Aggregate struct {
	Key string

	Trades  int
	Tokens  int
	Wins    int
	Losses  int
	WinRate float64

	Mean   float64
	Median float64
	P10    float64
	P90    float64
	Min    float64
	Max    float64
	Stddev float64

	// Order-dependent, over trades sorted by close time.
	MaxDrawdown          float64
	MaxConsecutiveLosses int

	AvgHoldSeconds float64
}

// Closed returns SELL events with a realized P&L, oldest first.
func Closed(events []*domain.TradeEvent) []*domain.TradeEvent {
	var out []*domain.TradeEvent
	for _, e := range events {
		if e.Side == domain.SideSell && e.PnLPercent != nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].EventID < out[j].EventID
	})
	return out
}

// Compute aggregates closed trades. Non-SELL events are ignored.
func Compute(key string, events []*domain.TradeEvent) Aggregate {
	sells := Closed(events)
	agg := Aggregate{Key: key}
	n := len(sells)
	if n == 0 {
		return agg
	}

	outcomes := make([]float64, n)
	mints := make(map[string]struct{}, n)
	var holdTotal float64
	for i, e := range sells {
		outcomes[i] = *e.PnLPercent
		mints[e.Mint] = struct{}{}
		if domain.OutcomeClass(outcomes[i]) == domain.OutcomeClassWin {
			agg.Wins++
		} else {
			agg.Losses++
		}
		if e.HoldSeconds != nil {
			holdTotal += *e.HoldSeconds
		}
	}

	sorted := make([]float64, n)
	copy(sorted, outcomes)
	sort.Float64s(sorted)

	agg.Trades = n
	agg.Tokens = len(mints)
	agg.WinRate = float64(agg.Wins) / float64(n)
	agg.Mean = mean(outcomes)
	agg.Median = percentile(sorted, 0.50)
	agg.P10 = percentile(sorted, 0.10)
	agg.P90 = percentile(sorted, 0.90)
	agg.Min = sorted[0]
	agg.Max = sorted[n-1]
	agg.Stddev = stddev(outcomes, agg.Mean)
	agg.MaxDrawdown = maxDrawdown(outcomes)
	agg.MaxConsecutiveLosses = maxConsecutiveLosses(outcomes)
	agg.AvgHoldSeconds = holdTotal / float64(n)
	return agg
}

// ByExitReason groups closed trades by exit reason, sorted by key.
func ByExitReason(events []*domain.TradeEvent) []Aggregate {
	return group(events, func(e *domain.TradeEvent) []string {
		return []string{e.ExitReason}
	})
}

// ByRule groups closed trades by entry rule. A trade entered on several
// rules counts toward each of them.
func ByRule(events []*domain.TradeEvent) []Aggregate {
	return group(events, func(e *domain.TradeEvent) []string {
		return e.RuleNames
	})
}

func group(events []*domain.TradeEvent, keys func(*domain.TradeEvent) []string) []Aggregate {
	buckets := make(map[string][]*domain.TradeEvent)
	for _, e := range Closed(events) {
		for _, k := range keys(e) {
			if k == "" {
				continue
			}
			buckets[k] = append(buckets[k], e)
		}
	}

	names := make([]string, 0, len(buckets))
	for k := range buckets {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Aggregate, 0, len(names))
	for _, k := range names {
		out = append(out, Compute(k, buckets[k]))
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(xs []float64, m float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// percentile interpolates linearly. sorted must be ascending.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// maxDrawdown is the worst peak-to-trough drop of cumulative P&L percent.
func maxDrawdown(outcomes []float64) float64 {
	cumulative, peak, worst := 0.0, 0.0, 0.0
	for _, o := range outcomes {
		cumulative += o
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > worst {
			worst = dd
		}
	}
	return worst
}

// maxConsecutiveLosses is the longest run of outcomes <= 0.
func maxConsecutiveLosses(outcomes []float64) int {
	longest, current := 0, 0
	for _, o := range outcomes {
		if o <= 0 {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 0
	}
	return longest
}
