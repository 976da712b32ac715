package domain

import "time"

// UnknownLabel is used for missing symbol/name fields.
const UnknownLabel = "UNKNOWN"

// AssetRecord is the mutable monitoring state of one token mint.
//
// A record is written only by the monitoring task that owns it. Readers
// outside that task must work from a Snapshot.
type AssetRecord struct {
	Mint         string
	Symbol       string
	Name         string
	BondingCurve string

	InitialPrice     float64
	CurrentPrice     float64
	MaxPrice         float64
	InitialMarketCap float64
	CurrentMarketCap float64
	CurrentLiquidity float64

	StartTime   time.Time
	LastChecked time.Time
	ChecksCount int64

	// Dry-run position. Zero values when no position is open.
	EntryPrice       float64
	TokensHeld       float64
	EntryTime        time.Time
	EntrySizeSOL     float64
	EntryMarketCap   float64
	EntryLiquidity   float64
	EntryRules       []string
	EntrySlipFactor  float64
	EntryPartialFill float64
}

// NewAssetRecord builds a record for a freshly detected mint.
// Empty symbol and name default to UnknownLabel.
func NewAssetRecord(mint, symbol, name string, initialPrice, initialMarketCap float64, start time.Time) *AssetRecord {
	if symbol == "" {
		symbol = UnknownLabel
	}
	if name == "" {
		name = UnknownLabel
	}
	r := &AssetRecord{
		Mint:             mint,
		Symbol:           symbol,
		Name:             name,
		InitialPrice:     initialPrice,
		CurrentPrice:     initialPrice,
		MaxPrice:         initialPrice,
		InitialMarketCap: initialMarketCap,
		CurrentMarketCap: initialMarketCap,
		StartTime:        start,
	}
	return r
}

// Observe applies a successful price observation.
// maxPrice is raised when exceeded and the initial fields are set lazily,
// once, when they were unknown at creation.
func (r *AssetRecord) Observe(q PriceQuote, at time.Time) {
	r.CurrentPrice = q.Price
	r.CurrentMarketCap = q.MarketCap
	r.CurrentLiquidity = q.Liquidity
	r.LastChecked = at
	r.ChecksCount++

	if q.Price > r.MaxPrice {
		r.MaxPrice = q.Price
	}
	if r.InitialPrice == 0 && q.Price > 0 {
		r.InitialPrice = q.Price
	}
	if r.InitialMarketCap == 0 && q.MarketCap > 0 {
		r.InitialMarketCap = q.MarketCap
	}
}

// HasPosition reports whether a dry-run position is open.
func (r *AssetRecord) HasPosition() bool {
	return r.TokensHeld > 0
}

// OpenPosition records a successful simulated buy.
func (r *AssetRecord) OpenPosition(fill BuyFill, sizeSOL float64, rules []string, at time.Time) {
	r.EntryPrice = fill.ExecPrice
	r.TokensHeld = fill.TokensBought
	r.EntryTime = at
	r.EntrySizeSOL = sizeSOL
	r.EntryMarketCap = r.CurrentMarketCap
	r.EntryLiquidity = r.CurrentLiquidity
	r.EntryRules = append([]string(nil), rules...)
	r.EntrySlipFactor = fill.SlipFactor
	r.EntryPartialFill = fill.PartialFill
}

// ClosePosition clears all position fields.
func (r *AssetRecord) ClosePosition() {
	r.EntryPrice = 0
	r.TokensHeld = 0
	r.EntryTime = time.Time{}
	r.EntrySizeSOL = 0
	r.EntryMarketCap = 0
	r.EntryLiquidity = 0
	r.EntryRules = nil
	r.EntrySlipFactor = 0
	r.EntryPartialFill = 0
}

// Snapshot copies the record at a point in time.
func (r *AssetRecord) Snapshot(at time.Time) Snapshot {
	return Snapshot{
		Mint:             r.Mint,
		Symbol:           r.Symbol,
		Name:             r.Name,
		InitialPrice:     r.InitialPrice,
		CurrentPrice:     r.CurrentPrice,
		MaxPrice:         r.MaxPrice,
		InitialMarketCap: r.InitialMarketCap,
		CurrentMarketCap: r.CurrentMarketCap,
		CurrentLiquidity: r.CurrentLiquidity,
		StartTime:        r.StartTime,
		LastChecked:      r.LastChecked,
		ChecksCount:      r.ChecksCount,
		EntryPrice:       r.EntryPrice,
		TokensHeld:       r.TokensHeld,
		EntryTime:        r.EntryTime,
		TakenAt:          at,
	}
}

// Snapshot is an immutable copy of an AssetRecord.
// Derived metrics are pure functions of the snapshot.
type Snapshot struct {
	Mint             string
	Symbol           string
	Name             string
	InitialPrice     float64
	CurrentPrice     float64
	MaxPrice         float64
	InitialMarketCap float64
	CurrentMarketCap float64
	CurrentLiquidity float64
	StartTime        time.Time
	LastChecked      time.Time
	ChecksCount      int64
	EntryPrice       float64
	TokensHeld       float64
	EntryTime        time.Time
	TakenAt          time.Time
}

// ElapsedMinutes returns minutes since the asset was detected.
func (s Snapshot) ElapsedMinutes() float64 {
	return ElapsedMinutes(s.StartTime, s.TakenAt)
}

// GainPercent returns gain from the initial price.
func (s Snapshot) GainPercent() float64 {
	return GainPercent(s.InitialPrice, s.CurrentPrice)
}

// DrawdownPercent returns the (non-positive) move from the running peak.
func (s Snapshot) DrawdownPercent() float64 {
	return DrawdownPercent(s.MaxPrice, s.CurrentPrice)
}

// HasPosition reports whether the snapshot carries an open position.
func (s Snapshot) HasPosition() bool {
	return s.TokensHeld > 0
}

// PositionGainPercent returns gain measured from the entry execution price.
func (s Snapshot) PositionGainPercent() float64 {
	return GainPercent(s.EntryPrice, s.CurrentPrice)
}

// HoldDuration returns time since the position was opened.
func (s Snapshot) HoldDuration() time.Duration {
	if s.EntryTime.IsZero() {
		return 0
	}
	return s.TakenAt.Sub(s.EntryTime)
}

// ElapsedMinutes returns fractional minutes between start and now.
func ElapsedMinutes(start, now time.Time) float64 {
	if start.IsZero() {
		return 0
	}
	return now.Sub(start).Minutes()
}

// GainPercent = (current-base)/base*100, or 0 when base is unset.
func GainPercent(base, current float64) float64 {
	if base <= 0 {
		return 0
	}
	return (current - base) / base * 100
}

// DrawdownPercent = (current-peak)/peak*100, or 0 when peak is unset.
func DrawdownPercent(peak, current float64) float64 {
	if peak <= 0 {
		return 0
	}
	return (current - peak) / peak * 100
}
