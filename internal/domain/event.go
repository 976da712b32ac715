package domain

// Pair is a market snapshot for a token on one trading venue.
type Pair struct {
	PairAddress string  `json:"pairAddress,omitempty"`
	DexID       string  `json:"dexId,omitempty"`
	PriceUSD    float64 `json:"priceUsd"`
	MarketCap   float64 `json:"marketCap"`
	Liquidity   float64 `json:"liquidity"`
}

// NewTokenEvent is a new-token notification from the event transport.
// Only Mint is required.
type NewTokenEvent struct {
	Mint         string  `json:"mint"`
	Symbol       string  `json:"symbol,omitempty"`
	Name         string  `json:"name,omitempty"`
	BondingCurve string  `json:"bondingCurveKey,omitempty"`
	MarketCapSOL float64 `json:"marketCapSol,omitempty"`
	Signature    string  `json:"signature,omitempty"`
	Pairs        []Pair  `json:"pairs,omitempty"`
	ReceivedAt   int64   `json:"-"` // unix ms, set by the transport
}

// InitialMarket derives initial price and market cap from the first pair.
// Returns zeros when no pair is present.
func (e NewTokenEvent) InitialMarket() (price, marketCap float64) {
	if len(e.Pairs) == 0 {
		return 0, 0
	}
	return e.Pairs[0].PriceUSD, e.Pairs[0].MarketCap
}
