package domain

// PriceQuote is one observation from the price oracle.
type PriceQuote struct {
	Price     float64 // USD per token
	MarketCap float64 // USD
	Liquidity float64 // USD
	Source    string
}

// PriceTick is a persisted price observation for a monitored mint.
type PriceTick struct {
	Mint        string
	TimestampMs int64
	Price       float64
	MarketCap   float64
	Liquidity   float64
	Checks      int64
}
