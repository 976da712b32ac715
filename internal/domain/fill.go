package domain

// BuyRequest asks the simulator for a dry-run entry.
type BuyRequest struct {
	Mint         string
	Price        float64
	SizeSOL      float64
	SlippageBps  int
	LiquidityUSD float64 // 0 when unknown
}

// BuyFill is a successful simulated entry.
type BuyFill struct {
	ExecPrice    float64
	TokensBought float64
	SlipFactor   float64 // exec/signal price ratio, e.g. 1.02
	PartialFill  float64 // filled fraction in (0, 1]
	FeeSOL       float64
}

// SellRequest asks the simulator for a dry-run exit.
type SellRequest struct {
	Mint         string
	EntryPrice   float64
	ExitPrice    float64
	Tokens       float64
	SlippageBps  int
	LiquidityUSD float64
}

// SellFill is a successful simulated exit.
type SellFill struct {
	ExecPrice   float64
	TokensSold  float64
	SlipFactor  float64 // exec/signal price ratio, e.g. 0.98
	PartialFill float64
	PnLPercent  float64
	FeeSOL      float64
}
