// Package oracle fetches token prices from DexScreener.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.dexscreener.com"
	DefaultTimeout = 5 * time.Second
	SourceName     = "dexscreener"
)

// DexScreenerClient implements a price oracle over the DexScreener token API.
type DexScreenerClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// ClientOption configures DexScreenerClient.
type ClientOption func(*DexScreenerClient)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *DexScreenerClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *DexScreenerClient) {
		c.client = client
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *DexScreenerClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *DexScreenerClient) {
		c.logger = l
	}
}

// WithMetrics records request latency.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *DexScreenerClient) {
		c.metrics = m
	}
}

// NewDexScreenerClient creates a new client.
func NewDexScreenerClient(opts ...ClientOption) *DexScreenerClient {
	c := &DexScreenerClient{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrice returns the quote from the most liquid pair for mint.
// Returns nil, nil when no usable price is available (rate limited, server
// error, no pairs, zero price). Malformed responses return an error.
func (c *DexScreenerClient) GetPrice(ctx context.Context, mint string) (q *domain.PriceQuote, err error) {
	start := time.Now()
	defer func() {
		if c.metrics == nil {
			return
		}
		result := "ok"
		switch {
		case err != nil:
			result = "error"
		case q == nil:
			result = "unavailable"
		}
		c.metrics.OracleLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	endpoint := c.baseURL + "/latest/dex/tokens/" + url.PathEscape(mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.logger.Debug("oracle unavailable", zap.String("mint", mint), zap.Int("status", resp.StatusCode))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var body tokensResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	best := bestPair(body.Pairs)
	if best == nil {
		return nil, nil
	}

	price, err := strconv.ParseFloat(best.PriceUSD, 64)
	if err != nil {
		return nil, fmt.Errorf("parse priceUsd %q: %w", best.PriceUSD, err)
	}
	if price <= 0 {
		return nil, nil
	}

	marketCap := best.MarketCap
	if marketCap == 0 {
		marketCap = best.FDV
	}
	var liquidity float64
	if best.Liquidity != nil {
		liquidity = best.Liquidity.USD
	}

	return &domain.PriceQuote{
		Price:     price,
		MarketCap: marketCap,
		Liquidity: liquidity,
		Source:    SourceName,
	}, nil
}

// bestPair picks the pair with the highest USD liquidity that carries a price.
func bestPair(pairs []pair) *pair {
	var best *pair
	bestLiq := -1.0
	for i := range pairs {
		p := &pairs[i]
		if p.PriceUSD == "" {
			continue
		}
		liq := 0.0
		if p.Liquidity != nil {
			liq = p.Liquidity.USD
		}
		if liq > bestLiq {
			best, bestLiq = p, liq
		}
	}
	return best
}

type tokensResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID     string     `json:"chainId"`
	DexID       string     `json:"dexId"`
	PairAddress string     `json:"pairAddress"`
	PriceUSD    string     `json:"priceUsd"`
	Liquidity   *liquidity `json:"liquidity"`
	FDV         float64    `json:"fdv"`
	MarketCap   float64    `json:"marketCap"`
}

type liquidity struct {
	USD float64 `json:"usd"`
}
