package solana

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Pool spreads calls round-robin over several RPC endpoints and fails over
// to the next endpoint when one errors.
type Pool struct {
	clients []*HTTPClient
	next    atomic.Uint64
	logger  *zap.Logger
}

// NewPool builds a pool with one HTTPClient per URL.
func NewPool(urls []string, logger *zap.Logger, opts ...ClientOption) (*Pool, error) {
	if len(urls) == 0 {
		return nil, errors.New("rpc pool: no endpoints")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{logger: logger}
	for _, u := range urls {
		p.clients = append(p.clients, NewHTTPClient(u, opts...))
	}
	return p, nil
}

// Size returns the number of endpoints.
func (p *Pool) Size() int {
	return len(p.clients)
}

// GetAccountInfo tries each endpoint once, starting at the next in rotation.
func (p *Pool) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	start := p.next.Add(1) - 1
	var errs []error

	for i := 0; i < len(p.clients); i++ {
		c := p.clients[(start+uint64(i))%uint64(len(p.clients))]
		info, err := c.GetAccountInfo(ctx, pubkey)
		if err == nil {
			return info, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Debug("rpc endpoint failed", zap.String("endpoint", c.Endpoint()), zap.Error(err))
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("all %d rpc endpoints failed: %w", len(p.clients), errors.Join(errs...))
}

// CheckHealth asks every endpoint for its current slot and returns how many
// answered. Unhealthy endpoints are logged; the error is non-nil only when
// none answered.
func (p *Pool) CheckHealth(ctx context.Context) (int, error) {
	healthy := 0
	var errs []error

	for _, c := range p.clients {
		slot, err := c.GetSlot(ctx)
		if err != nil {
			p.logger.Warn("rpc endpoint unhealthy", zap.String("endpoint", c.Endpoint()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		p.logger.Debug("rpc endpoint healthy", zap.String("endpoint", c.Endpoint()), zap.Int64("slot", slot))
		healthy++
	}

	if healthy == 0 {
		return 0, fmt.Errorf("no healthy rpc endpoint: %w", errors.Join(errs...))
	}
	return healthy, nil
}

var (
	_ AccountReader = (*HTTPClient)(nil)
	_ AccountReader = (*Pool)(nil)
)
