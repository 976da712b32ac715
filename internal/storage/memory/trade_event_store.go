package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// TradeEventStore is an in-memory implementation of storage.TradeEventStore.
type TradeEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeEvent // keyed by event_id
}

// NewTradeEventStore creates a new in-memory trade event store.
func NewTradeEventStore() *TradeEventStore {
	return &TradeEventStore{
		data: make(map[string]*domain.TradeEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *TradeEventStore) Insert(_ context.Context, e *domain.TradeEvent) error {
	if e == nil || e.EventID == "" || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[e.EventID] = copyEvent(e)
	return nil
}

// GetByMint retrieves all events for a mint, ordered by created_at ASC.
func (s *TradeEventStore) GetByMint(_ context.Context, mint string) ([]*domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeEvent
	for _, e := range s.data {
		if e.Mint == mint {
			result = append(result, copyEvent(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// ListRecent retrieves up to limit events, newest first.
func (s *TradeEventStore) ListRecent(_ context.Context, limit int) ([]*domain.TradeEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeEvent, 0, len(s.data))
	for _, e := range s.data {
		result = append(result, copyEvent(e))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Summary aggregates all SELL events.
func (s *TradeEventStore) Summary(_ context.Context) (*domain.TradeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := &domain.TradeSummary{}
	var total float64
	for _, e := range s.data {
		if e.Side != domain.SideSell || e.PnLPercent == nil {
			continue
		}
		pnl := *e.PnLPercent
		if sum.Sells == 0 || pnl > sum.BestPnL {
			sum.BestPnL = pnl
		}
		if sum.Sells == 0 || pnl < sum.WorstPnL {
			sum.WorstPnL = pnl
		}
		sum.Sells++
		total += pnl
		if domain.OutcomeClass(pnl) == domain.OutcomeClassWin {
			sum.Wins++
		} else {
			sum.Losses++
		}
	}
	if sum.Sells > 0 {
		sum.AvgPnLPercent = total / float64(sum.Sells)
	}
	return sum, nil
}

func copyEvent(e *domain.TradeEvent) *domain.TradeEvent {
	c := *e
	c.RuleNames = append([]string(nil), e.RuleNames...)
	if e.PnLPercent != nil {
		v := *e.PnLPercent
		c.PnLPercent = &v
	}
	if e.HoldSeconds != nil {
		v := *e.HoldSeconds
		c.HoldSeconds = &v
	}
	return &c
}

var _ storage.TradeEventStore = (*TradeEventStore)(nil)
