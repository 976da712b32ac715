package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// PriceTickStore is an in-memory implementation of storage.PriceTickStore.
type PriceTickStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PriceTick // keyed by mint
}

// NewPriceTickStore creates a new in-memory price tick store.
func NewPriceTickStore() *PriceTickStore {
	return &PriceTickStore{
		data: make(map[string][]*domain.PriceTick),
	}
}

// InsertBulk adds multiple ticks. Fails the whole batch on invalid input.
func (s *PriceTickStore) InsertBulk(_ context.Context, ticks []*domain.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	for _, t := range ticks {
		if t == nil || t.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range ticks {
		tickCopy := *t
		s.data[t.Mint] = append(s.data[t.Mint], &tickCopy)
	}
	return nil
}

// GetByMint retrieves all ticks for a mint, ordered by timestamp ASC.
func (s *PriceTickStore) GetByMint(_ context.Context, mint string) ([]*domain.PriceTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.data[mint]
	result := make([]*domain.PriceTick, 0, len(src))
	for _, t := range src {
		tickCopy := *t
		result = append(result, &tickCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

var _ storage.PriceTickStore = (*PriceTickStore)(nil)
