package clickhouse

import (
	"context"
	"fmt"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// PriceTickStore implements storage.PriceTickStore using ClickHouse.
type PriceTickStore struct {
	conn *Conn
}

// NewPriceTickStore creates a new PriceTickStore.
func NewPriceTickStore(conn *Conn) *PriceTickStore {
	return &PriceTickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceTickStore = (*PriceTickStore)(nil)

// InsertBulk appends ticks in one batch. Ticks are observations, so
// repeated (mint, ts_ms) pairs are stored as-is.
func (s *PriceTickStore) InsertBulk(ctx context.Context, ticks []*domain.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	for _, t := range ticks {
		if t == nil || t.Mint == "" || t.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_ticks (
			mint, ts_ms, price, market_cap, liquidity, checks
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range ticks {
		err = batch.Append(
			t.Mint, uint64(t.TimestampMs), t.Price,
			t.MarketCap, t.Liquidity, uint64(t.Checks),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMint retrieves all ticks for a mint, ordered by timestamp ASC.
func (s *PriceTickStore) GetByMint(ctx context.Context, mint string) ([]*domain.PriceTick, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT mint, ts_ms, price, market_cap, liquidity, checks
		FROM price_ticks
		WHERE mint = ?
		ORDER BY ts_ms ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("query price ticks: %w", err)
	}
	defer rows.Close()

	var result []*domain.PriceTick
	for rows.Next() {
		var (
			t      domain.PriceTick
			tsMs   uint64
			checks uint64
		)
		if err := rows.Scan(&t.Mint, &tsMs, &t.Price, &t.MarketCap, &t.Liquidity, &checks); err != nil {
			return nil, fmt.Errorf("scan price tick: %w", err)
		}
		t.TimestampMs = int64(tsMs)
		t.Checks = int64(checks)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price ticks: %w", err)
	}

	return result, nil
}
