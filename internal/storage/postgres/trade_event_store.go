package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// TradeEventStore implements storage.TradeEventStore using PostgreSQL.
type TradeEventStore struct {
	pool *Pool
}

// NewTradeEventStore creates a new TradeEventStore.
func NewTradeEventStore(pool *Pool) *TradeEventStore {
	return &TradeEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeEventStore = (*TradeEventStore)(nil)

const tradeEventColumns = `
	event_id, mint, symbol, side, rule_names, signal_price, exec_price,
	tokens, size_sol, slip_factor, partial_fill, pnl_percent, hold_seconds,
	exit_reason, entry_market_cap, entry_liquidity, dry_run, created_at
`

// Insert adds a new event. Returns storage.ErrDuplicateKey if event_id exists.
func (s *TradeEventStore) Insert(ctx context.Context, e *domain.TradeEvent) error {
	if e == nil || e.EventID == "" || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	ruleNames := e.RuleNames
	if ruleNames == nil {
		ruleNames = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO trade_events (`+tradeEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		e.EventID, e.Mint, e.Symbol, e.Side, ruleNames, e.SignalPrice, e.ExecPrice,
		e.Tokens, e.SizeSOL, e.SlipFactor, e.PartialFill, e.PnLPercent, e.HoldSeconds,
		e.ExitReason, e.EntryMarketCap, e.EntryLiquidity, e.DryRun, e.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade event: %w", err)
	}
	return nil
}

// GetByMint retrieves all events for a mint, ordered by created_at ASC.
func (s *TradeEventStore) GetByMint(ctx context.Context, mint string) ([]*domain.TradeEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+tradeEventColumns+`
		FROM trade_events
		WHERE mint = $1
		ORDER BY created_at ASC, event_id ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("query trade events: %w", err)
	}
	defer rows.Close()

	return scanTradeEvents(rows)
}

// ListRecent retrieves up to limit events, newest first.
func (s *TradeEventStore) ListRecent(ctx context.Context, limit int) ([]*domain.TradeEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+tradeEventColumns+`
		FROM trade_events
		ORDER BY created_at DESC, event_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent trade events: %w", err)
	}
	defer rows.Close()

	return scanTradeEvents(rows)
}

// Summary aggregates all SELL events carrying a P&L.
func (s *TradeEventStore) Summary(ctx context.Context) (*domain.TradeSummary, error) {
	sum := &domain.TradeSummary{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE pnl_percent > 0),
			COUNT(*) FILTER (WHERE pnl_percent <= 0),
			COALESCE(AVG(pnl_percent), 0),
			COALESCE(MAX(pnl_percent), 0),
			COALESCE(MIN(pnl_percent), 0)
		FROM trade_events
		WHERE side = $1 AND pnl_percent IS NOT NULL
	`, domain.SideSell).Scan(
		&sum.Sells, &sum.Wins, &sum.Losses,
		&sum.AvgPnLPercent, &sum.BestPnL, &sum.WorstPnL,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize trade events: %w", err)
	}
	return sum, nil
}

func scanTradeEvents(rows pgx.Rows) ([]*domain.TradeEvent, error) {
	var result []*domain.TradeEvent
	for rows.Next() {
		e := &domain.TradeEvent{}
		err := rows.Scan(
			&e.EventID, &e.Mint, &e.Symbol, &e.Side, &e.RuleNames, &e.SignalPrice, &e.ExecPrice,
			&e.Tokens, &e.SizeSOL, &e.SlipFactor, &e.PartialFill, &e.PnLPercent, &e.HoldSeconds,
			&e.ExitReason, &e.EntryMarketCap, &e.EntryLiquidity, &e.DryRun, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade event: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade events: %w", err)
	}
	return result, nil
}
