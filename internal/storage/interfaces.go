package storage

import (
	"context"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// MintRegistry is the distributed seen/lock/param registry shared by all
// bot instances.
type MintRegistry interface {
	// SeenMint records the mint and returns true only the first time it is observed.
	SeenMint(ctx context.Context, mint string) (bool, error)

	// LockMonitor acquires the per-mint monitor lock for this instance.
	// Returns false if the lock is held by anyone (including this instance) and not expired.
	LockMonitor(ctx context.Context, mint string) (bool, error)

	// ReleaseMonitor releases the lock held by this instance. No-op if not held.
	ReleaseMonitor(ctx context.Context, mint string) error

	// GetParam returns the parameter value, or def if unset.
	GetParam(ctx context.Context, key, def string) (string, error)

	// SetParam creates or replaces a parameter.
	SetParam(ctx context.Context, key, value string) error
}

// LockAdmin provides operator access to monitor locks and params.
type LockAdmin interface {
	// ForceRelease deletes the lock regardless of owner. Returns ErrNotFound if no lock exists.
	ForceRelease(ctx context.Context, mint string) error

	// ListParams returns all parameters keyed by name.
	ListParams(ctx context.Context) (map[string]string, error)
}

// TradeEventStore provides access to trade_events storage.
type TradeEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.TradeEvent) error

	// GetByMint retrieves all events for a mint, ordered by created_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TradeEvent, error)

	// ListRecent retrieves up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.TradeEvent, error)

	// Summary aggregates all SELL events.
	Summary(ctx context.Context) (*domain.TradeSummary, error)
}

// PriceTickStore provides access to price_ticks storage.
type PriceTickStore interface {
	// InsertBulk adds multiple ticks. Empty input is a no-op.
	InsertBulk(ctx context.Context, ticks []*domain.PriceTick) error

	// GetByMint retrieves all ticks for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.PriceTick, error)
}
