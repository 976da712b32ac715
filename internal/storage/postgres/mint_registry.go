package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// DefaultLockTTL is used when a registry is built with a non-positive ttl.
const DefaultLockTTL = 40 * time.Minute

// MintRegistry implements storage.MintRegistry and storage.LockAdmin on
// the seen_mints, monitor_locks and bot_params tables.
type MintRegistry struct {
	pool  *Pool
	owner string
	ttl   time.Duration
}

// NewMintRegistry creates a registry whose locks are held by owner and
// expire after ttl unless released.
func NewMintRegistry(pool *Pool, owner string, ttl time.Duration) *MintRegistry {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &MintRegistry{pool: pool, owner: owner, ttl: ttl}
}

// Compile-time interface checks.
var (
	_ storage.MintRegistry = (*MintRegistry)(nil)
	_ storage.LockAdmin    = (*MintRegistry)(nil)
)

// SeenMint returns true iff this call inserted the mint.
func (r *MintRegistry) SeenMint(ctx context.Context, mint string) (bool, error) {
	if mint == "" {
		return false, storage.ErrInvalidInput
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO seen_mints (mint) VALUES ($1)
		ON CONFLICT (mint) DO NOTHING
	`, mint)
	if err != nil {
		return false, fmt.Errorf("insert seen mint: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// LockMonitor takes the lock when no row exists or the existing row expired.
func (r *MintRegistry) LockMonitor(ctx context.Context, mint string) (bool, error) {
	if mint == "" {
		return false, storage.ErrInvalidInput
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO monitor_locks (mint, owner, acquired_at, expires_at)
		VALUES ($1, $2, now(), now() + make_interval(secs => $3))
		ON CONFLICT (mint) DO UPDATE
		SET owner = EXCLUDED.owner,
		    acquired_at = EXCLUDED.acquired_at,
		    expires_at = EXCLUDED.expires_at
		WHERE monitor_locks.expires_at < now()
	`, mint, r.owner, r.ttl.Seconds())
	if err != nil {
		return false, fmt.Errorf("lock monitor: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseMonitor deletes the lock if this owner holds it.
func (r *MintRegistry) ReleaseMonitor(ctx context.Context, mint string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM monitor_locks WHERE mint = $1 AND owner = $2
	`, mint, r.owner)
	if err != nil {
		return fmt.Errorf("release monitor: %w", err)
	}
	return nil
}

// ForceRelease deletes the lock regardless of owner.
func (r *MintRegistry) ForceRelease(ctx context.Context, mint string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM monitor_locks WHERE mint = $1`, mint)
	if err != nil {
		return fmt.Errorf("force release: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetParam returns the stored value or def.
func (r *MintRegistry) GetParam(ctx context.Context, key, def string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM bot_params WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if isNotFoundError(err) {
			return def, nil
		}
		return def, fmt.Errorf("get param %s: %w", key, err)
	}
	return value, nil
}

// SetParam upserts a parameter.
func (r *MintRegistry) SetParam(ctx context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO bot_params (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set param %s: %w", key, err)
	}
	return nil
}

// ListParams returns all parameters.
func (r *MintRegistry) ListParams(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM bot_params ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate params: %w", err)
	}
	return out, nil
}
