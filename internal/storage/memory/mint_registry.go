package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

type memLock struct {
	owner     string
	expiresAt time.Time
}

// MintRegistry is an in-memory implementation of storage.MintRegistry.
// It deduplicates only within one process; use the postgres registry to
// share the gate between instances.
type MintRegistry struct {
	owner string
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	seen   map[string]time.Time
	locks  map[string]memLock
	params map[string]string
}

// NewMintRegistry creates a registry whose locks belong to owner and expire after ttl.
// A zero ttl means locks never expire.
func NewMintRegistry(owner string, ttl time.Duration) *MintRegistry {
	return &MintRegistry{
		owner:  owner,
		ttl:    ttl,
		now:    time.Now,
		seen:   make(map[string]time.Time),
		locks:  make(map[string]memLock),
		params: make(map[string]string),
	}
}

// WithClock overrides the time source. Used by tests.
func (r *MintRegistry) WithClock(now func() time.Time) *MintRegistry {
	r.now = now
	return r
}

// SeenMint returns true the first time mint is observed.
func (r *MintRegistry) SeenMint(_ context.Context, mint string) (bool, error) {
	if mint == "" {
		return false, storage.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[mint]; ok {
		return false, nil
	}
	r.seen[mint] = r.now()
	return true, nil
}

// LockMonitor acquires the lock if absent or expired.
func (r *MintRegistry) LockMonitor(_ context.Context, mint string) (bool, error) {
	if mint == "" {
		return false, storage.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if l, ok := r.locks[mint]; ok {
		if l.expiresAt.IsZero() || now.Before(l.expiresAt) {
			return false, nil
		}
	}

	var expires time.Time
	if r.ttl > 0 {
		expires = now.Add(r.ttl)
	}
	r.locks[mint] = memLock{owner: r.owner, expiresAt: expires}
	return true, nil
}

// ReleaseMonitor releases the lock if this registry's owner holds it.
func (r *MintRegistry) ReleaseMonitor(_ context.Context, mint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.locks[mint]; ok && l.owner == r.owner {
		delete(r.locks, mint)
	}
	return nil
}

// ForceRelease deletes the lock regardless of owner.
func (r *MintRegistry) ForceRelease(_ context.Context, mint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locks[mint]; !ok {
		return storage.ErrNotFound
	}
	delete(r.locks, mint)
	return nil
}

// GetParam returns the parameter value or def.
func (r *MintRegistry) GetParam(_ context.Context, key, def string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.params[key]; ok {
		return v, nil
	}
	return def, nil
}

// SetParam creates or replaces a parameter.
func (r *MintRegistry) SetParam(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.params[key] = value
	return nil
}

// ListParams returns a copy of all parameters.
func (r *MintRegistry) ListParams(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out, nil
}

// IsLocked reports whether a live lock exists for mint.
func (r *MintRegistry) IsLocked(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[mint]
	if !ok {
		return false
	}
	return l.expiresAt.IsZero() || r.now().Before(l.expiresAt)
}

var (
	_ storage.MintRegistry = (*MintRegistry)(nil)
	_ storage.LockAdmin    = (*MintRegistry)(nil)
)
