package monitor

import (
	"errors"
	"sort"
	"sync"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// ErrAlreadyRegistered is returned when a mint is already being monitored.
var ErrAlreadyRegistered = errors.New("asset already registered")

// Registry maps mints to their live records and tracks which mints have
// alerted. All access goes through its methods.
//
// Records are owned by their monitoring task. Other goroutines read the
// snapshot each task publishes after every iteration.
type Registry struct {
	mu        sync.Mutex
	records   map[string]*domain.AssetRecord
	snapshots map[string]domain.Snapshot
	alerted   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records:   make(map[string]*domain.AssetRecord),
		snapshots: make(map[string]domain.Snapshot),
		alerted:   make(map[string]struct{}),
	}
}

// Register adds a record. Returns ErrAlreadyRegistered if the mint is present.
func (r *Registry) Register(rec *domain.AssetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.Mint]; ok {
		return ErrAlreadyRegistered
	}
	r.records[rec.Mint] = rec
	r.snapshots[rec.Mint] = rec.Snapshot(rec.StartTime)
	return nil
}

// Lookup returns the record for mint.
func (r *Registry) Lookup(mint string) (*domain.AssetRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[mint]
	return rec, ok
}

// Remove deletes mint and returns the removed record. No-op if absent.
// The alerted mark is cleared with it; the seen gate keeps the mint from
// being registered again.
func (r *Registry) Remove(mint string) (*domain.AssetRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[mint]
	if !ok {
		return nil, false
	}
	delete(r.records, mint)
	delete(r.snapshots, mint)
	delete(r.alerted, mint)
	return rec, true
}

// MarkAlerted marks mint as alerted. Returns true only for the first call.
func (r *Registry) MarkAlerted(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerted[mint]; ok {
		return false
	}
	r.alerted[mint] = struct{}{}
	return true
}

// IsAlerted reports whether mint has alerted.
func (r *Registry) IsAlerted(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.alerted[mint]
	return ok
}

// Size returns the number of monitored assets.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

// Publish stores the latest snapshot of a registered mint.
func (r *Registry) Publish(s domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[s.Mint]; ok {
		r.snapshots[s.Mint] = s
	}
}

// Snapshots returns the latest published snapshots, oldest asset first.
func (r *Registry) Snapshots() []domain.Snapshot {
	r.mu.Lock()
	out := make([]domain.Snapshot, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		out = append(out, s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].Mint < out[j].Mint
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
