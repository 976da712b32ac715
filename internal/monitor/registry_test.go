package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/storage/memory"
)

func TestRegistry_RegisterLookupRemove(t *testing.T) {
	r := NewRegistry()
	rec := domain.NewAssetRecord("m1", "A", "A", 1, 1000, time.Now())

	require.NoError(t, r.Register(rec))
	assert.ErrorIs(t, r.Register(domain.NewAssetRecord("m1", "B", "B", 0, 0, time.Now())), ErrAlreadyRegistered)
	assert.Equal(t, 1, r.Size())

	got, ok := r.Lookup("m1")
	require.True(t, ok)
	assert.Same(t, rec, got)

	removed, ok := r.Remove("m1")
	require.True(t, ok)
	assert.Same(t, rec, removed)

	_, ok = r.Remove("m1")
	assert.False(t, ok, "removing an absent mint is a no-op")
	_, ok = r.Lookup("m1")
	assert.False(t, ok)
	assert.Zero(t, r.Size())
}

func TestRegistry_MarkAlertedFirstWins(t *testing.T) {
	r := NewRegistry()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.MarkAlerted("m1") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, r.IsAlerted("m1"))
}

func TestRegistry_PublishAndSnapshots(t *testing.T) {
	r := NewRegistry()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	b := domain.NewAssetRecord("b", "B", "B", 1, 0, t0.Add(time.Minute))
	a := domain.NewAssetRecord("a", "A", "A", 1, 0, t0)
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(a))

	a.Observe(domain.PriceQuote{Price: 2}, t0.Add(2*time.Minute))
	r.Publish(a.Snapshot(t0.Add(2 * time.Minute)))
	r.Publish(domain.Snapshot{Mint: "ghost"})

	snaps := r.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "a", snaps[0].Mint)
	assert.Equal(t, 2.0, snaps[0].CurrentPrice)
	assert.Equal(t, "b", snaps[1].Mint)
}

func TestPositionLimiter(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "open"})
	l := NewPositionLimiter(2, gauge)

	assert.True(t, l.TryAcquire())
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge))

	l.Release()
	assert.True(t, l.TryAcquire())

	l.Release()
	l.Release()
	l.Release()
	assert.Zero(t, l.Open(), "release never goes negative")

	unbounded := NewPositionLimiter(0, nil)
	for i := 0; i < 100; i++ {
		require.True(t, unbounded.TryAcquire())
	}
}

func TestParams(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMintRegistry("owner", time.Hour)
	p := NewParams(store)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	silenced, err := p.SilencedAt(ctx, now)
	require.NoError(t, err)
	assert.False(t, silenced)

	require.NoError(t, store.SetParam(ctx, ParamAlertSilenceUntil, now.Add(time.Hour).Format(time.RFC3339)))
	silenced, err = p.SilencedAt(ctx, now)
	require.NoError(t, err)
	assert.True(t, silenced)

	silenced, err = p.SilencedAt(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, silenced)

	require.NoError(t, store.SetParam(ctx, ParamAlertSilenceUntil, "tomorrow"))
	_, err = p.SilencedAt(ctx, now)
	assert.Error(t, err)

	paused, err := p.DryRunPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, store.SetParam(ctx, ParamDryRunPaused, "true"))
	paused, err = p.DryRunPaused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)
}

func TestFailureCollector_KeepsRecent(t *testing.T) {
	c := NewFailureCollector(nil)
	for i := 0; i < maxRecentFailures+10; i++ {
		c.Report(TaskFailure{Mint: "m", Err: "boom"})
	}
	assert.Equal(t, int64(maxRecentFailures+10), c.Total())
	assert.Len(t, c.Recent(), maxRecentFailures)
}
