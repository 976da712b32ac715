package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

func TestMintRegistry_SeenMint(t *testing.T) {
	r := NewMintRegistry("owner-a", time.Minute)
	ctx := context.Background()

	first, err := r.SeenMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("SeenMint failed: %v", err)
	}
	if !first {
		t.Error("expected first observation to return true")
	}

	again, err := r.SeenMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("SeenMint failed: %v", err)
	}
	if again {
		t.Error("expected second observation to return false")
	}

	if _, err := r.SeenMint(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty mint, got %v", err)
	}
}

func TestMintRegistry_LockRelease(t *testing.T) {
	r := NewMintRegistry("owner-a", time.Minute)
	ctx := context.Background()

	ok, err := r.LockMonitor(ctx, "mint1")
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}

	ok, err = r.LockMonitor(ctx, "mint1")
	if err != nil {
		t.Fatalf("second lock: %v", err)
	}
	if ok {
		t.Error("expected held lock to reject second acquire")
	}

	if err := r.ReleaseMonitor(ctx, "mint1"); err != nil {
		t.Fatalf("ReleaseMonitor failed: %v", err)
	}
	if r.IsLocked("mint1") {
		t.Error("expected lock to be released")
	}

	ok, _ = r.LockMonitor(ctx, "mint1")
	if !ok {
		t.Error("expected reacquire after release")
	}
}

func TestMintRegistry_LockExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewMintRegistry("owner-a", time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if ok, _ := r.LockMonitor(ctx, "mint1"); !ok {
		t.Fatal("expected lock")
	}

	now = now.Add(30 * time.Second)
	if ok, _ := r.LockMonitor(ctx, "mint1"); ok {
		t.Error("lock must hold before expiry")
	}

	now = now.Add(31 * time.Second)
	if ok, _ := r.LockMonitor(ctx, "mint1"); !ok {
		t.Error("expired lock must be reacquirable")
	}
}

func TestMintRegistry_ReleaseOnlyOwn(t *testing.T) {
	a := NewMintRegistry("owner-a", 0)
	ctx := context.Background()

	if ok, _ := a.LockMonitor(ctx, "mint1"); !ok {
		t.Fatal("expected lock")
	}

	// Simulate a lock taken by another owner in the same map.
	a.mu.Lock()
	a.locks["mint2"] = memLock{owner: "owner-b"}
	a.mu.Unlock()

	_ = a.ReleaseMonitor(ctx, "mint2")
	if !a.IsLocked("mint2") {
		t.Error("release must not drop a lock held by another owner")
	}

	if err := a.ForceRelease(ctx, "mint2"); err != nil {
		t.Fatalf("ForceRelease failed: %v", err)
	}
	if a.IsLocked("mint2") {
		t.Error("ForceRelease must drop any lock")
	}
	if err := a.ForceRelease(ctx, "mint2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMintRegistry_Params(t *testing.T) {
	r := NewMintRegistry("owner-a", 0)
	ctx := context.Background()

	v, err := r.GetParam(ctx, "alert_silence_until", "none")
	if err != nil {
		t.Fatalf("GetParam failed: %v", err)
	}
	if v != "none" {
		t.Errorf("expected default, got %q", v)
	}

	if err := r.SetParam(ctx, "alert_silence_until", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("SetParam failed: %v", err)
	}
	v, _ = r.GetParam(ctx, "alert_silence_until", "none")
	if v != "2026-01-01T00:00:00Z" {
		t.Errorf("unexpected value %q", v)
	}

	all, _ := r.ListParams(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 param, got %d", len(all))
	}
}
