package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func TestTradeEventStore_InsertAndGet(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	buy := &domain.TradeEvent{
		EventID:   "e1",
		Mint:      "mint1",
		Side:      domain.SideBuy,
		RuleNames: []string{"FAST_PUMP"},
		ExecPrice: 1.02,
		CreatedAt: base,
	}
	sell := &domain.TradeEvent{
		EventID:    "e2",
		Mint:       "mint1",
		Side:       domain.SideSell,
		ExecPrice:  2.0,
		PnLPercent: ptr(96.0),
		CreatedAt:  base.Add(time.Minute),
	}

	if err := store.Insert(ctx, sell); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, buy); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].EventID != "e1" || got[1].EventID != "e2" {
		t.Errorf("events not ordered by created_at: %s, %s", got[0].EventID, got[1].EventID)
	}

	// Returned copies must not alias stored state.
	got[0].RuleNames[0] = "MUTATED"
	again, _ := store.GetByMint(ctx, "mint1")
	if again[0].RuleNames[0] != "FAST_PUMP" {
		t.Error("stored event was mutated through returned copy")
	}
}

func TestTradeEventStore_DuplicateKey(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	e := &domain.TradeEvent{EventID: "e1", Mint: "mint1", Side: domain.SideBuy}
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, e)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeEventStore_InvalidInput(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.TradeEvent{Mint: "m"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
	if _, err := store.ListRecent(ctx, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero limit, got %v", err)
	}
}

func TestTradeEventStore_ListRecentAndSummary(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	events := []*domain.TradeEvent{
		{EventID: "b1", Mint: "m1", Side: domain.SideBuy, CreatedAt: base},
		{EventID: "s1", Mint: "m1", Side: domain.SideSell, PnLPercent: ptr(50.0), CreatedAt: base.Add(1 * time.Minute)},
		{EventID: "b2", Mint: "m2", Side: domain.SideBuy, CreatedAt: base.Add(2 * time.Minute)},
		{EventID: "s2", Mint: "m2", Side: domain.SideSell, PnLPercent: ptr(-20.0), CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	recent, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].EventID != "s2" || recent[1].EventID != "b2" {
		t.Errorf("unexpected recent order: %+v", recent)
	}

	sum, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Sells != 2 || sum.Wins != 1 || sum.Losses != 1 {
		t.Errorf("unexpected summary counts: %+v", sum)
	}
	if sum.AvgPnLPercent != 15.0 {
		t.Errorf("AvgPnLPercent = %f, want 15", sum.AvgPnLPercent)
	}
	if sum.BestPnL != 50.0 || sum.WorstPnL != -20.0 {
		t.Errorf("best/worst = %f/%f", sum.BestPnL, sum.WorstPnL)
	}
	if sum.WinRate() != 0.5 {
		t.Errorf("WinRate = %f, want 0.5", sum.WinRate())
	}
}
