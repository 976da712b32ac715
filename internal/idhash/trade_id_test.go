package idhash

import (
	"testing"
)

func TestComputeTradeEventID(t *testing.T) {
	tests := []struct {
		name        string
		mint        string
		side        string
		scenarioID  string
		createdAtMs int64
		wantLen     int // hash length should be 64
	}{
		{
			name:        "buy event",
			mint:        "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr",
			side:        "BUY",
			scenarioID:  "realistic",
			createdAtMs: 1704067234567,
			wantLen:     64,
		},
		{
			name:        "sell event",
			mint:        "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr",
			side:        "SELL",
			scenarioID:  "pessimistic",
			createdAtMs: 1704067300000,
			wantLen:     64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeEventID(tt.mint, tt.side, tt.scenarioID, tt.createdAtMs)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeEventID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Same inputs, same output
			got2 := ComputeTradeEventID(tt.mint, tt.side, tt.scenarioID, tt.createdAtMs)
			if got != got2 {
				t.Errorf("ComputeTradeEventID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeEventID_SideMatters(t *testing.T) {
	buy := ComputeTradeEventID("mint", "BUY", "realistic", 1000)
	sell := ComputeTradeEventID("mint", "SELL", "realistic", 1000)

	if buy == sell {
		t.Error("BUY and SELL events with same timestamp must have different ids")
	}
}

func TestComputeTradeEventID_TimestampMatters(t *testing.T) {
	got := ComputeTradeEventID("a", "BUY", "realistic", 1)
	again := ComputeTradeEventID("a", "BUY", "realistic", 1)
	other := ComputeTradeEventID("a", "BUY", "realistic", 2)

	if got != again {
		t.Errorf("expected stable id, got %s and %s", got, again)
	}
	if got == other {
		t.Error("different timestamps must produce different ids")
	}
}
