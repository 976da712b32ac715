package solana

import (
	"crypto/sha256"
	"errors"
	"testing"

	"filippo.io/edwards25519"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"wrapped sol mint", "So11111111111111111111111111111111111111112", false},
		{"system program", "11111111111111111111111111111111", false},
		{"empty", "", true},
		{"bad alphabet", "0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl", true},
		{"too short", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEncodeDecodeAddress(t *testing.T) {
	raw, err := DecodeAddress("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if got := EncodeAddress(raw); got != "So11111111111111111111111111111111111111112" {
		t.Errorf("round trip mismatch: %s", got)
	}
}

func TestIsOnCurve(t *testing.T) {
	base := edwards25519.NewGeneratorPoint().Bytes()
	if !IsOnCurve(base) {
		t.Error("generator point must be on curve")
	}

	if IsOnCurve([]byte{1, 2, 3}) {
		t.Error("short key must not be on curve")
	}

	// Roughly half of random 32-byte strings are not valid points.
	found := false
	for i := 0; i < 256 && !found; i++ {
		h := sha256.Sum256([]byte{byte(i)})
		if _, err := new(edwards25519.Point).SetBytes(h[:]); err != nil {
			found = true
			if IsOnCurve(h[:]) {
				t.Errorf("hash %d rejected by decoder but reported on curve", i)
			}
		}
	}
	if !found {
		t.Fatal("no off-curve sample found")
	}
}
