package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeEventID computes a deterministic trade event id using SHA256.
// Formula: SHA256(mint|side|scenario_id|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeEventID(
	mint string,
	side string,
	scenarioID string,
	createdAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		mint,
		side,
		scenarioID,
		createdAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
