// Package safety inspects a token's on-chain SPL Mint account before it is
// monitored.
package safety

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/solana"
)

// Token program owners accepted as SPL mints.
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PWnBkwAM5gfmYgrd"
)

// MintAccountSize is the length of the base SPL Mint layout.
const MintAccountSize = 82

// Failure reasons.
const (
	ReasonFreezeAuthority = "freeze_authority_set"
	ReasonWalletMint      = "mint_authority_wallet"
	ReasonNotMint         = "not_spl_mint"
	ReasonUninitialized   = "mint_uninitialized"
)

// ErrMalformedMint is returned by Inspect for data shorter than the layout.
var ErrMalformedMint = errors.New("malformed mint account")

// MintInfo is the decoded base SPL Mint layout.
type MintInfo struct {
	MintAuthority   []byte // nil when unset
	Supply          uint64
	Decimals        uint8
	Initialized     bool
	FreezeAuthority []byte // nil when unset
}

// Report is the outcome of a safety check.
type Report struct {
	Mint   string
	Safe   bool
	Reason string
	// Skipped is true when the check could not run and failed open.
	Skipped bool
}

// Checker fetches and inspects mint accounts.
type Checker struct {
	rpc     solana.AccountReader
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker creates a checker reading accounts through rpc.
func NewChecker(rpc solana.AccountReader, timeout time.Duration, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{rpc: rpc, timeout: timeout, logger: logger}
}

// Check reports whether the mint is safe to monitor. RPC failures and
// accounts not yet visible fail open so a flaky endpoint never blocks
// ingestion.
func (c *Checker) Check(ctx context.Context, mint string) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	info, err := c.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		c.logger.Warn("safety check skipped", zap.String("mint", mint), zap.Error(err))
		return Report{Mint: mint, Safe: true, Skipped: true}
	}
	if info == nil {
		c.logger.Debug("mint account not visible yet", zap.String("mint", mint))
		return Report{Mint: mint, Safe: true, Skipped: true}
	}

	if info.Owner != TokenProgramID && info.Owner != Token2022ProgramID {
		return Report{Mint: mint, Reason: ReasonNotMint}
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return Report{Mint: mint, Reason: ReasonNotMint}
	}
	m, err := Inspect(data)
	if err != nil {
		return Report{Mint: mint, Reason: ReasonNotMint}
	}

	r := Evaluate(m)
	r.Mint = mint
	return r
}

// Inspect decodes the base SPL Mint layout:
// mint_authority COption<Pubkey> (0..36), supply u64 (36..44),
// decimals u8 (44), is_initialized bool (45),
// freeze_authority COption<Pubkey> (46..82).
func Inspect(data []byte) (*MintInfo, error) {
	if len(data) < MintAccountSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedMint, len(data))
	}

	m := &MintInfo{
		MintAuthority:   readCOptionKey(data[0:36]),
		Supply:          binary.LittleEndian.Uint64(data[36:44]),
		Decimals:        data[44],
		Initialized:     data[45] != 0,
		FreezeAuthority: readCOptionKey(data[46:82]),
	}
	return m, nil
}

// Evaluate applies the safety policy: no freeze authority, and a mint
// authority that is either revoked or program-derived (off-curve).
func Evaluate(m *MintInfo) Report {
	switch {
	case !m.Initialized:
		return Report{Reason: ReasonUninitialized}
	case m.FreezeAuthority != nil:
		return Report{Reason: ReasonFreezeAuthority}
	case m.MintAuthority != nil && solana.IsOnCurve(m.MintAuthority):
		return Report{Reason: ReasonWalletMint}
	}
	return Report{Safe: true}
}

func readCOptionKey(b []byte) []byte {
	if binary.LittleEndian.Uint32(b[0:4]) == 0 {
		return nil
	}
	key := make([]byte, 32)
	copy(key, b[4:36])
	return key
}
