package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the size of a Solana public key in bytes.
const PublicKeyLength = 32

// ErrInvalidAddress is returned for strings that are not base58 32-byte keys.
var ErrInvalidAddress = errors.New("invalid solana address")

// ValidateAddress checks that s decodes from base58 to exactly 32 bytes.
func ValidateAddress(s string) error {
	_, err := DecodeAddress(s)
	return err
}

// DecodeAddress decodes a base58 address into its raw bytes.
func DecodeAddress(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != PublicKeyLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidAddress, len(raw))
	}
	return raw, nil
}

// EncodeAddress encodes raw key bytes as base58.
func EncodeAddress(raw []byte) string {
	return base58.Encode(raw)
}

// IsOnCurve reports whether the key is a valid ed25519 point, i.e. could be
// held by a wallet. Program-derived addresses are off-curve.
func IsOnCurve(pubkey []byte) bool {
	if len(pubkey) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(pubkey)
	return err == nil
}
