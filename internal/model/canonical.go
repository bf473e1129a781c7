package model

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// maxUint64Plus1 (2^64) is the modulus that masks a 256-bit chain ID
// down to its low 64 bits.
var maxUint64Plus1 = new(big.Int).Lsh(big.NewInt(1), 64)

// NormalizeChainID returns x mod 2^64. Every internal map that keys on a
// chain ID uses this 64-bit form, never the raw 256-bit router value.
func NormalizeChainID(x *big.Int) uint64 {
	if x == nil {
		return 0
	}
	masked := new(big.Int).Mod(x, maxUint64Plus1)
	return masked.Uint64()
}

// CanonicalRequestID normalizes a request ID to its lower-case,
// 0x-prefixed, 66-character form. It accepts input with or without the
// 0x prefix and in either case. Canonicalization is idempotent.
func CanonicalRequestID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if !strings.HasPrefix(id, "0x") {
		id = "0x" + id
	}
	// Left-pad to 64 hex chars (32 bytes) if the source returned a short form.
	hex := id[2:]
	if len(hex) < 64 {
		hex = strings.Repeat("0", 64-len(hex)) + hex
	}
	return "0x" + hex
}

// CanonicalRequestIDBytes canonicalizes a 32-byte request ID.
func CanonicalRequestIDBytes(id [32]byte) string {
	return CanonicalRequestID(common.Bytes2Hex(id[:]))
}

// LowerAddress returns the lower-cased 0x-prefixed hex form of addr. All
// addresses that leave this process (Trade fields, relay call arguments)
// are normalized with this helper rather than the EIP-55 checksum form.
func LowerAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// ParseAddress decodes a (possibly mixed-case, possibly missing-0x)
// address string into its canonical common.Address form. common.Address
// itself is a fixed 20-byte value, so equality and map-keying on it are
// already case-insensitive; ParseAddress exists so callers never need to
// reason about string case themselves.
func ParseAddress(s string) common.Address {
	return common.HexToAddress(s)
}
