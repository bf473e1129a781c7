package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalRequestIDIdempotent(t *testing.T) {
	raw := "0xAB00000000000000000000000000000000000000000000000000000000000001"[:66]
	once := CanonicalRequestID(raw)
	twice := CanonicalRequestID(once)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 66)
	assert.Equal(t, "0x", once[:2])
}

func TestCanonicalRequestIDCaseInsensitive(t *testing.T) {
	upper := CanonicalRequestID("0xAB01")
	lower := CanonicalRequestID("0xab01")
	assert.Equal(t, upper, lower)
}

func TestCanonicalRequestIDAddsPrefixAndPads(t *testing.T) {
	id := CanonicalRequestID("ab01")
	assert.Equal(t, "0x", id[:2])
	assert.Len(t, id, 66)
}

func TestNormalizeChainIDIdempotentAndMasks(t *testing.T) {
	big64 := new(big.Int).Lsh(big.NewInt(1), 64)
	big64.Add(big64, big.NewInt(31337))

	normalized := NormalizeChainID(big64)
	assert.Equal(t, uint64(31337), normalized)

	again := NormalizeChainID(new(big.Int).SetUint64(normalized))
	assert.Equal(t, normalized, again)
}

func TestNormalizeChainIDNil(t *testing.T) {
	assert.Equal(t, uint64(0), NormalizeChainID(nil))
}

func TestLowerAddressIsLowerCase(t *testing.T) {
	addr := common.HexToAddress("0xAbCdEf0000000000000000000000000000000A")
	lowered := LowerAddress(addr)
	assert.Equal(t, "0x00abcdef0000000000000000000000000000000a", lowered)
}
