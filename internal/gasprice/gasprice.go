// Package gasprice supplies the per-chain gas price the scored
// evaluator uses to estimate a trade's gas cost (spec.md §4.3), cached
// for 30 seconds, with hard-coded per-chain defaults used whenever no
// live Source answers.
package gasprice

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// DefaultTTL is the cache lifetime for a resolved gas price.
const DefaultTTL = 30 * time.Second

const gwei = 1_000_000_000

// Well-known chain IDs with hard-coded defaults (spec.md §4.3). When a
// Source is configured and answers, its price replaces the default as
// is; it is not capped at the default.
const (
	ChainIDEthereum = 1
	ChainIDPolygon  = 137
	ChainIDArbitrum = 42161
	ChainIDOptimism = 10
)

func defaultGasPriceWei(chainID uint64) *big.Int {
	switch chainID {
	case ChainIDEthereum:
		return big.NewInt(20 * gwei)
	case ChainIDPolygon:
		return big.NewInt(30 * gwei)
	case ChainIDArbitrum:
		return big.NewInt(gwei / 10) // 0.1 gwei
	case ChainIDOptimism:
		return big.NewInt(gwei / 1000) // 0.001 gwei
	default:
		return big.NewInt(20 * gwei)
	}
}

// Source optionally consults a live gas price; the Cache falls back to
// the hard-coded default when Source is nil or it errors.
type Source interface {
	GasPrice(ctx context.Context, chainID uint64) (*big.Int, error)
}

type entry struct {
	price     *big.Int
	expiresAt time.Time
}

// Cache resolves a chain's gas price, refreshing at most once per TTL.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[uint64]entry
}

// New returns a Cache with no live Source: every lookup uses the
// hard-coded per-chain default.
func New() *Cache {
	return &Cache{ttl: DefaultTTL, now: time.Now, entries: make(map[uint64]entry)}
}

// NewWithSource returns a Cache that consults source on a cache miss,
// falling back to the hard-coded default if source errors.
func NewWithSource(source Source) *Cache {
	c := New()
	c.source = source
	return c
}

// GasPrice returns the cached or freshly-resolved gas price for chainID.
func (c *Cache) GasPrice(ctx context.Context, chainID uint64) *big.Int {
	c.mu.Lock()
	if e, ok := c.entries[chainID]; ok && c.now().Before(e.expiresAt) {
		price := e.price
		c.mu.Unlock()
		return price
	}
	c.mu.Unlock()

	price := defaultGasPriceWei(chainID)
	if c.source != nil {
		if live, err := c.source.GasPrice(ctx, chainID); err == nil && live != nil {
			price = live
		}
	}

	c.mu.Lock()
	c.entries[chainID] = entry{price: price, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return price
}
