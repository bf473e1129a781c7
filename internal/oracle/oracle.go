// Package oracle provides price lookups for the scored evaluator's price
// conditions, cached per (chainId, token, source) with a 60-second TTL
// (spec.md §4.3). A missing or erroring price fails the condition, not
// the whole tick.
package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultTTL is the cache lifetime for a resolved price.
const DefaultTTL = 60 * time.Second

// PriceOracle resolves a token's price against a named source.
type PriceOracle interface {
	Price(ctx context.Context, chainID uint64, token common.Address, source string) (float64, error)
}

type cacheKey struct {
	chainID uint64
	token   common.Address
	source  string
}

type cacheEntry struct {
	price     float64
	expiresAt time.Time
}

// CachingOracle wraps an underlying PriceOracle with the 60 s TTL cache
// spec.md requires, so repeated condition checks within a tick (or
// across ticks) don't re-hit the upstream source.
type CachingOracle struct {
	underlying PriceOracle
	ttl        time.Duration
	now        func() time.Time

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// NewCachingOracle wraps underlying with the default TTL.
func NewCachingOracle(underlying PriceOracle) *CachingOracle {
	return &CachingOracle{
		underlying: underlying,
		ttl:        DefaultTTL,
		now:        time.Now,
		cache:      make(map[cacheKey]cacheEntry),
	}
}

// Price returns a cached price if fresh, otherwise consults the
// underlying oracle and caches the result. Any error fails closed: it is
// returned to the caller and nothing is cached.
func (o *CachingOracle) Price(ctx context.Context, chainID uint64, token common.Address, source string) (float64, error) {
	key := cacheKey{chainID: chainID, token: token, source: source}

	o.mu.Lock()
	if e, ok := o.cache[key]; ok && o.now().Before(e.expiresAt) {
		o.mu.Unlock()
		return e.price, nil
	}
	o.mu.Unlock()

	price, err := o.underlying.Price(ctx, chainID, token, source)
	if err != nil {
		return 0, fmt.Errorf("oracle: %s/%s on chain %d: %w", token, source, chainID, err)
	}

	o.mu.Lock()
	o.cache[key] = cacheEntry{price: price, expiresAt: o.now().Add(o.ttl)}
	o.mu.Unlock()

	return price, nil
}

// StaticOracle is a fixed-table PriceOracle, useful for tests and for
// deployments that pin prices rather than consult a live feed.
type StaticOracle struct {
	mu     sync.RWMutex
	prices map[cacheKey]float64
}

// NewStaticOracle returns an empty StaticOracle.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{prices: make(map[cacheKey]float64)}
}

// Set pins a price for (chainID, token, source).
func (s *StaticOracle) Set(chainID uint64, token common.Address, source string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[cacheKey{chainID: chainID, token: token, source: source}] = price
}

// Price implements PriceOracle.
func (s *StaticOracle) Price(_ context.Context, chainID uint64, token common.Address, source string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[cacheKey{chainID: chainID, token: token, source: source}]
	if !ok {
		return 0, fmt.Errorf("oracle: no price pinned for %s/%s on chain %d", token, source, chainID)
	}
	return p, nil
}
