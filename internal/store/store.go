// Package store holds the solver's single process-wide State Store: one
// ChainState snapshot per chain, replaced wholesale on every block tick.
// Readers (the evaluator) never touch the canonical map directly — they
// work against a Snapshot produced by Clone, so intra-tick inventory
// commits never leak across ticks or across concurrently-ticking chains.
package store

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onlyswaps/solver/internal/model"
)

// Store is the supervisor-owned, thread-safe per-chain state map.
type Store struct {
	mu     sync.RWMutex
	chains map[uint64]*model.ChainState
}

// New returns an empty Store.
func New() *Store {
	return &Store{chains: make(map[uint64]*model.ChainState)}
}

// Set replaces the canonical snapshot for chainID. Called once per tick,
// after a successful fetchState.
func (s *Store) Set(chainID uint64, state *model.ChainState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains[chainID] = state
}

// Get returns the canonical snapshot for chainID, for read-only
// inspection outside the evaluator (metrics, diagnostics).
func (s *Store) Get(chainID uint64) (*model.ChainState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.chains[chainID]
	return cs, ok
}

// Clone takes a consistent, shallow-cloned copy of every chain's state.
// The returned Snapshot is safe for a single evaluator tick to mutate
// (debit balances) without affecting the canonical Store or any other
// concurrently-running tick.
func (s *Store) Clone() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chains := make(map[uint64]*model.ChainState, len(s.chains))
	for id, cs := range s.chains {
		chains[id] = cs.Clone()
	}
	return &Snapshot{chains: chains}
}

// Snapshot is a per-tick clone of the State Store. It implements
// model.StateView so Condition.Balance / Condition.Custom can be
// evaluated against it.
type Snapshot struct {
	chains map[uint64]*model.ChainState
}

// Chain returns the cloned ChainState for chainID, if known.
func (sn *Snapshot) Chain(chainID uint64) (*model.ChainState, bool) {
	cs, ok := sn.chains[chainID]
	return cs, ok
}

// NativeBalance implements model.StateView.
func (sn *Snapshot) NativeBalance(chainID uint64) (*big.Int, bool) {
	cs, ok := sn.chains[chainID]
	if !ok {
		return nil, false
	}
	return cs.NativeBalance, true
}

// TokenBalance implements model.StateView.
func (sn *Snapshot) TokenBalance(chainID uint64, token common.Address) (*big.Int, bool) {
	cs, ok := sn.chains[chainID]
	if !ok {
		return nil, false
	}
	bal, ok := cs.TokenBalances[token]
	return bal, ok
}

// DebitToken performs the intra-tick inventory commit: it reduces the
// cloned destination chain's token balance by amount so later candidates
// in the same tick see the reservation. It never touches the Store this
// Snapshot was cloned from.
func (sn *Snapshot) DebitToken(chainID uint64, token common.Address, amount *big.Int) {
	cs, ok := sn.chains[chainID]
	if !ok {
		return
	}
	cs.DebitToken(token, amount)
}
