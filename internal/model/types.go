// Package model defines the wire and working data shapes shared by every
// solver component: the swap request parameters mirrored from the
// on-chain router, the per-chain snapshot the evaluator scores against,
// and the trade decisions the executor carries out.
package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapRequestParameters is the wire shape of a request stored by the
// on-chain router. ChainIDs are carried at full width because the router
// returns them as uint256; only the low 64 bits are meaningful (see
// NormalizeChainID).
type SwapRequestParameters struct {
	SrcChainID      *big.Int
	DstChainID      *big.Int
	Sender          common.Address
	Recipient       common.Address
	TokenIn         common.Address
	TokenOut        common.Address
	AmountOut       *big.Int
	VerificationFee *big.Int
	SolverFee       *big.Int
	Nonce           *big.Int
	Executed        bool
	RequestedAt     *big.Int
}

// Transfer is one unfulfilled request observed on a source chain.
type Transfer struct {
	RequestID  string // canonical 0x-prefixed 32-byte hex
	Params     SwapRequestParameters
	Conditions []Condition
	Priority   int
}

// ChainState is the per-chain snapshot fetched on every block tick.
type ChainState struct {
	NativeBalance    *big.Int
	TokenBalances    map[common.Address]*big.Int
	Transfers        []Transfer
	AlreadyFulfilled map[string]struct{}
}

// NewChainState returns an empty, initialized ChainState.
func NewChainState() *ChainState {
	return &ChainState{
		NativeBalance:    big.NewInt(0),
		TokenBalances:    make(map[common.Address]*big.Int),
		Transfers:        nil,
		AlreadyFulfilled: make(map[string]struct{}),
	}
}

// IsFulfilled reports whether requestID (already canonicalized) appears
// in the destination chain's fulfilled set.
func (s *ChainState) IsFulfilled(requestID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.AlreadyFulfilled[requestID]
	return ok
}

// Clone returns a deep-enough copy of the ChainState for per-tick
// evaluator use: token balances are copied (a new map holding new *big.Int
// values) and the fulfilled set into a new map, so debits made during
// evaluation never leak back into the canonical store. NativeBalance and
// the Transfer slice are shared with the original.
func (s *ChainState) Clone() *ChainState {
	if s == nil {
		return NewChainState()
	}
	clone := &ChainState{
		NativeBalance:    s.NativeBalance,
		TokenBalances:    make(map[common.Address]*big.Int, len(s.TokenBalances)),
		Transfers:        s.Transfers,
		AlreadyFulfilled: make(map[string]struct{}, len(s.AlreadyFulfilled)),
	}
	for addr, bal := range s.TokenBalances {
		clone.TokenBalances[addr] = new(big.Int).Set(bal)
	}
	for id := range s.AlreadyFulfilled {
		clone.AlreadyFulfilled[id] = struct{}{}
	}
	return clone
}

// DebitToken reduces the clone's token balance for addr by amount. It is
// the "inventory commit" step: it only ever touches the per-tick clone,
// never the canonical State Store.
func (s *ChainState) DebitToken(addr common.Address, amount *big.Int) {
	bal, ok := s.TokenBalances[addr]
	if !ok {
		return
	}
	s.TokenBalances[addr] = new(big.Int).Sub(bal, amount)
}

// Trade is a decision record derived from a Transfer: the solver commits
// to relaying it on the destination chain.
type Trade struct {
	RequestID     string // canonical
	Nonce         *big.Int
	TokenInAddr   common.Address
	TokenOutAddr  common.Address
	SrcChainID    uint64
	DestChainID   uint64
	SenderAddr    common.Address
	RecipientAddr common.Address
	SwapAmount    *big.Int
}
