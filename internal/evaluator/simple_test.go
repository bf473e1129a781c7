package evaluator

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/model"
	"github.com/onlyswaps/solver/internal/store"
)

var token = common.HexToAddress("0x000000000000000000000000000000000000aa")

func transferFixture(requestID string, amountOut, solverFee int64, dstChainID uint64, executed bool) model.Transfer {
	return model.Transfer{
		RequestID: model.CanonicalRequestID(requestID),
		Params: model.SwapRequestParameters{
			SrcChainID:      big.NewInt(31337),
			DstChainID:      new(big.Int).SetUint64(dstChainID),
			Sender:          common.HexToAddress("0x1"),
			Recipient:       common.HexToAddress("0x2"),
			TokenIn:         common.HexToAddress("0x3"),
			TokenOut:        token,
			AmountOut:       big.NewInt(amountOut),
			VerificationFee: big.NewInt(0),
			SolverFee:       big.NewInt(solverFee),
			Nonce:           big.NewInt(1),
			Executed:        executed,
			RequestedAt:     big.NewInt(0),
		},
	}
}

func destChainState(nativeBal, tokenBal int64) *model.ChainState {
	cs := model.NewChainState()
	cs.NativeBalance = big.NewInt(nativeBal)
	cs.TokenBalances[token] = big.NewInt(tokenBal)
	return cs
}

func TestSimpleHappyPathSingleFulfill(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{
		transferFixture("0xab01", 1_000_000_000_000_000_000, 10_000_000_000_000_000, 31338, false),
	}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	cache := inflight.New()

	eval := &Simple{}
	trades := eval.Evaluate(context.Background(), 31337, snap, cache)

	require.Len(t, trades, 1)
	assert.Equal(t, model.CanonicalRequestID("0xab01"), trades[0].RequestID)
	assert.Equal(t, uint64(31338), trades[0].DestChainID)
}

func TestSimpleAlreadyFulfilledSkips(t *testing.T) {
	s := store.New()
	reqID := model.CanonicalRequestID("0xab01")
	src := model.NewChainState()
	src.Transfers = []model.Transfer{transferFixture("0xab01", 1e18, 1e16, 31338, false)}
	s.Set(31337, src)

	dest := destChainState(1e18, 5e18)
	dest.AlreadyFulfilled[reqID] = struct{}{}
	s.Set(31338, dest)

	snap := s.Clone()
	eval := &Simple{}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	assert.Empty(t, trades)
}

func TestSimpleTwoCandidatesOneInventory(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{
		transferFixture("0xaa01", 4e18, 1e16, 31338, false),
		transferFixture("0xaa02", 3e18, 1e16, 31338, false),
	}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	eval := &Simple{}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	require.Len(t, trades, 1)
	assert.Equal(t, model.CanonicalRequestID("0xaa01"), trades[0].RequestID)
}

func TestSimpleSkipsWhenInFlight(t *testing.T) {
	s := store.New()
	reqID := model.CanonicalRequestID("0xab01")
	src := model.NewChainState()
	src.Transfers = []model.Transfer{transferFixture("0xab01", 1e18, 1e16, 31338, false)}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	cache := inflight.New()
	cache.Set(reqID, 0)

	snap := s.Clone()
	eval := &Simple{}
	trades := eval.Evaluate(context.Background(), 31337, snap, cache)

	assert.Empty(t, trades)
}

func TestSimpleSkipsZeroFee(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{transferFixture("0xab01", 1e18, 0, 31338, false)}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	eval := &Simple{}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	assert.Empty(t, trades)
}

func TestSimpleDebitDoesNotLeakToCanonicalStore(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{transferFixture("0xab01", 1e18, 1e16, 31338, false)}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	eval := &Simple{}
	eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	canonical, ok := s.Get(31338)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(5e18), canonical.TokenBalances[token])
}
