package evaluator

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyswaps/solver/internal/gasprice"
	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/model"
	"github.com/onlyswaps/solver/internal/store"
)

func TestScoredFeeTooLowSkips(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{transferFixture("0xab01", 1e18, 500, 31338, false)}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	eval := &Scored{GasPrices: gasprice.New()}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	assert.Empty(t, trades)
}

func TestScoredHappyPathEmitsTrade(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{transferFixture("0xab01", 1e18, 1e16, 31338, false)}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	eval := &Scored{GasPrices: gasprice.New()}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	require.Len(t, trades, 1)
	assert.Equal(t, model.CanonicalRequestID("0xab01"), trades[0].RequestID)
}

func TestScoredHighRiskSkips(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{transferFixture("0xab01", 1e18, 1e15+1, 31338, false)}
	s.Set(31337, src)
	// Destination has just enough inventory (liquidity risk 0.5) and a low
	// but nonzero native balance (execution risk 0.6): together they push
	// the averaged risk score over the default 0.3 threshold without
	// tripping the earlier hard filters (nonzero native balance, token
	// balance exactly covering amountOut).
	s.Set(31338, destChainState(1, 1e18))

	snap := s.Clone()
	eval := &Scored{GasPrices: gasprice.New()}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	assert.Empty(t, trades)
}

func TestScoredRanksHigherProfitFirst(t *testing.T) {
	s := store.New()
	src := model.NewChainState()
	src.Transfers = []model.Transfer{
		transferFixture("0xaa01", 1e18, 1e15, 31338, false),  // low fee -> low profit
		transferFixture("0xaa02", 1e18, 5e17, 31338, false),  // high fee -> high profit
	}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 3e18)) // 3e18 covers both trades (2e18 total)

	snap := s.Clone()
	eval := &Scored{GasPrices: gasprice.New()}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	require.Len(t, trades, 2)
	assert.Equal(t, model.CanonicalRequestID("0xaa02"), trades[0].RequestID, "higher solver fee should rank first")
}

func TestScoredConditionFailureSkips(t *testing.T) {
	s := store.New()
	tr := transferFixture("0xab01", 1e18, 1e16, 31338, false)
	tr.Conditions = []model.Condition{
		{Kind: model.ConditionBalance, BalanceChainID: 31338, BalanceToken: nil, BalanceOperator: model.OpGTE, BalanceThresh: new(big.Int).Mul(big.NewInt(999), big.NewInt(1e18))},
	}
	src := model.NewChainState()
	src.Transfers = []model.Transfer{tr}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	eval := &Scored{GasPrices: gasprice.New()}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	assert.Empty(t, trades)
}

func TestScoredEmptyConditionListPasses(t *testing.T) {
	s := store.New()
	tr := transferFixture("0xab01", 1e18, 1e16, 31338, false)
	tr.Conditions = nil
	src := model.NewChainState()
	src.Transfers = []model.Transfer{tr}
	s.Set(31337, src)
	s.Set(31338, destChainState(1e18, 5e18))

	snap := s.Clone()
	eval := &Scored{GasPrices: gasprice.New()}
	trades := eval.Evaluate(context.Background(), 31337, snap, inflight.New())

	assert.Len(t, trades, 1)
}
