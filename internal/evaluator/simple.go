package evaluator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/log"

	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/model"
	"github.com/onlyswaps/solver/internal/store"
)

// minSolverFeeSimple is the v1 evaluator's fee floor: spec.md §4.2 names
// it only as "params.solverFee < 1".
var minSolverFeeSimple = big.NewInt(1)

// Simple is the v1 evaluator (spec.md §4.2): no conditions, no scoring,
// first-come-first-served inventory commit in source-chain order.
type Simple struct {
	Logger log.Logger
}

// Evaluate implements Evaluator.
func (s *Simple) Evaluate(_ context.Context, chainID uint64, snapshot *store.Snapshot, inFlight *inflight.Cache) []model.Trade {
	logger := s.Logger
	if logger == nil {
		logger = log.Root()
	}
	logSkip := func(msg string, ctx ...interface{}) { logger.Info(msg, ctx...) }

	chainState, ok := snapshot.Chain(chainID)
	if !ok {
		return nil
	}

	transfers := prefilterFulfilled(chainState.Transfers, snapshot, logSkip)
	candidates := filterCandidates(transfers, snapshot, inFlight, minSolverFeeSimple, logSkip)

	trades := make([]model.Trade, 0, len(candidates))
	for _, c := range candidates {
		if !stillCovered(snapshot, c) {
			logSkip("skip", "requestId", c.transfer.RequestID, "reason", "inventory_exhausted_this_tick")
			continue
		}
		trades = append(trades, commit(snapshot, c))
	}
	return trades
}
