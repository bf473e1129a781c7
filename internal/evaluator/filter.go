package evaluator

import (
	"math/big"

	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/model"
	"github.com/onlyswaps/solver/internal/store"
)

// skipReason names why a candidate never became a Trade, for the
// per-candidate skip log spec.md §4.3 requires.
type skipReason string

const (
	skipAlreadyFulfilled skipReason = "already_fulfilled"
	skipInFlight         skipReason = "in_flight"
	skipExecuted         skipReason = "executed"
	skipDestUnknown      skipReason = "destination_chain_unknown"
	skipNoNativeBalance  skipReason = "destination_native_balance_zero"
	skipTokenAbsent      skipReason = "destination_token_absent"
	skipTokenInsufficient skipReason = "destination_token_insufficient"
	skipFeeTooLow        skipReason = "solver_fee_below_minimum"
)

// candidate pairs a surviving Transfer with the cloned destination
// ChainState it was checked against, so later stages don't repeat the
// same store.Snapshot lookup.
type candidate struct {
	transfer model.Transfer
	destID   uint64
	dest     *model.ChainState
}

// logFunc matches the subset of go-ethereum/log.Logger this package
// needs, so tests can substitute a recorder without importing the
// concrete logger.
type logFunc func(msg string, ctx ...interface{})

// prefilterFulfilled drops any Transfer whose request ID already
// appears in the destination chain's fulfilled set (spec.md §4.2 step 2,
// §4.3's shared prologue). A Transfer whose destination chain is not yet
// known to the snapshot is kept here; filterCandidates then skips it and
// logs it under the destination_chain_unknown reason.
func prefilterFulfilled(transfers []model.Transfer, snapshot *store.Snapshot, logSkip logFunc) []model.Transfer {
	kept := make([]model.Transfer, 0, len(transfers))
	for _, t := range transfers {
		destID := model.NormalizeChainID(t.Params.DstChainID)
		dest, ok := snapshot.Chain(destID)
		if ok && dest.IsFulfilled(t.RequestID) {
			logSkip("skip", "requestId", t.RequestID, "reason", skipAlreadyFulfilled)
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// filterCandidates applies the shared per-candidate prologue (spec.md
// §4.2 step 3 / §4.3's shared prologue) in source-chain order, returning
// every Transfer that survives alongside its destination ChainState.
func filterCandidates(transfers []model.Transfer, snapshot *store.Snapshot, inFlight *inflight.Cache, minSolverFee *big.Int, logSkip logFunc) []candidate {
	out := make([]candidate, 0, len(transfers))

	for _, t := range transfers {
		if inFlight.Has(t.RequestID) {
			logSkip("skip", "requestId", t.RequestID, "reason", skipInFlight)
			continue
		}
		if t.Params.Executed {
			logSkip("skip", "requestId", t.RequestID, "reason", skipExecuted)
			continue
		}

		destID := model.NormalizeChainID(t.Params.DstChainID)
		dest, ok := snapshot.Chain(destID)
		if !ok {
			logSkip("skip", "requestId", t.RequestID, "reason", skipDestUnknown)
			continue
		}
		if dest.NativeBalance == nil || dest.NativeBalance.Sign() == 0 {
			logSkip("skip", "requestId", t.RequestID, "reason", skipNoNativeBalance)
			continue
		}
		balance, ok := dest.TokenBalances[t.Params.TokenOut]
		if !ok {
			logSkip("skip", "requestId", t.RequestID, "reason", skipTokenAbsent)
			continue
		}
		if t.Params.AmountOut == nil || balance.Cmp(t.Params.AmountOut) < 0 {
			logSkip("skip", "requestId", t.RequestID, "reason", skipTokenInsufficient)
			continue
		}
		if t.Params.SolverFee == nil || t.Params.SolverFee.Cmp(minSolverFee) < 0 {
			logSkip("skip", "requestId", t.RequestID, "reason", skipFeeTooLow)
			continue
		}

		out = append(out, candidate{transfer: t, destID: destID, dest: dest})
	}

	return out
}

// commit debits the clone's destination token balance and returns the
// emitted Trade, performing the intra-tick inventory commit described in
// spec.md §4.2 step 3 / §4.3 step 5.
func commit(snapshot *store.Snapshot, c candidate) model.Trade {
	p := c.transfer.Params
	snapshot.DebitToken(c.destID, p.TokenOut, p.AmountOut)

	return model.Trade{
		RequestID:     c.transfer.RequestID,
		Nonce:         p.Nonce,
		TokenInAddr:   p.TokenIn,
		TokenOutAddr:  p.TokenOut,
		SrcChainID:    model.NormalizeChainID(p.SrcChainID),
		DestChainID:   c.destID,
		SenderAddr:    p.Sender,
		RecipientAddr: p.Recipient,
		SwapAmount:    p.AmountOut,
	}
}

// stillCovered reports whether the clone's destination token balance
// still covers amountOut, for the scored evaluator's commit pass
// (spec.md §4.3 step 5).
func stillCovered(snapshot *store.Snapshot, c candidate) bool {
	dest, ok := snapshot.Chain(c.destID)
	if !ok {
		return false
	}
	balance, ok := dest.TokenBalances[c.transfer.Params.TokenOut]
	if !ok {
		return false
	}
	return balance.Cmp(c.transfer.Params.AmountOut) >= 0
}
