package evaluator

import (
	"context"

	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/model"
	"github.com/onlyswaps/solver/internal/store"
)

// Evaluator turns one chain's surviving Transfers into an ordered list of
// Trades against a per-tick cloned State Store. spec.md §9's Open
// Question on v1-vs-v2 selection says to expose both under a config flag
// rather than pick one silently — Simple and Scored both satisfy this
// interface so the supervisor can hold either behind it.
type Evaluator interface {
	Evaluate(ctx context.Context, chainID uint64, snapshot *store.Snapshot, inFlight *inflight.Cache) []model.Trade
}
