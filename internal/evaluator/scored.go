package evaluator

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/onlyswaps/solver/internal/gasprice"
	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/model"
	"github.com/onlyswaps/solver/internal/oracle"
	"github.com/onlyswaps/solver/internal/store"
)

// DefaultMinSolverFee is the v2 evaluator's fee floor (spec.md §4.3).
var DefaultMinSolverFee = big.NewInt(1e15)

// scoredCandidate carries a filtered candidate alongside the scores
// computed for it, so the commit pass can log why a rank was skipped.
type scoredCandidate struct {
	candidate candidate
	risk      riskFactors
	profit    profitResult
	overall   float64
}

// Scored is the v2 evaluator (spec.md §4.3): conditions, four-axis risk
// scoring, profit scoring against the gasprice cache's per-chain gas
// prices, and a two-pass
// rank-then-commit.
type Scored struct {
	Logger        log.Logger
	Prices        oracle.PriceOracle
	GasPrices     *gasprice.Cache
	MinSolverFee  *big.Int
	RiskThreshold float64
	Now           Clock
}

func (s *Scored) logger() log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Root()
}

func (s *Scored) minFee() *big.Int {
	if s.MinSolverFee != nil {
		return s.MinSolverFee
	}
	return DefaultMinSolverFee
}

func (s *Scored) riskThreshold() float64 {
	if s.RiskThreshold > 0 {
		return s.RiskThreshold
	}
	return DefaultRiskThreshold
}

func (s *Scored) clock() Clock {
	if s.Now != nil {
		return s.Now
	}
	return time.Now
}

func (s *Scored) gasPrice(ctx context.Context, chainID uint64) *big.Int {
	if s.GasPrices != nil {
		return s.GasPrices.GasPrice(ctx, chainID)
	}
	return gasprice.New().GasPrice(ctx, chainID)
}

// Evaluate implements Evaluator.
func (s *Scored) Evaluate(ctx context.Context, chainID uint64, snapshot *store.Snapshot, inFlight *inflight.Cache) []model.Trade {
	logger := s.logger()
	logSkip := func(msg string, fields ...interface{}) { logger.Info(msg, fields...) }

	chainState, ok := snapshot.Chain(chainID)
	if !ok {
		return nil
	}

	transfers := prefilterFulfilled(chainState.Transfers, snapshot, logSkip)
	candidates := filterCandidates(transfers, snapshot, inFlight, s.minFee(), logSkip)

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		ok, err := evaluateConditions(ctx, c.transfer.Conditions, s.clock(), s.Prices, snapshot)
		if err != nil {
			logSkip("skip", "requestId", c.transfer.RequestID, "reason", "condition_error", "err", err)
			continue
		}
		if !ok {
			logSkip("skip", "requestId", c.transfer.RequestID, "reason", "condition_not_met")
			continue
		}

		risk := scoreRisk(c.dest, c.transfer.Params.TokenOut, c.transfer.Params.AmountOut, c.transfer.Params.SolverFee, s.minFee(), c.transfer.Params.Sender, c.transfer.Params.Recipient)
		riskAvg := risk.average()
		if riskAvg >= s.riskThreshold() {
			logSkip("skip", "requestId", c.transfer.RequestID, "reason", "risk_too_high", "risk", riskAvg)
			continue
		}

		gasPriceWei := s.gasPrice(ctx, c.destID)
		profit := scoreProfit(c.transfer.Params.AmountOut, c.transfer.Params.SolverFee, gasPriceWei)

		scored = append(scored, scoredCandidate{
			candidate: c,
			risk:      risk,
			profit:    profit,
			overall:   profit.score - 10*riskAvg,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].overall > scored[j].overall
	})

	trades := make([]model.Trade, 0, len(scored))
	for _, sc := range scored {
		if !stillCovered(snapshot, sc.candidate) {
			logSkip("skip", "requestId", sc.candidate.transfer.RequestID, "reason", "inventory_exhausted_this_tick")
			continue
		}
		trades = append(trades, commit(snapshot, sc.candidate))
	}
	return trades
}
