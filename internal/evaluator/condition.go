// Package evaluator turns a per-tick cloned State Store into a list of
// Trades, in the Simple (v1) or Scored (v2) variant described in
// spec.md §4.2 and §4.3.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/onlyswaps/solver/internal/model"
	"github.com/onlyswaps/solver/internal/oracle"
)

// Clock abstracts wall-clock time so tests can pin "now" for time
// conditions.
type Clock func() time.Time

// evaluateConditions checks every condition in order, short-circuiting
// on the first failure (spec.md §4.3 step 1). An empty slice is treated
// as "all conditions met".
func evaluateConditions(ctx context.Context, conditions []model.Condition, now Clock, prices oracle.PriceOracle, view model.StateView) (bool, error) {
	for i, cond := range conditions {
		ok, err := evaluateOne(ctx, cond, now, prices, view)
		if err != nil {
			return false, fmt.Errorf("condition %d (%s): %w", i, kindName(cond.Kind), err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evaluateOne(ctx context.Context, cond model.Condition, now Clock, prices oracle.PriceOracle, view model.StateView) (bool, error) {
	switch cond.Kind {
	case model.ConditionTime:
		return evaluateTime(cond, now), nil

	case model.ConditionPrice:
		if prices == nil {
			return false, fmt.Errorf("no price oracle configured")
		}
		price, err := prices.Price(ctx, cond.PriceChainID, cond.PriceToken, cond.PriceSource)
		if err != nil {
			return false, err
		}
		return comparePrice(cond, price), nil

	case model.ConditionBalance:
		return evaluateBalance(cond, view)

	case model.ConditionCustom:
		if cond.Custom == nil {
			return false, fmt.Errorf("custom condition has no evaluator")
		}
		return cond.Custom(ctx, view)

	default:
		return false, fmt.Errorf("unknown condition kind %d", cond.Kind)
	}
}

func evaluateTime(cond model.Condition, now Clock) bool {
	nowUnix := now().Unix()
	if cond.TimeOperator == model.OpBetween {
		return nowUnix >= cond.Timestamp && nowUnix <= cond.EndTimestamp
	}
	return compareInt64(cond.TimeOperator, nowUnix, cond.Timestamp)
}

func comparePrice(cond model.Condition, price float64) bool {
	return compareFloatOp(cond.PriceOperator, price, cond.PriceTarget)
}

func evaluateBalance(cond model.Condition, view model.StateView) (bool, error) {
	if cond.BalanceToken == nil {
		bal, ok := view.NativeBalance(cond.BalanceChainID)
		if !ok {
			return false, nil
		}
		return compareBigIntOp(cond.BalanceOperator, bal, cond.BalanceThresh), nil
	}
	bal, ok := view.TokenBalance(cond.BalanceChainID, *cond.BalanceToken)
	if !ok {
		return false, nil
	}
	return compareBigIntOp(cond.BalanceOperator, bal, cond.BalanceThresh), nil
}

func kindName(k model.ConditionKind) string {
	switch k {
	case model.ConditionTime:
		return "time"
	case model.ConditionPrice:
		return "price"
	case model.ConditionBalance:
		return "balance"
	case model.ConditionCustom:
		return "custom"
	default:
		return "unknown"
	}
}
