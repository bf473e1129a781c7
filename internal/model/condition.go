package model

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ConditionKind tags the variant carried by a Condition. The evaluator is
// a total function matching on this tag; there is no subclassing.
type ConditionKind int

const (
	ConditionTime ConditionKind = iota
	ConditionPrice
	ConditionBalance
	ConditionCustom
)

// Operator is the comparison used by time/price/balance conditions.
type Operator string

const (
	OpGT      Operator = "gt"
	OpLT      Operator = "lt"
	OpEQ      Operator = "eq"
	OpGTE     Operator = "gte"
	OpLTE     Operator = "lte"
	OpBetween Operator = "between"
)

// StateView is the read-only slice of a per-tick cloned ChainState that
// Balance and Custom conditions are allowed to consult. It is satisfied
// by *store.Snapshot; it lives in this package so Condition.Custom does
// not force an import cycle between model and store.
type StateView interface {
	// NativeBalance returns the native balance for chainID, or (nil,
	// false) if that chain is unknown to the snapshot.
	NativeBalance(chainID uint64) (*big.Int, bool)
	// TokenBalance returns the token balance for (chainID, token), or
	// (nil, false) if absent.
	TokenBalance(chainID uint64, token common.Address) (*big.Int, bool)
}

// CustomEvaluator is the user-supplied closure backing ConditionCustom.
type CustomEvaluator func(ctx context.Context, view StateView) (bool, error)

// Condition is a tagged union: exactly one of the typed fields below is
// meaningful, selected by Kind.
type Condition struct {
	Kind ConditionKind

	// Time fields.
	TimeOperator Operator
	Timestamp    int64
	EndTimestamp int64 // only meaningful when TimeOperator == OpBetween

	// Price fields.
	PriceToken    common.Address
	PriceChainID  uint64
	PriceOperator Operator
	PriceTarget   float64
	PriceSource   string

	// Balance fields.
	BalanceChainID  uint64
	BalanceToken    *common.Address // nil means native balance
	BalanceOperator Operator
	BalanceThresh   *big.Int

	// Custom field.
	Custom CustomEvaluator
}

// compareFloat and compareBigInt apply op to (value, target) for the
// simple scalar operators;
// Between is handled by callers directly since it needs two bounds.
func compareFloat(op Operator, value, target float64) bool {
	switch op {
	case OpGT:
		return value > target
	case OpLT:
		return value < target
	case OpGTE:
		return value >= target
	case OpLTE:
		return value <= target
	case OpEQ:
		return value == target
	default:
		return false
	}
}

func compareBigInt(op Operator, value, target *big.Int) bool {
	cmp := value.Cmp(target)
	switch op {
	case OpGT:
		return cmp > 0
	case OpLT:
		return cmp < 0
	case OpGTE:
		return cmp >= 0
	case OpLTE:
		return cmp <= 0
	case OpEQ:
		return cmp == 0
	default:
		return false
	}
}
