package evaluator

import (
	"math/big"

	"github.com/onlyswaps/solver/internal/model"
)

// compareInt64, compareFloatOp, and compareBigIntOp mirror the scalar
// comparison semantics of model.Operator for the three value domains a
// Condition can compare against (wall-clock seconds, oracle prices, and
// on-chain balances).

func compareInt64(op model.Operator, value, target int64) bool {
	switch op {
	case model.OpGT:
		return value > target
	case model.OpLT:
		return value < target
	case model.OpGTE:
		return value >= target
	case model.OpLTE:
		return value <= target
	case model.OpEQ:
		return value == target
	default:
		return false
	}
}

func compareFloatOp(op model.Operator, value, target float64) bool {
	switch op {
	case model.OpGT:
		return value > target
	case model.OpLT:
		return value < target
	case model.OpGTE:
		return value >= target
	case model.OpLTE:
		return value <= target
	case model.OpEQ:
		return value == target
	default:
		return false
	}
}

func compareBigIntOp(op model.Operator, value, target *big.Int) bool {
	if value == nil || target == nil {
		return false
	}
	cmp := value.Cmp(target)
	switch op {
	case model.OpGT:
		return cmp > 0
	case model.OpLT:
		return cmp < 0
	case model.OpGTE:
		return cmp >= 0
	case model.OpLTE:
		return cmp <= 0
	case model.OpEQ:
		return cmp == 0
	default:
		return false
	}
}
