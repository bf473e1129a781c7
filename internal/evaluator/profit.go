package evaluator

import "math/big"

// Tunable constants behind the profit-score formula (spec.md §4.3 step 3
// and §9's Open Question flagging them as not derived from a documented
// model). Exposed as variables, not inlined, so a deployment can retune
// without forking the formula.
var (
	// estimatedRelayGas is the flat gas estimate for one relayTokens
	// call used to price the gas-cost term.
	estimatedRelayGas = big.NewInt(150000)

	// opportunityCostBps/Minutes/Divisor together express "amountOut
	// held for opportunityCostMinutes at a bps rate, converted to the
	// same units as solverFee". The source formula is
	// amountOut * opportunityCostBps * opportunityCostMinutes / opportunityCostDivisor.
	opportunityCostBps     int64 = 1000
	opportunityCostMinutes int64 = 60
	opportunityCostDivisor int64 = 3_600_000
)

// profitResult carries the intermediate terms alongside the final score
// so a skip log can explain a negative or zero profit.
type profitResult struct {
	gasCost         *big.Int
	opportunityCost *big.Int
	netProfit       *big.Int
	score           float64
}

// scoreProfit computes the v2 evaluator's profit score (spec.md §4.3
// step 3): net profit floored at zero, divided by solverFee.
func scoreProfit(amountOut, solverFee, destGasPriceWei *big.Int) profitResult {
	gasCost := new(big.Int).Mul(estimatedRelayGas, destGasPriceWei)

	opportunityCost := new(big.Int).Mul(amountOut, big.NewInt(opportunityCostBps))
	opportunityCost.Mul(opportunityCost, big.NewInt(opportunityCostMinutes))
	opportunityCost.Div(opportunityCost, big.NewInt(opportunityCostDivisor))

	netProfit := new(big.Int).Sub(solverFee, gasCost)
	netProfit.Sub(netProfit, opportunityCost)
	if netProfit.Sign() < 0 {
		netProfit = big.NewInt(0)
	}

	var score float64
	if solverFee.Sign() > 0 {
		profitF := new(big.Float).SetInt(netProfit)
		feeF := new(big.Float).SetInt(solverFee)
		score, _ = new(big.Float).Quo(profitF, feeF).Float64()
	}

	return profitResult{
		gasCost:         gasCost,
		opportunityCost: opportunityCost,
		netProfit:       netProfit,
		score:           score,
	}
}
