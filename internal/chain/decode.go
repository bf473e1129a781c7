package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/onlyswaps/solver/internal/model"
)

// maxChainID bounds a plausible chain ID: spec.md's open question on
// router parameter layout says to reject any decode whose srcChainId or
// dstChainId exceeds 2^64.
var maxChainID = new(big.Int).Lsh(big.NewInt(1), 64)

// decodeNamed interprets the 12 strongly-typed outputs of
// getSwapRequestParameters in router-declared order. This is the
// canonical decode.
func decodeNamed(out []interface{}) (model.SwapRequestParameters, error) {
	if len(out) != 12 {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode expected 12 fields, got %d", len(out))
	}
	srcChainID, ok := out[0].(*big.Int)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: srcChainId has unexpected type %T", out[0])
	}
	dstChainID, ok := out[1].(*big.Int)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: dstChainId has unexpected type %T", out[1])
	}
	sender, ok := out[2].(common.Address)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: sender has unexpected type %T", out[2])
	}
	recipient, ok := out[3].(common.Address)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: recipient has unexpected type %T", out[3])
	}
	tokenIn, ok := out[4].(common.Address)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: tokenIn has unexpected type %T", out[4])
	}
	tokenOut, ok := out[5].(common.Address)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: tokenOut has unexpected type %T", out[5])
	}
	amountOut, ok := out[6].(*big.Int)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: amountOut has unexpected type %T", out[6])
	}
	verificationFee, ok := out[7].(*big.Int)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: verificationFee has unexpected type %T", out[7])
	}
	solverFee, ok := out[8].(*big.Int)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: solverFee has unexpected type %T", out[8])
	}
	nonce, ok := out[9].(*big.Int)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: nonce has unexpected type %T", out[9])
	}
	executed, ok := out[10].(bool)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: executed has unexpected type %T", out[10])
	}
	requestedAt, ok := out[11].(*big.Int)
	if !ok {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: named decode: requestedAt has unexpected type %T", out[11])
	}

	return model.SwapRequestParameters{
		SrcChainID:      srcChainID,
		DstChainID:      dstChainID,
		Sender:          sender,
		Recipient:       recipient,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountOut:       amountOut,
		VerificationFee: verificationFee,
		SolverFee:       solverFee,
		Nonce:           nonce,
		Executed:        executed,
		RequestedAt:     requestedAt,
	}, nil
}

// decodePositional interprets the same call's raw uint256 tuple in the
// alternate layout where index 0 is sender: addresses arrive as large
// integers (decoded by taking the low 20 bytes) and booleans arrive as
// 0/1 integers.
func decodePositional(raw []*big.Int) (model.SwapRequestParameters, error) {
	if len(raw) != 12 {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: positional decode expected 12 fields, got %d", len(raw))
	}

	sender := addressFromBigInt(raw[0])
	recipient := addressFromBigInt(raw[1])
	tokenIn := addressFromBigInt(raw[2])
	tokenOut := addressFromBigInt(raw[3])
	amountOut := raw[4]
	srcChainID := raw[5]
	dstChainID := raw[6]
	nonce := raw[7]
	solverFee := raw[8]
	verificationFee := raw[9]
	executed := raw[10].Sign() != 0
	requestedAt := raw[11]

	return model.SwapRequestParameters{
		SrcChainID:      srcChainID,
		DstChainID:      dstChainID,
		Sender:          sender,
		Recipient:       recipient,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountOut:       amountOut,
		VerificationFee: verificationFee,
		SolverFee:       solverFee,
		Nonce:           nonce,
		Executed:        executed,
		RequestedAt:     requestedAt,
	}, nil
}

// addressFromBigInt takes the low 20 bytes of x, the decoding rule
// spec.md §4.1 requires for addresses returned as large integers.
func addressFromBigInt(x *big.Int) common.Address {
	var addr common.Address
	b := x.Bytes()
	if len(b) > len(addr) {
		b = b[len(b)-len(addr):]
	}
	copy(addr[len(addr)-len(b):], b)
	return addr
}

// plausibleChainID rejects anything that doesn't fit in 64 bits.
func plausibleChainID(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(maxChainID) < 0
}

// decodeSwapRequestParameters tries the named-struct decode first; if
// the decoded chain IDs are implausible it logs loudly and retries with
// the positional fallback. A decode whose chain IDs exceed 2^64 under
// both interpretations is rejected outright (spec.md §9, Open Questions).
func decodeSwapRequestParameters(logger log.Logger, named []interface{}, rawPositional []*big.Int) (model.SwapRequestParameters, error) {
	if named != nil {
		params, err := decodeNamed(named)
		if err == nil && plausibleChainID(params.SrcChainID) && plausibleChainID(params.DstChainID) {
			return params, nil
		}
		if err != nil {
			logger.Warn("named-struct decode failed, trying positional fallback", "err", err)
		} else {
			logger.Warn("named-struct decode produced implausible chain IDs, trying positional fallback",
				"srcChainId", params.SrcChainID, "dstChainId", params.DstChainID)
		}
	}

	if rawPositional == nil {
		return model.SwapRequestParameters{}, fmt.Errorf("chain: no positional fallback available")
	}

	params, err := decodePositional(rawPositional)
	if err != nil {
		return model.SwapRequestParameters{}, err
	}
	if !plausibleChainID(params.SrcChainID) || !plausibleChainID(params.DstChainID) {
		return model.SwapRequestParameters{}, fmt.Errorf(
			"chain: rejecting decode, srcChainId=%s dstChainId=%s exceed 2^64 under both layouts",
			params.SrcChainID, params.DstChainID)
	}
	return params, nil
}
