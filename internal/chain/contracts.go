package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// routerABIJSON declares the on-chain router surface the solver consumes,
// per spec.md §6. getSwapRequestParameters is declared with 12 discrete,
// strongly-typed outputs (the "named struct" decode) rather than a single
// tuple return — this is the canonical layout; decode.go also handles a
// router that instead returns the same 12 values as a flat uint256 tuple
// (the "positional" fallback).
const routerABIJSON = `[
	{"type":"function","name":"getFulfilledTransfers","stateMutability":"view",
	 "inputs":[], "outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"getUnfulfilledSolverRefunds","stateMutability":"view",
	 "inputs":[], "outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"getSwapRequestParameters","stateMutability":"view",
	 "inputs":[{"name":"requestId","type":"bytes32"}],
	 "outputs":[
		{"name":"srcChainId","type":"uint256"},
		{"name":"dstChainId","type":"uint256"},
		{"name":"sender","type":"address"},
		{"name":"recipient","type":"address"},
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountOut","type":"uint256"},
		{"name":"verificationFee","type":"uint256"},
		{"name":"solverFee","type":"uint256"},
		{"name":"nonce","type":"uint256"},
		{"name":"executed","type":"bool"},
		{"name":"requestedAt","type":"uint256"}
	 ]},
	{"type":"function","name":"getSwapRequestParametersRaw","stateMutability":"view",
	 "inputs":[{"name":"requestId","type":"bytes32"}],
	 "outputs":[
		{"name":"f0","type":"uint256"},{"name":"f1","type":"uint256"},
		{"name":"f2","type":"uint256"},{"name":"f3","type":"uint256"},
		{"name":"f4","type":"uint256"},{"name":"f5","type":"uint256"},
		{"name":"f6","type":"uint256"},{"name":"f7","type":"uint256"},
		{"name":"f8","type":"uint256"},{"name":"f9","type":"uint256"},
		{"name":"f10","type":"uint256"},{"name":"f11","type":"uint256"}
	 ]},
	{"type":"function","name":"relayTokens","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"solver","type":"address"},
		{"name":"requestId","type":"bytes32"},
		{"name":"sender","type":"address"},
		{"name":"recipient","type":"address"},
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountOut","type":"uint256"},
		{"name":"srcChainId","type":"uint256"},
		{"name":"nonce","type":"uint256"}
	 ],
	 "outputs":[{"name":"","type":"bool"}]}
]`

// erc20ABIJSON declares the token surface the solver consumes. faucet is
// modeled for completeness of spec.md §6's contract list but is never
// called from the core loop.
const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"faucet","stateMutability":"nonpayable",
	 "inputs":[], "outputs":[]}
]`

var (
	routerABI abi.ABI
	erc20ABI  abi.ABI
)

func init() {
	var err error
	routerABI, err = abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		panic("chain: invalid router ABI: " + err.Error())
	}
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("chain: invalid erc20 ABI: " + err.Error())
	}
}

// swapRequestParametersMismatchSelector is the 4-byte selector for the
// router's SwapRequestParametersMismatch() custom error, decoded from
// revert data per spec.md §7.
const swapRequestParametersMismatchSelector = "0xc4fec7e0"
