package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/onlyswaps/solver/internal/model"
)

// ethereumCallMsg builds the CallMsg EstimateGas needs for a gas-limit
// buffer estimate.
func ethereumCallMsg(from, to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{From: from, To: &to, Data: data}
}

// EVMClient is the Client implementation for any EVM-compatible chain
// reachable over an http(s):// or ws(s):// JSON-RPC endpoint.
type EVMClient struct {
	chainID        uint64
	rpcURL         string
	routerAddr     common.Address
	tokenAddrs     []common.Address
	signer         Signer
	logger         log.Logger
	gasBufferPct   int // tx_gas_buffer, default 120
	priceBufferPct int // tx_gas_price_buffer, default 100

	mu     sync.Mutex
	client *ethclient.Client
}

// NewEVMClient dials rpcURL and returns a ready Client for chainID.
func NewEVMClient(ctx context.Context, chainID uint64, rpcURL string, routerAddr common.Address, tokenAddrs []common.Address, signer Signer, gasBufferPct, priceBufferPct int, logger log.Logger) (*EVMClient, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	if gasBufferPct == 0 {
		gasBufferPct = 120
	}
	if priceBufferPct == 0 {
		priceBufferPct = 100
	}
	return &EVMClient{
		chainID:        chainID,
		rpcURL:         rpcURL,
		routerAddr:     routerAddr,
		tokenAddrs:     tokenAddrs,
		signer:         signer,
		logger:         logger.New("chainId", chainID),
		gasBufferPct:   gasBufferPct,
		priceBufferPct: priceBufferPct,
		client:         c,
	}, nil
}

func (c *EVMClient) ChainID() uint64 { return c.chainID }

func (c *EVMClient) WalletAddress() common.Address { return c.signer.Address() }

func (c *EVMClient) RouterAddress() common.Address { return c.routerAddr }

func (c *EVMClient) HasToken(token common.Address) bool {
	for _, t := range c.tokenAddrs {
		if t == token {
			return true
		}
	}
	return false
}

func (c *EVMClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
	}
}

// Subscribe starts the combined push/poll block stream described in
// subscribe.go and returns the channel it feeds.
func (c *EVMClient) Subscribe(ctx context.Context) (<-chan BlockEvent, error) {
	out := make(chan BlockEvent)
	go runSubscription(ctx, c.chainID, headSource{client: c.client, logger: c.logger}, out)
	return out, nil
}

// FetchState implements the five-step contract in spec.md §4.1.
func (c *EVMClient) FetchState(ctx context.Context) (*model.ChainState, error) {
	state := model.NewChainState()

	nativeBal, nativeErr := c.client.BalanceAt(ctx, c.signer.Address(), nil)
	if nativeErr != nil {
		c.logger.Warn("native balance read failed, snapshot keeps it at zero", "err", nativeErr)
	} else {
		state.NativeBalance = nativeBal
	}

	if len(c.tokenAddrs) > 0 {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, token := range c.tokenAddrs {
			token := token
			g.Go(func() error {
				bal, err := c.tokenBalance(gctx, token, c.signer.Address())
				if err != nil {
					c.logger.Warn("balanceOf failed, omitting token from snapshot", "token", token, "err", err)
					return nil
				}
				mu.Lock()
				state.TokenBalances[token] = bal
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	if nativeErr != nil && len(state.TokenBalances) == 0 {
		return nil, fmt.Errorf("chain %d: no balances retrievable: %w", c.chainID, nativeErr)
	}

	fulfilled, err := c.getFulfilledTransfers(ctx)
	if err != nil {
		c.logger.Warn("getFulfilledTransfers failed, proceeding with empty set", "err", err)
	}
	for _, id := range fulfilled {
		state.AlreadyFulfilled[model.CanonicalRequestIDBytes(id)] = struct{}{}
	}

	refundIDs, err := c.getUnfulfilledSolverRefunds(ctx)
	if err != nil {
		c.logger.Warn("getUnfulfilledSolverRefunds failed, no transfers this tick", "err", err)
		return state, nil
	}

	for _, id := range refundIDs {
		params, err := c.fetchSwapRequestParameters(ctx, id)
		if err != nil {
			c.logger.Warn("getSwapRequestParameters failed, dropping transfer", "requestId", model.CanonicalRequestIDBytes(id), "err", err)
			continue
		}
		state.Transfers = append(state.Transfers, model.Transfer{
			RequestID: model.CanonicalRequestIDBytes(id),
			Params:    params,
		})
	}

	return state, nil
}

func (c *EVMClient) tokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	bc := bind.NewBoundContract(token, erc20ABI, c.client, c.client, c.client)
	var out []interface{}
	err := bc.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected return type %T", out[0])
	}
	return bal, nil
}

func (c *EVMClient) getFulfilledTransfers(ctx context.Context) ([][32]byte, error) {
	bc := bind.NewBoundContract(c.routerAddr, routerABI, c.client, c.client, c.client)
	var out []interface{}
	if err := bc.Call(&bind.CallOpts{Context: ctx}, &out, "getFulfilledTransfers"); err != nil {
		return nil, err
	}
	ids, ok := out[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("getFulfilledTransfers: unexpected return type %T", out[0])
	}
	return ids, nil
}

func (c *EVMClient) getUnfulfilledSolverRefunds(ctx context.Context) ([][32]byte, error) {
	bc := bind.NewBoundContract(c.routerAddr, routerABI, c.client, c.client, c.client)
	var out []interface{}
	if err := bc.Call(&bind.CallOpts{Context: ctx}, &out, "getUnfulfilledSolverRefunds"); err != nil {
		return nil, err
	}
	ids, ok := out[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("getUnfulfilledSolverRefunds: unexpected return type %T", out[0])
	}
	return ids, nil
}

// fetchSwapRequestParameters implements the named-struct/positional
// fallback decode described in spec.md §4.1 and §9.
func (c *EVMClient) fetchSwapRequestParameters(ctx context.Context, requestID [32]byte) (model.SwapRequestParameters, error) {
	bc := bind.NewBoundContract(c.routerAddr, routerABI, c.client, c.client, c.client)

	var named []interface{}
	if err := bc.Call(&bind.CallOpts{Context: ctx}, &named, "getSwapRequestParameters", requestID); err != nil {
		named = nil
	}

	params, err := decodeSwapRequestParameters(c.logger, named, nil)
	if err == nil {
		return params, nil
	}

	var rawOut []interface{}
	if rawErr := bc.Call(&bind.CallOpts{Context: ctx}, &rawOut, "getSwapRequestParametersRaw", requestID); rawErr != nil {
		return model.SwapRequestParameters{}, fmt.Errorf("both named and positional decode unavailable: %w", err)
	}
	raw := make([]*big.Int, 0, len(rawOut))
	for _, v := range rawOut {
		bi, ok := v.(*big.Int)
		if !ok {
			return model.SwapRequestParameters{}, fmt.Errorf("positional field has unexpected type %T", v)
		}
		raw = append(raw, bi)
	}
	return decodeSwapRequestParameters(c.logger, named, raw)
}

// GetSwapRequestParameters reads the destination router's verified
// record for requestID, per spec.md's reconciliation rule: ok is false
// when the stored record has a zero srcChainId or a zero sender.
func (c *EVMClient) GetSwapRequestParameters(ctx context.Context, requestID [32]byte) (model.SwapRequestParameters, bool, error) {
	params, err := c.fetchSwapRequestParameters(ctx, requestID)
	if err != nil {
		return model.SwapRequestParameters{}, false, err
	}
	verified := params.SrcChainID != nil && params.SrcChainID.Sign() != 0 &&
		params.Sender != (common.Address{})
	return params, verified, nil
}

// applyGasBuffers scales the transactor's suggested gas tip/fee caps by
// tx_gas_price_buffer. bind.BoundContract.Transact leaves opts.GasLimit
// at zero here; estimateAndBufferGasLimit below fills it in scaled by
// tx_gas_buffer before each call.
func (c *EVMClient) applyGasBuffers(ctx context.Context, opts *bind.TransactOpts) {
	if c.priceBufferPct == 100 {
		return
	}
	tip, err := c.client.SuggestGasTipCap(ctx)
	if err != nil {
		return
	}
	feeCap, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return
	}
	opts.GasTipCap = scaleByPercent(tip, c.priceBufferPct)
	opts.GasFeeCap = scaleByPercent(feeCap, c.priceBufferPct)
}

// estimateAndBufferGasLimit estimates gas for a call to `to` with the
// given ABI-encoded data and sets opts.GasLimit to that estimate scaled
// by tx_gas_buffer (default 120%). If estimation fails, GasLimit is left
// at zero so bind falls back to its own estimate.
func (c *EVMClient) estimateAndBufferGasLimit(ctx context.Context, opts *bind.TransactOpts, to common.Address, data []byte) {
	msg := ethereumCallMsg(c.signer.Address(), to, data)
	est, err := c.client.EstimateGas(ctx, msg)
	if err != nil {
		return
	}
	opts.GasLimit = est * uint64(c.gasBufferPct) / 100
}

func scaleByPercent(v *big.Int, pct int) *big.Int {
	scaled := new(big.Int).Mul(v, big.NewInt(int64(pct)))
	return scaled.Div(scaled, big.NewInt(100))
}

func (c *EVMClient) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	opts, err := c.signer.TransactOpts(ctx, new(big.Int).SetUint64(c.chainID))
	if err != nil {
		return nil, fmt.Errorf("chain %d: approve: build tx opts: %w", c.chainID, err)
	}
	c.applyGasBuffers(ctx, opts)
	if data, packErr := erc20ABI.Pack("approve", spender, amount); packErr == nil {
		c.estimateAndBufferGasLimit(ctx, opts, token, data)
	}
	bc := bind.NewBoundContract(token, erc20ABI, c.client, c.client, c.client)
	tx, err := bc.Transact(opts, "approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("chain %d: approve %s: %w", c.chainID, strings.ToLower(token.Hex()), err)
	}
	return c.waitMined(ctx, tx)
}

func (c *EVMClient) Relay(ctx context.Context, req RelayParams) (*types.Receipt, error) {
	opts, err := c.signer.TransactOpts(ctx, new(big.Int).SetUint64(c.chainID))
	if err != nil {
		return nil, fmt.Errorf("chain %d: relay: build tx opts: %w", c.chainID, err)
	}
	c.applyGasBuffers(ctx, opts)
	srcChainID := new(big.Int).SetUint64(req.SrcChainID)
	if data, packErr := routerABI.Pack("relayTokens", req.Solver, req.RequestID, req.Sender, req.Recipient,
		req.TokenIn, req.TokenOut, req.AmountOut, srcChainID, req.Nonce); packErr == nil {
		c.estimateAndBufferGasLimit(ctx, opts, c.routerAddr, data)
	}
	bc := bind.NewBoundContract(c.routerAddr, routerABI, c.client, c.client, c.client)
	tx, err := bc.Transact(opts, "relayTokens",
		req.Solver, req.RequestID, req.Sender, req.Recipient,
		req.TokenIn, req.TokenOut, req.AmountOut,
		srcChainID, req.Nonce,
	)
	if err != nil {
		return nil, &RevertError{Cause: err}
	}
	return c.waitMined(ctx, tx)
}

func (c *EVMClient) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, fmt.Errorf("chain %d: wait mined %s: %w", c.chainID, tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &RevertError{Cause: fmt.Errorf("tx %s reverted", tx.Hash())}
	}
	return receipt, nil
}

// approveSettleDelay is the sleep between a successful approve and the
// relay call, to let the ERC-20 allowance settle (spec.md §4.5 step 5).
const approveSettleDelay = 500 * time.Millisecond
