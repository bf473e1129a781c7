package executor

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyswaps/solver/internal/chain"
	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/model"
)

// fakeClient is a hand-rolled stand-in for chain.Client, in the
// call-counting mock style the teacher repo uses for its RPC fakes.
type fakeClient struct {
	chainID    uint64
	router     common.Address
	wallet     common.Address
	tokens     map[common.Address]bool
	verified   map[[32]byte]model.SwapRequestParameters
	verifiedOK map[[32]byte]bool

	approveCalls []struct {
		token, spender common.Address
		amount         *big.Int
	}
	relayCalls []chain.RelayParams

	approveErr error
	relayErr   error
	paramsErr  error
}

func newFakeClient(chainID uint64) *fakeClient {
	return &fakeClient{
		chainID:    chainID,
		tokens:     make(map[common.Address]bool),
		verified:   make(map[[32]byte]model.SwapRequestParameters),
		verifiedOK: make(map[[32]byte]bool),
	}
}

func (f *fakeClient) ChainID() uint64                    { return f.chainID }
func (f *fakeClient) WalletAddress() common.Address      { return f.wallet }
func (f *fakeClient) RouterAddress() common.Address      { return f.router }
func (f *fakeClient) HasToken(t common.Address) bool     { return f.tokens[t] }
func (f *fakeClient) Close()                             {}
func (f *fakeClient) Subscribe(ctx context.Context) (<-chan chain.BlockEvent, error) {
	return nil, fmt.Errorf("not implemented")
}
func (f *fakeClient) FetchState(ctx context.Context) (*model.ChainState, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeClient) GetSwapRequestParameters(ctx context.Context, requestID [32]byte) (model.SwapRequestParameters, bool, error) {
	if f.paramsErr != nil {
		return model.SwapRequestParameters{}, false, f.paramsErr
	}
	return f.verified[requestID], f.verifiedOK[requestID], nil
}

func (f *fakeClient) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	f.approveCalls = append(f.approveCalls, struct {
		token, spender common.Address
		amount         *big.Int
	}{token, spender, amount})
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (f *fakeClient) Relay(ctx context.Context, req chain.RelayParams) (*types.Receipt, error) {
	f.relayCalls = append(f.relayCalls, req)
	if f.relayErr != nil {
		return nil, f.relayErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

var _ chain.Client = (*fakeClient)(nil)

func tradeFixture(requestID string, destChainID uint64, token common.Address) model.Trade {
	return model.Trade{
		RequestID:     model.CanonicalRequestID(requestID),
		Nonce:         big.NewInt(1),
		TokenInAddr:   common.HexToAddress("0xaa"),
		TokenOutAddr:  token,
		SrcChainID:    31337,
		DestChainID:   destChainID,
		SenderAddr:    common.HexToAddress("0x1"),
		RecipientAddr: common.HexToAddress("0x2"),
		SwapAmount:    big.NewInt(1_000_000_000_000_000_000),
	}
}

func TestExecutorHappyPathApprovesThenRelays(t *testing.T) {
	token := common.HexToAddress("0xT")
	dest := newFakeClient(31338)
	dest.router = common.HexToAddress("0xR")
	dest.tokens[token] = true

	trade := tradeFixture("0xab01", 31338, token)
	cache := inflight.New()

	e := &Executor{}
	e.Execute(context.Background(), []model.Trade{trade}, map[uint64]chain.Client{31338: dest}, cache)

	require.Len(t, dest.approveCalls, 1)
	assert.Equal(t, token, dest.approveCalls[0].token)
	assert.Equal(t, dest.router, dest.approveCalls[0].spender)
	require.Len(t, dest.relayCalls, 1)
	assert.Equal(t, trade.SwapAmount, dest.relayCalls[0].AmountOut)
	assert.True(t, cache.Has(trade.RequestID), "entry remains in cache after success until TTL expires")
}

func TestExecutorSkipsWhenAlreadyInFlight(t *testing.T) {
	token := common.HexToAddress("0xT")
	dest := newFakeClient(31338)
	dest.tokens[token] = true
	trade := tradeFixture("0xab01", 31338, token)

	cache := inflight.New()
	cache.Set(trade.RequestID, 0)

	e := &Executor{}
	e.Execute(context.Background(), []model.Trade{trade}, map[uint64]chain.Client{31338: dest}, cache)

	assert.Empty(t, dest.approveCalls)
	assert.Empty(t, dest.relayCalls)
}

func TestExecutorAbortsOnUnconfiguredToken(t *testing.T) {
	token := common.HexToAddress("0xT")
	dest := newFakeClient(31338) // token not registered
	trade := tradeFixture("0xab01", 31338, token)

	cache := inflight.New()
	e := &Executor{}
	e.Execute(context.Background(), []model.Trade{trade}, map[uint64]chain.Client{31338: dest}, cache)

	assert.Empty(t, dest.approveCalls)
	assert.False(t, cache.Has(trade.RequestID), "failed trade is removed from in-flight so a later tick can retry")
}

func TestExecutorRelayFailureDeletesInFlightEntry(t *testing.T) {
	token := common.HexToAddress("0xT")
	dest := newFakeClient(31338)
	dest.tokens[token] = true
	dest.relayErr = &chain.RevertError{Cause: fmt.Errorf("reverted: 0xc4fec7e0")}

	trade := tradeFixture("0xab01", 31338, token)
	cache := inflight.New()

	e := &Executor{}
	e.Execute(context.Background(), []model.Trade{trade}, map[uint64]chain.Client{31338: dest}, cache)

	require.Len(t, dest.approveCalls, 1, "approve happens once before relay is attempted")
	assert.False(t, cache.Has(trade.RequestID))
}

func TestExecutorReconciliationOverridesTradeValues(t *testing.T) {
	token := common.HexToAddress("0xT")
	verifiedToken := common.HexToAddress("0x0b")
	dest := newFakeClient(31338)
	dest.tokens[token] = true
	dest.tokens[verifiedToken] = true

	trade := tradeFixture("0xab01", 31338, token)
	reqIDBytes, err := requestIDToBytes32(trade.RequestID)
	require.NoError(t, err)

	dest.verified[reqIDBytes] = model.SwapRequestParameters{
		SrcChainID: big.NewInt(31337),
		Sender:     common.HexToAddress("0x9"),
		Recipient:  common.HexToAddress("0x8"),
		TokenIn:    common.HexToAddress("0x7"),
		TokenOut:   verifiedToken,
		AmountOut:  big.NewInt(2_000_000_000_000_000_000),
		Nonce:      big.NewInt(42),
	}
	dest.verifiedOK[reqIDBytes] = true

	cache := inflight.New()
	e := &Executor{}
	e.Execute(context.Background(), []model.Trade{trade}, map[uint64]chain.Client{31338: dest}, cache)

	require.Len(t, dest.relayCalls, 1)
	assert.Equal(t, verifiedToken, dest.relayCalls[0].TokenOut)
	assert.Equal(t, big.NewInt(2_000_000_000_000_000_000), dest.relayCalls[0].AmountOut)
	assert.Equal(t, big.NewInt(42), dest.relayCalls[0].Nonce)
}

func TestExecutorUnknownDestinationChainAborts(t *testing.T) {
	token := common.HexToAddress("0xT")
	trade := tradeFixture("0xab01", 99999, token)
	cache := inflight.New()

	e := &Executor{}
	e.Execute(context.Background(), []model.Trade{trade}, map[uint64]chain.Client{}, cache)

	assert.False(t, cache.Has(trade.RequestID))
}
