// Package chain binds a single chain ID to a single RPC endpoint and the
// solver's wallet. It is the only package that speaks go-ethereum: block
// subscription, state snapshotting, and transaction submission all live
// here behind the Client interface, per spec.md §4.1.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onlyswaps/solver/internal/model"
)

// BlockEvent is one tuple from a chain's block-subscription stream.
// Streams are monotonic and gap-free from the block observed at
// subscription start (spec.md §4.1).
type BlockEvent struct {
	ChainID uint64
	Number  uint64
}

// Signer produces transaction options for a wallet shared across every
// configured chain. It is a narrow interface so this package does not
// depend on how the private key is held.
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// Client is the Chain Client contract: bind one chain ID to one endpoint
// and the solver's wallet, and expose block events, state snapshots, and
// the two transactions the executor issues.
type Client interface {
	ChainID() uint64

	// WalletAddress returns the solver's address on this chain, the
	// "solver" argument to relayTokens.
	WalletAddress() common.Address

	// RouterAddress returns this chain's configured router contract, the
	// spender for Approve and the target for Relay.
	RouterAddress() common.Address

	// HasToken reports whether token is one of this chain's configured
	// tokens. The executor uses it to abort a trade whose tokenOut does
	// not match any configured token on the destination chain.
	HasToken(token common.Address) bool

	// Subscribe returns a lazy, infinite, non-restartable stream of block
	// events. Closing ctx stops the stream and closes the channel.
	Subscribe(ctx context.Context) (<-chan BlockEvent, error)

	// FetchState assembles one ChainState per the five-step contract in
	// spec.md §4.1. Partial results are acceptable; it only errors when
	// no balances are retrievable at all.
	FetchState(ctx context.Context) (*model.ChainState, error)

	// GetSwapRequestParameters reads the router's stored parameter set
	// for requestID. ok is false when the router has no verified record
	// (zero srcChainId or zero sender).
	GetSwapRequestParameters(ctx context.Context, requestID [32]byte) (params model.SwapRequestParameters, ok bool, err error)

	// Approve submits token.approve(spender, amount) and waits for one
	// confirmation.
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*types.Receipt, error)

	// Relay submits router.relayTokens(...) and waits for one
	// confirmation.
	Relay(ctx context.Context, req RelayParams) (*types.Receipt, error)

	// Close releases the underlying transport.
	Close()
}

// RelayParams is the relayTokens call's argument tuple, named for
// readability at call sites (spec.md §4.1's Relay input contract).
type RelayParams struct {
	Solver     common.Address
	RequestID  [32]byte
	Sender     common.Address
	Recipient  common.Address
	TokenIn    common.Address
	TokenOut   common.Address
	AmountOut  *big.Int
	SrcChainID uint64
	Nonce      *big.Int
}
