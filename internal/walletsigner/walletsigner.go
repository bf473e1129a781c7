// Package walletsigner wraps a single ECDSA private key shared across
// every configured chain and produces the go-ethereum transact options
// each Chain Client needs to submit approve/relay transactions.
package walletsigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the solver's wallet key. The same Signer instance is
// shared by every chain.Client; it is effectively single-threaded per
// chain because the executor only ever submits one trade at a time.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// New parses a hex-encoded private key, accepted with or without a 0x
// prefix (spec.md §6's CLI contract).
func New(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("walletsigner: invalid private key: %w", err)
	}
	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("walletsigner: unexpected public key type")
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(*pub),
	}, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() common.Address {
	return s.address
}

// TransactOpts builds per-chain transact options using EIP-1559 dynamic
// fee transactions, matching the on-chain router's expected tx type.
func (s *Signer) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("walletsigner: build transactor for chain %s: %w", chainID, err)
	}
	opts.Context = ctx
	return opts, nil
}
