package ethwallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrNoPrivateKey = errors.New("ethwallet: private key is required")
	ErrNoChainID    = errors.New("ethwallet: chain id is required")
)

// Wallet is a single externally-owned account backed by a private key held in
// memory.
type Wallet struct {
	hdnode     *HDNode
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewWalletFromPrivateKey parses a hex encoded secp256k1 private key, with or
// without the 0x prefix.
func NewWalletFromPrivateKey(key string) (*Wallet, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "0x")
	if key == "" {
		return nil, ErrNoPrivateKey
	}
	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("ethwallet: failed to parse private key: %w", err)
	}
	return NewWalletFromECDSA(privateKey)
}

func NewWalletFromECDSA(privateKey *ecdsa.PrivateKey) (*Wallet, error) {
	if privateKey == nil {
		return nil, ErrNoPrivateKey
	}
	return &Wallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// NewWalletFromMnemonic derives the account at path (DefaultBaseDerivationPath
// when empty) from a BIP-39 mnemonic.
func NewWalletFromMnemonic(mnemonic string, path ...string) (*Wallet, error) {
	hdnode, err := NewHDNodeFromMnemonic(mnemonic, nil)
	if err != nil {
		return nil, err
	}
	if len(path) > 0 && path[0] != "" {
		if err := hdnode.DerivePathFromString(path[0]); err != nil {
			return nil, err
		}
	}
	return &Wallet{
		hdnode:     hdnode,
		privateKey: hdnode.PrivateKey(),
		address:    hdnode.Address(),
	}, nil
}

func (w *Wallet) Address() common.Address {
	return w.address
}

func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// HDNode returns the HD node the wallet was derived from, or nil when the wallet
// was created from a raw key.
func (w *Wallet) HDNode() *HDNode {
	return w.hdnode
}

func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return SignTx(w.privateKey, tx, chainID)
}

// SignTx signs tx with key using EIP-155 replay protection for chainID.
// Signatures are deterministic (RFC 6979), so signing the same transaction
// twice yields identical bytes.
func SignTx(key *ecdsa.PrivateKey, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if key == nil {
		return nil, ErrNoPrivateKey
	}
	if chainID == nil {
		return nil, ErrNoChainID
	}
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("ethwallet: %w", err)
	}
	return signedTx, nil
}
