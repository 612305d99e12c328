// Package ethtest provides an in-process JSONRPC node and fixtures for testing
// code that talks to an Ethereum node.
package ethtest

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

func ETHValue(ether float64) *big.Int {
	x := big.NewInt(10)
	x.Exp(x, big.NewInt(15), nil)
	n := big.NewInt(int64(ether * 1000))
	return n.Mul(n, x)
}

func GWEI(gwei int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(gwei), big.NewInt(1_000_000_000))
}

// DummyPrivateKey returns a deterministic private key in hex for seed.
func DummyPrivateKey(seed uint64) string {
	return fmt.Sprintf("%064x", seed)
}

// DummyKey returns the deterministic ECDSA key for seed.
func DummyKey(seed uint64) *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(DummyPrivateKey(seed))
	if err != nil {
		panic(err)
	}
	return key
}

// DummyAddr returns the address of DummyKey(seed).
func DummyAddr(seed uint64) common.Address {
	return crypto.PubkeyToAddress(DummyKey(seed).PublicKey)
}

// NewReceipt returns a successful receipt for txHash mined in blockNum, in the
// shape returned by eth_getTransactionReceipt.
func NewReceipt(txHash common.Hash, blockNum uint64) *types.Receipt {
	return &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 21000,
		GasUsed:           21000,
		Logs:              []*types.Log{},
		TxHash:            txHash,
		BlockHash:         common.BigToHash(new(big.Int).SetUint64(blockNum)),
		BlockNumber:       new(big.Int).SetUint64(blockNum),
		EffectiveGasPrice: big.NewInt(1),
	}
}
