// Package ethtxn builds, signs and submits transactions to a contract or
// account through a JSON-RPC node. Parameters the caller leaves unset are
// fetched from the node, all in one round trip, right before the send.
package ethtxn

import (
	"context"
	"math/big"
	"time"

	"github.com/0xsequence/ethtxkit/ethrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// Backend is the node a Builder talks to. *ethrpc.Provider implements it.
type Backend interface {
	Do(ctx context.Context, calls ...ethrpc.Call) error
	SendTransactionArgsAndConfirm(ctx context.Context, args *ethrpc.TransactionArgs, pollInterval time.Duration, confirmations int) (*types.Receipt, error)
	SendRawTransactionAndConfirm(ctx context.Context, signedTxHex string, pollInterval time.Duration, confirmations int) (*types.Receipt, error)
}

var _ Backend = (*ethrpc.Provider)(nil)

// Builder collects the parameters of one transaction. It is a value: each
// setter returns an updated copy, so a Builder can be shared and specialized
// without the copies affecting each other. Nothing touches the network until an
// Execution is awaited.
type Builder struct {
	backend Backend
	log     zerolog.Logger

	to   common.Address
	data []byte
	sign SignStrategy

	gas      *uint64
	gasPrice *big.Int
	value    *big.Int
	nonce    *uint64
}

// New returns a Builder for a call of data on the contract or account to.
func New(backend Backend, to common.Address, data []byte) Builder {
	return Builder{
		backend: backend,
		log:     zerolog.Nop(),
		to:      to,
		data:    common.CopyBytes(data),
	}
}

// Gas sets the gas limit. When unset the node estimates it, or fills it in
// itself when it signs.
func (b Builder) Gas(gas uint64) Builder {
	b.gas = &gas
	return b
}

// GasPrice sets the gas price in wei. When unset it is taken from eth_gasPrice
// or left to the signing node.
func (b Builder) GasPrice(gasPrice *big.Int) Builder {
	b.gasPrice = copyBig(gasPrice)
	return b
}

// Value sets the amount of wei sent with the transaction. Defaults to zero.
func (b Builder) Value(value *big.Int) Builder {
	b.value = copyBig(value)
	return b
}

// Nonce sets the sender nonce. When unset the latest transaction count of the
// sender is used, or the signing node picks it.
func (b Builder) Nonce(nonce uint64) Builder {
	b.nonce = &nonce
	return b
}

// Sign sets the signing strategy. A nil strategy means DefaultAccount.
func (b Builder) Sign(sign SignStrategy) Builder {
	b.sign = sign
	return b
}

// Logger sets the logger for debug output of the executions. Defaults to a
// disabled logger.
func (b Builder) Logger(log zerolog.Logger) Builder {
	b.log = log
	return b
}

// Prepare resolves the transaction without sending it.
func (b Builder) Prepare(ctx context.Context) (Request, error) {
	return newPreparer(b).prepare(ctx, b.backend)
}

// Submit returns an Execution that sends the transaction and yields its hash.
func (b Builder) Submit() *Execution[common.Hash] {
	return newExecution[common.Hash](b, sendTransaction)
}

// SubmitAndConfirm returns an Execution that sends the transaction and yields
// its receipt once `confirmations` blocks have been mined on top of it, polling
// every pollInterval. With zero confirmations the receipt is returned as soon
// as the transaction is included.
func (b Builder) SubmitAndConfirm(pollInterval time.Duration, confirmations int) *Execution[*types.Receipt] {
	return newExecution(b, sendTransactionAndConfirm(pollInterval, confirmations))
}

func (b Builder) txArgs(from common.Address) *ethrpc.TransactionArgs {
	to := b.to
	return ethrpc.NewTransactionArgs(from, &to, b.gas, b.gasPrice, b.value, b.nonce, b.data)
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
