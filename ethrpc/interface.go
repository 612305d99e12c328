package ethrpc

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// JSON-RPC methods used to build and submit transactions:
//
// net_version
// eth_chainId
// eth_accounts
// eth_blockNumber
// eth_gasPrice
// eth_estimateGas
// eth_getBalance
// eth_getTransactionCount
// eth_sendTransaction
// eth_sendRawTransaction
// eth_getTransactionReceipt

type Interface interface {
	// Do executes calls, batched into one request unless batching is disabled
	Do(ctx context.Context, calls ...Call) error

	// ChainID = eth_chainId
	ChainID(ctx context.Context) (*big.Int, error)

	// BlockNumber = eth_blockNumber
	BlockNumber(ctx context.Context) (uint64, error)

	// Accounts = eth_accounts
	Accounts(ctx context.Context) ([]common.Address, error)

	// NetworkVersion = net_version
	NetworkVersion(ctx context.Context) (string, error)

	// NetworkID = net_version, parsed
	NetworkID(ctx context.Context) (*big.Int, error)

	// BalanceAt = eth_getBalance
	BalanceAt(ctx context.Context, account common.Address, blockNum *big.Int) (*big.Int, error)

	// NonceAt = eth_getTransactionCount
	NonceAt(ctx context.Context, account common.Address, blockNum *big.Int) (uint64, error)

	// PendingNonceAt = eth_getTransactionCount ("pending")
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SuggestGasPrice = eth_gasPrice
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// EstimateGas = eth_estimateGas
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	// TransactionReceipt = eth_getTransactionReceipt
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// SendTransactionArgs = eth_sendTransaction
	SendTransactionArgs(ctx context.Context, args *TransactionArgs) (common.Hash, error)

	// SendRawTransaction = eth_sendRawTransaction
	SendRawTransaction(ctx context.Context, signedTxHex string) (common.Hash, error)

	// WaitForConfirmations polls eth_getTransactionReceipt and eth_blockNumber
	WaitForConfirmations(ctx context.Context, txHash common.Hash, pollInterval time.Duration, confirmations int) (*types.Receipt, error)

	// ..
	SendTransactionArgsAndConfirm(ctx context.Context, args *TransactionArgs, pollInterval time.Duration, confirmations int) (*types.Receipt, error)

	// ..
	SendRawTransactionAndConfirm(ctx context.Context, signedTxHex string, pollInterval time.Duration, confirmations int) (*types.Receipt, error)
}

var _ Interface = (*Provider)(nil)
