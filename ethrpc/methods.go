package ethrpc

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func ChainID() CallBuilder[*big.Int] {
	return CallBuilder[*big.Int]{
		method: "eth_chainId",
		intoFn: hexIntoBigUint64,
	}
}

func BlockNumber() CallBuilder[uint64] {
	return CallBuilder[uint64]{
		method: "eth_blockNumber",
		intoFn: hexIntoUint64,
	}
}

func Accounts() CallBuilder[[]common.Address] {
	return CallBuilder[[]common.Address]{
		method: "eth_accounts",
		intoFn: func(raw json.RawMessage, ret *[]common.Address) error {
			if isNull(raw) {
				*ret = nil
				return nil
			}
			return json.Unmarshal(raw, ret)
		},
	}
}

func BalanceAt(account common.Address, blockNum *big.Int) CallBuilder[*big.Int] {
	return CallBuilder[*big.Int]{
		method: "eth_getBalance",
		params: []any{account, toBlockNumArg(blockNum)},
		intoFn: hexIntoBigInt,
	}
}

// NonceAt returns the number of transactions sent from account as of blockNum,
// which is the next nonce for the account. A nil blockNum means "latest".
func NonceAt(account common.Address, blockNum *big.Int) CallBuilder[uint64] {
	return CallBuilder[uint64]{
		method: "eth_getTransactionCount",
		params: []any{account, toBlockNumArg(blockNum)},
		intoFn: hexIntoUint64,
	}
}

func PendingNonceAt(account common.Address) CallBuilder[uint64] {
	return CallBuilder[uint64]{
		method: "eth_getTransactionCount",
		params: []any{account, "pending"},
		intoFn: hexIntoUint64,
	}
}

func SuggestGasPrice() CallBuilder[*big.Int] {
	return CallBuilder[*big.Int]{
		method: "eth_gasPrice",
		intoFn: hexIntoBigInt,
	}
}

func EstimateGas(msg ethereum.CallMsg) CallBuilder[uint64] {
	return CallBuilder[uint64]{
		method: "eth_estimateGas",
		params: []any{toCallArg(msg)},
		intoFn: hexIntoUint64,
	}
}

// NetworkVersion returns the node's net_version exactly as reported. Most nodes
// report a base-10 integer, but the value is a free-form string on the wire.
func NetworkVersion() CallBuilder[string] {
	return NewCallBuilder[string]("net_version", nil)
}

func NetworkID() CallBuilder[*big.Int] {
	return CallBuilder[*big.Int]{
		method: "net_version",
		intoFn: func(raw json.RawMessage, ret **big.Int) error {
			var (
				verString string
				version   = &big.Int{}
			)
			if err := json.Unmarshal(raw, &verString); err != nil {
				return err
			}
			if _, ok := version.SetString(verString, 10); !ok {
				return fmt.Errorf("invalid net_version result: %q", verString)
			}
			*ret = version
			return nil
		},
	}
}

func TransactionReceipt(txHash common.Hash) CallBuilder[*types.Receipt] {
	return CallBuilder[*types.Receipt]{
		method: "eth_getTransactionReceipt",
		params: []any{txHash},
		intoFn: func(raw json.RawMessage, receipt **types.Receipt) error {
			if isNull(raw) {
				*receipt = nil
				return nil
			}
			return json.Unmarshal(raw, receipt)
		},
	}
}

// SendTransactionArgs submits an unsigned transaction for the node to sign with
// one of its own accounts (eth_sendTransaction).
func SendTransactionArgs(args *TransactionArgs) CallBuilder[common.Hash] {
	if args == nil {
		return CallBuilder[common.Hash]{method: "eth_sendTransaction", err: fmt.Errorf("ethrpc: transaction args are required")}
	}
	return CallBuilder[common.Hash]{
		method: "eth_sendTransaction",
		params: []any{args},
		intoFn: hexIntoHash,
	}
}

func SendRawTransaction(signedTxHex string) CallBuilder[common.Hash] {
	return CallBuilder[common.Hash]{
		method: "eth_sendRawTransaction",
		params: []any{signedTxHex},
		intoFn: hexIntoHash,
	}
}
