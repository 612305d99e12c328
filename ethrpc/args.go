package ethrpc

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransactionArgs is the eth_sendTransaction payload. Nil fields are omitted so
// the node picks its own defaults for them.
type TransactionArgs struct {
	From      common.Address        `json:"from"`
	To        *common.Address       `json:"to,omitempty"`
	Gas       *hexutil.Uint64       `json:"gas,omitempty"`
	GasPrice  *hexutil.Big          `json:"gasPrice,omitempty"`
	Value     *hexutil.Big          `json:"value,omitempty"`
	Data      hexutil.Bytes         `json:"data,omitempty"`
	Nonce     *hexutil.Uint64       `json:"nonce,omitempty"`
	Condition *TransactionCondition `json:"condition,omitempty"`
}

// TransactionCondition delays delivery of a node-signed transaction until a block
// number or a unix timestamp is reached. Only one of the fields should be set.
type TransactionCondition struct {
	Block     *uint64 `json:"block,omitempty"`
	Timestamp *uint64 `json:"time,omitempty"`
}

func BlockCondition(blockNum uint64) *TransactionCondition {
	return &TransactionCondition{Block: &blockNum}
}

func TimestampCondition(unixTime uint64) *TransactionCondition {
	return &TransactionCondition{Timestamp: &unixTime}
}

func hexUint64(v *uint64) *hexutil.Uint64 {
	if v == nil {
		return nil
	}
	h := hexutil.Uint64(*v)
	return &h
}

func hexBig(v *big.Int) *hexutil.Big {
	if v == nil {
		return nil
	}
	return (*hexutil.Big)(new(big.Int).Set(v))
}

// NewTransactionArgs builds eth_sendTransaction args from optional values.
func NewTransactionArgs(from common.Address, to *common.Address, gas *uint64, gasPrice, value *big.Int, nonce *uint64, data []byte) *TransactionArgs {
	return &TransactionArgs{
		From:     from,
		To:       to,
		Gas:      hexUint64(gas),
		GasPrice: hexBig(gasPrice),
		Value:    hexBig(value),
		Data:     data,
		Nonce:    hexUint64(nonce),
	}
}
