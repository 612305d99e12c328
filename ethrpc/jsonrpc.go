package ethrpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/0xsequence/ethtxkit/ethrpc/jsonrpc"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Call is a single JSONRPC request paired with the destination of its result.
// Calls are created from a CallBuilder and executed with Provider.Do.
type Call struct {
	request  jsonrpc.Message
	response *jsonrpc.Message
	resultFn func(message json.RawMessage) error
	err      error
}

// Method returns the JSONRPC method name of the call.
func (c *Call) Method() string {
	return c.request.Method
}

func (c *Call) Error() string {
	if c == nil || c.err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", c.request.Method, c.err.Error())
}

func (c *Call) Unwrap() error {
	return c.err
}

type IntoFn[T any] func(raw json.RawMessage, ret *T) error

type CallBuilder[T any] struct {
	err    error
	method string
	params []any
	intoFn IntoFn[T]
}

func NewCallBuilder[T any](method string, intoFn IntoFn[T], params ...any) CallBuilder[T] {
	return CallBuilder[T]{
		method: method,
		params: params,
		intoFn: intoFn,
	}
}

// Method returns the JSONRPC method the builder will call.
func (b CallBuilder[T]) Method() string {
	return b.method
}

func (b CallBuilder[T]) Into(ret *T) Call {
	if b.err != nil {
		return Call{err: b.err, request: jsonrpc.NewRequest(0, b.method, nil)}
	}
	return Call{
		request: jsonrpc.NewRequest(0, b.method, b.params),
		resultFn: func(message json.RawMessage) error {
			if ret == nil {
				return nil
			}
			if b.intoFn != nil {
				return b.intoFn(message, ret)
			}
			return json.Unmarshal(message, ret)
		},
	}
}

var Pending = big.NewInt(-1)

func toBlockNumArg(blockNum *big.Int) string {
	if blockNum == nil {
		return "latest"
	}
	if blockNum.Cmp(Pending) == 0 {
		return "pending"
	}
	return hexutil.EncodeBig(blockNum)
}

func toCallArg(msg ethereum.CallMsg) any {
	arg := map[string]any{
		"from": msg.From,
		"to":   msg.To,
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	return arg
}

func isNull(message json.RawMessage) bool {
	return len(message) == 0 || strings.TrimSpace(string(message)) == "null"
}

func hexIntoBigInt(message json.RawMessage, ret **big.Int) error {
	var result hexutil.Big
	if err := json.Unmarshal(message, &result); err != nil {
		return err
	}
	*ret = (*big.Int)(&result)
	return nil
}

func hexIntoUint64(message json.RawMessage, ret *uint64) error {
	if isNull(message) {
		*ret = 0
		return nil
	}

	var result hexutil.Uint64
	if err := json.Unmarshal(message, &result); err != nil {
		return err
	}
	*ret = uint64(result)
	return nil
}

func hexIntoBigUint64(message json.RawMessage, ret **big.Int) error {
	var result hexutil.Uint64
	if err := json.Unmarshal(message, &result); err != nil {
		return err
	}
	*ret = new(big.Int).SetUint64(uint64(result))
	return nil
}

func hexIntoHash(message json.RawMessage, ret *common.Hash) error {
	var result common.Hash
	if err := json.Unmarshal(message, &result); err != nil {
		return err
	}
	*ret = result
	return nil
}
