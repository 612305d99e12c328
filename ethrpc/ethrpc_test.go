package ethrpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xsequence/ethtxkit/ethrpc"
	"github.com/0xsequence/ethtxkit/ethrpc/jsonrpc"
	"github.com/0xsequence/ethtxkit/ethtest"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, opts ...ethrpc.Option) (*ethtest.Node, *ethrpc.Provider) {
	t.Helper()
	node := ethtest.NewNode()
	t.Cleanup(node.Close)

	p, err := ethrpc.NewProvider(node.URL(), opts...)
	require.NoError(t, err)
	return node, p
}

func TestETHRPC(t *testing.T) {
	t.Run("Single", func(t *testing.T) {
		node, p := newTestProvider(t)
		node.Result("eth_chainId", "0x89")

		chainID, err := p.ChainID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(137), chainID.Uint64())

		// memoized
		_, err = p.ChainID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, node.Calls("eth_chainId"))
	})

	t.Run("Batch", func(t *testing.T) {
		node, p := newTestProvider(t)
		node.Result("eth_chainId", "0x89")
		node.Result("eth_blockNumber", "0x24b0170")
		node.Result("eth_gasPrice", "0x3b9aca00")

		var (
			chainID     *big.Int
			blockNumber uint64
			gasPrice    *big.Int
		)
		err := p.Do(
			context.Background(),
			ethrpc.ChainID().Into(&chainID),
			ethrpc.BlockNumber().Into(&blockNumber),
			ethrpc.SuggestGasPrice().Into(&gasPrice),
		)
		require.NoError(t, err)
		assert.Equal(t, uint64(137), chainID.Uint64())
		assert.Equal(t, uint64(38470000), blockNumber)
		assert.Equal(t, int64(1_000_000_000), gasPrice.Int64())
		assert.Equal(t, 1, node.RoundTrips())
		assert.Equal(t, 3, node.TotalCalls())
	})

	t.Run("BatchError", func(t *testing.T) {
		node, p := newTestProvider(t)
		node.Result("eth_chainId", "0x89")
		node.Fail("eth_gasPrice", -32000, "boom")

		var (
			chainID  *big.Int
			gasPrice *big.Int
		)
		err := p.Do(context.Background(),
			ethrpc.ChainID().Into(&chainID),
			ethrpc.SuggestGasPrice().Into(&gasPrice),
		)
		require.Error(t, err)

		var batchErr ethrpc.BatchError
		require.True(t, errors.As(err, &batchErr))
		require.Len(t, batchErr, 1)
		require.Contains(t, batchErr, 1)
		assert.Equal(t, "eth_gasPrice", batchErr[1].Method())

		var rpcErr jsonrpc.Error
		require.True(t, errors.As(err, &rpcErr))
		assert.Equal(t, "boom", rpcErr.Message)

		// the successful call in the same batch is still delivered
		assert.Equal(t, uint64(137), chainID.Uint64())
	})

	t.Run("Empty", func(t *testing.T) {
		node, p := newTestProvider(t)
		require.NoError(t, p.Do(context.Background()))
		assert.Equal(t, 0, node.RoundTrips())
	})
}

func TestWithoutBatching(t *testing.T) {
	node, p := newTestProvider(t, ethrpc.WithoutBatching())
	node.Result("eth_chainId", "0x1")
	node.Result("net_version", "1")
	node.Result("eth_gasPrice", "0x2")

	var (
		chainID  *big.Int
		version  string
		gasPrice *big.Int
	)
	err := p.Do(context.Background(),
		ethrpc.ChainID().Into(&chainID),
		ethrpc.NetworkVersion().Into(&version),
		ethrpc.SuggestGasPrice().Into(&gasPrice),
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), chainID.Uint64())
	assert.Equal(t, "1", version)
	assert.Equal(t, int64(2), gasPrice.Int64())
	assert.Equal(t, 3, node.RoundTrips())

	t.Run("FirstFailure", func(t *testing.T) {
		node.Fail("net_version", -32601, "method not found")

		var version string
		err := p.Do(context.Background(),
			ethrpc.ChainID().Into(&chainID),
			ethrpc.NetworkVersion().Into(&version),
		)
		require.Error(t, err)

		var batchErr ethrpc.BatchError
		require.True(t, errors.As(err, &batchErr))
		require.Contains(t, batchErr, 1)
		assert.Equal(t, "net_version", batchErr[1].Method())
	})
}

func TestMethods(t *testing.T) {
	ctx := context.Background()
	node, p := newTestProvider(t)

	t.Run("Accounts", func(t *testing.T) {
		node.Result("eth_accounts", []string{"0x1111111111111111111111111111111111111111"})
		accounts, err := p.Accounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), accounts[0])

		node.Result("eth_accounts", []string{})
		accounts, err = p.Accounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("NetworkVersion", func(t *testing.T) {
		node.Result("net_version", "3")
		version, err := p.NetworkVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "3", version)

		id, err := p.NetworkID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), id.Int64())

		node.Result("net_version", "not-a-number")
		version, err = p.NetworkVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "not-a-number", version)

		_, err = p.NetworkID(ctx)
		require.Error(t, err)
	})

	t.Run("NonceAt", func(t *testing.T) {
		node.Result("eth_getTransactionCount", "0x5")
		nonce, err := p.NonceAt(ctx, common.HexToAddress("0x01"), nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), nonce)

		params := node.Params("eth_getTransactionCount")
		require.NotEmpty(t, params)
		assert.JSONEq(t, `"latest"`, string(params[len(params)-1][1]))
	})

	t.Run("EstimateGas", func(t *testing.T) {
		node.Result("eth_estimateGas", "0x5208")
		to := common.HexToAddress("0xabc")
		gas, err := p.EstimateGas(ctx, ethereum.CallMsg{
			From: common.HexToAddress("0x01"),
			To:   &to,
			Data: []byte{0xde, 0xad},
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(21000), gas)

		params := node.Params("eth_estimateGas")
		var arg map[string]any
		require.NoError(t, json.Unmarshal(params[0][0], &arg))
		assert.Equal(t, "0xdead", arg["data"])
		assert.NotContains(t, arg, "gas")
		assert.NotContains(t, arg, "gasPrice")
		assert.NotContains(t, arg, "value")
	})

	t.Run("ReceiptNotFound", func(t *testing.T) {
		node.Result("eth_getTransactionReceipt", nil)
		receipt, err := p.TransactionReceipt(ctx, common.HexToHash("0x01"))
		require.ErrorIs(t, err, ethrpc.ErrNotFound)
		assert.Nil(t, receipt)
	})

	t.Run("SendTransactionArgs", func(t *testing.T) {
		txHash := common.HexToHash("0xfeed")
		node.Result("eth_sendTransaction", txHash)

		to := common.HexToAddress("0xabc")
		args := ethrpc.NewTransactionArgs(common.HexToAddress("0x111"), &to, nil, nil, big.NewInt(7), nil, []byte{0x01})
		args.Condition = ethrpc.BlockCondition(100)

		hash, err := p.SendTransactionArgs(ctx, args)
		require.NoError(t, err)
		assert.Equal(t, txHash, hash)

		params := node.Params("eth_sendTransaction")
		require.Len(t, params, 1)
		var sent map[string]any
		require.NoError(t, json.Unmarshal(params[0][0], &sent))
		assert.Equal(t, "0x7", sent["value"])
		assert.Equal(t, "0x01", sent["data"])
		assert.Equal(t, map[string]any{"block": float64(100)}, sent["condition"])
		assert.NotContains(t, sent, "gas")
		assert.NotContains(t, sent, "gasPrice")
		assert.NotContains(t, sent, "nonce")
	})

	t.Run("SendRawTransaction", func(t *testing.T) {
		txHash := common.HexToHash("0xbeef")
		node.Result("eth_sendRawTransaction", txHash)

		hash, err := p.SendRawTransactionBytes(ctx, []byte{0xf8, 0x01})
		require.NoError(t, err)
		assert.Equal(t, txHash, hash)

		params := node.Params("eth_sendRawTransaction")
		assert.JSONEq(t, `"0xf801"`, string(params[len(params)-1][0]))
	})
}

func TestWaitForConfirmations(t *testing.T) {
	txHash := common.HexToHash("0xabcdef")

	t.Run("FirstInclusion", func(t *testing.T) {
		node, p := newTestProvider(t)

		var polls atomic.Int32
		node.Handle("eth_getTransactionReceipt", func([]json.RawMessage) (any, error) {
			if polls.Add(1) < 3 {
				return nil, nil
			}
			return ethtest.NewReceipt(txHash, 10), nil
		})

		receipt, err := p.WaitForConfirmations(context.Background(), txHash, 5*time.Millisecond, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), receipt.BlockNumber.Uint64())
		assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
		assert.Equal(t, 3, node.Calls("eth_getTransactionReceipt"))
		assert.Equal(t, 0, node.Calls("eth_blockNumber"))
	})

	t.Run("Depth", func(t *testing.T) {
		node, p := newTestProvider(t)
		node.Result("eth_getTransactionReceipt", ethtest.NewReceipt(txHash, 10))

		var head atomic.Uint64
		head.Store(10)
		node.Handle("eth_blockNumber", func([]json.RawMessage) (any, error) {
			return hexutil.Uint64(head.Add(1) - 1), nil
		})

		receipt, err := p.WaitForConfirmations(context.Background(), txHash, 5*time.Millisecond, 3)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), receipt.BlockNumber.Uint64())
		// heads 10, 11, 12, 13
		assert.Equal(t, 4, node.Calls("eth_blockNumber"))
	})

	t.Run("ContextBound", func(t *testing.T) {
		_, p := newTestProviderWithNullReceipt(t)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := p.WaitForConfirmations(ctx, txHash, 5*time.Millisecond, 1)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("NegativeConfirmations", func(t *testing.T) {
		node, p := newTestProvider(t)
		_, err := p.WaitForConfirmations(context.Background(), txHash, time.Millisecond, -1)
		require.Error(t, err)
		assert.Equal(t, 0, node.TotalCalls())
	})
}

func newTestProviderWithNullReceipt(t *testing.T) (*ethtest.Node, *ethrpc.Provider) {
	node, p := newTestProvider(t)
	node.Result("eth_getTransactionReceipt", nil)
	return node, p
}

func TestSendRawTransactionAndConfirm(t *testing.T) {
	node, p := newTestProvider(t)
	txHash := common.HexToHash("0x1234")
	node.Result("eth_sendRawTransaction", txHash)
	node.Result("eth_getTransactionReceipt", ethtest.NewReceipt(txHash, 7))

	receipt, err := p.SendRawTransactionAndConfirm(context.Background(), "0xf8", time.Millisecond, 0)
	require.NoError(t, err)
	assert.Equal(t, txHash, receipt.TxHash)
	assert.Equal(t, 1, node.Calls("eth_sendRawTransaction"))
}

func TestWithJWTAuthorization(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		var req jsonrpc.Message
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(jsonrpc.NewResponse(req.ID, json.RawMessage(`"0x1"`)))
	}))
	defer srv.Close()

	p, err := ethrpc.NewProvider(srv.URL, ethrpc.WithHTTPClient(&http.Client{}), ethrpc.WithJWTAuthorization("xx"))
	require.NoError(t, err)

	n, err := p.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, "BEARER xx", auth.Load())
}

func TestNodeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := ethrpc.NewProvider(srv.URL)
	require.NoError(t, err)

	_, err = p.BlockNumber(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
