package ethtxn

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/0xsequence/ethtxkit/ethrpc"
	"github.com/0xsequence/ethtxkit/ethrpc/jsonrpc"
	"github.com/0xsequence/ethtxkit/ethtest"
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

func TestParam(t *testing.T) {
	ctx := context.Background()

	t.Run("Known", func(t *testing.T) {
		node, p := newTestProvider(t)

		gas := Known(uint64(21000))
		assert.False(t, gas.Pending())
		assert.Empty(t, gas.Method())

		v, err := gas.Resolve(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, uint64(21000), v)
		assert.Equal(t, 0, node.RoundTrips())
	})

	t.Run("Query", func(t *testing.T) {
		node, p := newTestProvider(t)
		node.Result("eth_gasPrice", "0x3b9aca00")

		gasPrice := Query(ethrpc.SuggestGasPrice())
		assert.True(t, gasPrice.Pending())
		assert.Equal(t, "eth_gasPrice", gasPrice.Method())

		v, err := gasPrice.Resolve(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(1_000_000_000), v)
		assert.False(t, gasPrice.Pending())

		// resolved once
		_, err = gasPrice.Resolve(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 1, node.Calls("eth_gasPrice"))
	})

	t.Run("Maybe", func(t *testing.T) {
		nonce := uint64(7)
		assert.False(t, Maybe(&nonce, ethrpc.NonceAt(ethtest.DummyAddr(1), nil)).Pending())
		assert.True(t, Maybe(nil, ethrpc.NonceAt(ethtest.DummyAddr(1), nil)).Pending())

		// the pointer is read at construction
		p := Maybe(&nonce, ethrpc.NonceAt(ethtest.DummyAddr(1), nil))
		nonce = 8
		assert.Equal(t, uint64(7), p.Value())
	})
}

func TestResolveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Join", func(t *testing.T) {
		node, p := newTestProvider(t)
		node.Result("eth_gasPrice", "0x1")
		node.Result("eth_getTransactionCount", "0x2")
		node.Result("net_version", "3")

		gas := Known(uint64(21000))
		gasPrice := Query(ethrpc.SuggestGasPrice())
		nonce := Query(ethrpc.NonceAt(ethtest.DummyAddr(1), nil))
		chainID := Query(ethrpc.NetworkVersion())

		err := resolveAll(ctx, p, gas, gasPrice, nonce, chainID)
		require.NoError(t, err)

		assert.Equal(t, uint64(21000), gas.Value())
		assert.Equal(t, int64(1), gasPrice.Value().Int64())
		assert.Equal(t, uint64(2), nonce.Value())
		assert.Equal(t, "3", chainID.Value())

		assert.Equal(t, 1, node.RoundTrips())
		assert.Equal(t, 3, node.TotalCalls())
	})

	t.Run("NothingPending", func(t *testing.T) {
		node, p := newTestProvider(t)

		err := resolveAll(ctx, p, Known(uint64(1)), Known("1"))
		require.NoError(t, err)
		assert.Equal(t, 0, node.RoundTrips())
	})

	t.Run("FirstFailure", func(t *testing.T) {
		node, p := newTestProvider(t)
		node.Result("eth_gasPrice", "0x1")
		node.Fail("net_version", -32000, "net down")

		gasPrice := Query(ethrpc.SuggestGasPrice())
		chainID := Query(ethrpc.NetworkVersion())

		err := resolveAll(ctx, p, gasPrice, chainID)
		require.Error(t, err)

		var rpcErr jsonrpc.Error
		require.True(t, errors.As(err, &rpcErr))
		assert.Equal(t, "net down", rpcErr.Message)

		assert.True(t, gasPrice.Pending())
		assert.True(t, chainID.Pending())
	})

	t.Run("WithoutBatching", func(t *testing.T) {
		node, p := newTestProvider(t, ethrpc.WithoutBatching())
		node.Result("eth_gasPrice", "0x1")
		node.Result("net_version", "1")

		gasPrice := Query(ethrpc.SuggestGasPrice())
		chainID := Query(ethrpc.NetworkVersion())

		require.NoError(t, resolveAll(ctx, p, gasPrice, chainID))
		assert.Equal(t, "1", chainID.Value())
		assert.Equal(t, 2, node.RoundTrips())
	})
}
