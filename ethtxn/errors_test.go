package ethtxn

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/0xsequence/ethtxkit/ethrpc/jsonrpc"
	"github.com/0xsequence/ethtxkit/ethwallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("KindAndCause", func(t *testing.T) {
		cause := jsonrpc.Error{Code: -32000, Message: "nonce too low"}
		err := error(newError(KindTransport, "send", cause))

		assert.ErrorIs(t, err, ErrTransport)
		assert.NotErrorIs(t, err, ErrChainID)
		assert.NotErrorIs(t, err, ErrSigning)

		var rpcErr jsonrpc.Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, "nonce too low", rpcErr.Message)

		assert.Equal(t, "ethtxn: send failed (transport): jsonrpc error -32000: nonce too low", err.Error())
	})

	t.Run("Kinds", func(t *testing.T) {
		_, parseErr := strconv.ParseUint("not-a-number", 10, 64)
		err := newError(KindChainID, "parse chain id", parseErr)
		assert.ErrorIs(t, err, ErrChainID)
		assert.ErrorIs(t, err, strconv.ErrSyntax)
		assert.NotErrorIs(t, err, ErrTransport)

		err = newError(KindSigning, "sign", ethwallet.ErrNoPrivateKey)
		assert.ErrorIs(t, err, ErrSigning)
		assert.ErrorIs(t, err, ethwallet.ErrNoPrivateKey)
	})

	t.Run("TransportKeepsKind", func(t *testing.T) {
		signing := newError(KindSigning, "sign", ethwallet.ErrNoPrivateKey)
		err := transportError("send", signing)
		assert.Same(t, signing, err)

		err = transportError("send", context.Canceled)
		var txnErr *Error
		require.True(t, errors.As(err, &txnErr))
		assert.Equal(t, KindTransport, txnErr.Kind)
		assert.Equal(t, "send", txnErr.Op)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("KindString", func(t *testing.T) {
		assert.Equal(t, "chain id", KindChainID.String())
		assert.Equal(t, "Kind(9)", Kind(9).String())
	})
}

func TestSendUnknownRequest(t *testing.T) {
	_, p := newTestProvider(t)

	assert.NotPanics(t, func() {
		_, err := sendTransaction(context.Background(), p, nil)
		assert.ErrorContains(t, err, "unknown request type")

		_, err = sendTransactionAndConfirm(0, 0)(context.Background(), p, nil)
		assert.ErrorContains(t, err, "unknown request type")
	})
}
