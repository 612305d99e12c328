package ethtxn

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strconv"

	"github.com/0xsequence/ethtxkit/ethrpc"
	"github.com/0xsequence/ethtxkit/ethwallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Request is a prepared transaction: a *TxRequest for the node to sign, or a
// RawRequest signed locally. Which one is fixed by the SignStrategy.
type Request interface {
	isRequest()
}

// TxRequest is an unsigned transaction for eth_sendTransaction.
type TxRequest struct {
	ethrpc.TransactionArgs
}

// RawRequest is an RLP encoded signed transaction for eth_sendRawTransaction.
type RawRequest []byte

func (*TxRequest) isRequest() {}
func (RawRequest) isRequest() {}

func (r RawRequest) Hex() string {
	return hexutil.Encode(r)
}

// Transaction decodes the signed transaction.
func (r RawRequest) Transaction() (*types.Transaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(r); err != nil {
		return nil, err
	}
	return tx, nil
}

// preparer turns a builder snapshot into a Request. Implementations are picked
// once from the SignStrategy and are used for a single transaction.
type preparer interface {
	mode() string
	prepare(ctx context.Context, backend Backend) (Request, error)
}

func newPreparer(b Builder) preparer {
	switch sign := b.sign.(type) {
	case LocalAccount:
		return newLocalAccountPreparer(b, sign)
	case *LocalAccount:
		if sign != nil {
			return newLocalAccountPreparer(b, *sign)
		}
	case Offline:
		return newOfflinePreparer(b, sign)
	case *Offline:
		if sign != nil {
			return newOfflinePreparer(b, *sign)
		}
	}
	return &defaultAccountPreparer{
		args:     b.txArgs(common.Address{}),
		accounts: Query(ethrpc.Accounts()),
	}
}

// defaultAccountPreparer waits for eth_accounts and sends from the first
// account. An empty list leaves the zero address as sender; the node will
// reject it when sending.
type defaultAccountPreparer struct {
	args     *ethrpc.TransactionArgs
	accounts *Param[[]common.Address]
}

func (p *defaultAccountPreparer) mode() string { return "default-account" }

func (p *defaultAccountPreparer) prepare(ctx context.Context, backend Backend) (Request, error) {
	accounts, err := p.accounts.Resolve(ctx, backend)
	if err != nil {
		return nil, transportError("fetch accounts", err)
	}
	args := *p.args
	if len(accounts) > 0 {
		args.From = accounts[0]
	}
	return &TxRequest{TransactionArgs: args}, nil
}

type localAccountPreparer struct {
	args *ethrpc.TransactionArgs
}

func newLocalAccountPreparer(b Builder, sign LocalAccount) *localAccountPreparer {
	args := b.txArgs(sign.From)
	args.Condition = sign.Condition
	return &localAccountPreparer{args: args}
}

func (p *localAccountPreparer) mode() string { return "local-account" }

func (p *localAccountPreparer) prepare(context.Context, Backend) (Request, error) {
	return &TxRequest{TransactionArgs: *p.args}, nil
}

// offlinePreparer resolves gas, gas price, nonce and chain id, querying only
// those the caller left unset, then signs a legacy EIP-155 transaction.
type offlinePreparer struct {
	key   *ecdsa.PrivateKey
	from  common.Address
	to    common.Address
	value *big.Int
	data  []byte

	gas      *Param[uint64]
	gasPrice *Param[*big.Int]
	nonce    *Param[uint64]
	chainID  *Param[string]
}

func newOfflinePreparer(b Builder, sign Offline) *offlinePreparer {
	p := &offlinePreparer{
		key:   sign.Key,
		to:    b.to,
		value: b.value,
		data:  b.data,
	}
	if sign.Key == nil {
		return p
	}
	p.from = crypto.PubkeyToAddress(sign.Key.PublicKey)

	p.gas = Maybe(b.gas, ethrpc.EstimateGas(ethereum.CallMsg{
		From:  p.from,
		To:    &p.to,
		Value: b.value,
		Data:  b.data,
	}))

	if b.gasPrice != nil {
		p.gasPrice = Known(b.gasPrice)
	} else {
		p.gasPrice = Query(ethrpc.SuggestGasPrice())
	}

	p.nonce = Maybe(b.nonce, ethrpc.NonceAt(p.from, nil))

	// net_version stands in for the chain id when none is given
	if sign.ChainID != nil {
		p.chainID = Known(strconv.FormatUint(*sign.ChainID, 10))
	} else {
		p.chainID = Query(ethrpc.NetworkVersion())
	}

	return p
}

func (p *offlinePreparer) mode() string { return "offline" }

func (p *offlinePreparer) prepare(ctx context.Context, backend Backend) (Request, error) {
	if p.key == nil {
		return nil, newError(KindSigning, "sign", ethwallet.ErrNoPrivateKey)
	}

	if err := resolveAll(ctx, backend, p.gas, p.gasPrice, p.nonce, p.chainID); err != nil {
		return nil, transportError("resolve parameters", err)
	}

	chainID, err := strconv.ParseUint(p.chainID.Value(), 10, 64)
	if err != nil {
		return nil, newError(KindChainID, "parse chain id", fmt.Errorf("%q: %w", p.chainID.Value(), err))
	}

	value := p.value
	if value == nil {
		value = new(big.Int)
	}
	to := p.to

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    p.nonce.Value(),
		GasPrice: p.gasPrice.Value(),
		Gas:      p.gas.Value(),
		To:       &to,
		Value:    value,
		Data:     p.data,
	})

	signedTx, err := ethwallet.SignTx(p.key, tx, new(big.Int).SetUint64(chainID))
	if err != nil {
		return nil, newError(KindSigning, "sign", err)
	}
	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, newError(KindSigning, "sign", err)
	}
	return RawRequest(raw), nil
}
