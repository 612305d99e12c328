package ethrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Provider is a JSONRPC client for an Ethereum node. It holds no per-request
// state, so a single Provider may be shared by any number of goroutines.
type Provider struct {
	log        zerolog.Logger
	nodeURL    string
	httpClient httpClient
	headers    map[string]string
	unbatched  bool

	chainIDMu sync.Mutex
	chainID   *big.Int
	lastID    atomic.Uint64
}

func NewProvider(nodeURL string, options ...Option) (*Provider, error) {
	if nodeURL == "" {
		return nil, fmt.Errorf("ethrpc: node url is required")
	}
	p := &Provider{
		log:        zerolog.Nop(),
		nodeURL:    nodeURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range options {
		opt(p)
	}
	if len(p.headers) > 0 {
		p.httpClient = withHeaders(p.httpClient, p.headers)
	}
	p.log = p.log.With().Str("ps", "ethrpc").Logger()
	return p, nil
}

var (
	ErrNotFound      = ethereum.NotFound
	ErrEmptyResponse = errors.New("ethrpc: empty response")
)

// Do executes calls against the node and writes each result into the
// destination given to its builder's Into. By default all calls travel in one
// JSONRPC batch; with WithoutBatching they are sent as concurrent single requests
// and the first failure cancels the rest.
//
// A failed call is reported through a BatchError keyed by the call's index.
func (p *Provider) Do(ctx context.Context, calls ...Call) error {
	if len(calls) == 0 {
		return nil
	}

	batch := make(BatchCall, 0, len(calls))
	for i, call := range calls {
		if call.err != nil {
			return fmt.Errorf("ethrpc: call %d (%s) has an error: %w", i, call.request.Method, call.err)
		}
		call.request.ID = p.lastID.Add(1)
		batch = append(batch, &call)
	}

	if !p.unbatched || len(batch) == 1 {
		if err := p.roundTrip(ctx, batch); err != nil {
			return err
		}
		return batch.ErrorOrNil()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range batch {
		g.Go(func() error {
			single := BatchCall{call}
			if err := p.roundTrip(gctx, single); err != nil {
				return err
			}
			if call.err != nil {
				return BatchError{i: call}
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Provider) roundTrip(ctx context.Context, batch BatchCall) error {
	b, err := batch.MarshalJSON()
	if err != nil {
		return fmt.Errorf("ethrpc: failed to marshal JSONRPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.nodeURL, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("ethrpc: failed to initialize http.Request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if e := p.log.Debug(); e.Enabled() {
		methods := make([]string, len(batch))
		for i, call := range batch {
			methods[i] = call.request.Method
		}
		e.Strs("methods", methods).Msg("-> ethrpc: request")
	}

	res, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ethrpc: failed to send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("ethrpc: failed to read response: %w", err)
	}

	if err := batch.UnmarshalJSON(body); err != nil {
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return fmt.Errorf("ethrpc: node responded with status %d: %s", res.StatusCode, bytes.TrimSpace(body))
		}
		return fmt.Errorf("ethrpc: %w", err)
	}

	for _, call := range batch {
		if call.err != nil {
			continue
		}

		if call.response == nil {
			call.err = ErrEmptyResponse
			continue
		}

		if call.resultFn == nil {
			// expecting no result, so we skip
			continue
		}

		if err := call.resultFn(call.response.Result); err != nil {
			call.err = err
			continue
		}
	}

	return nil
}

// ChainID returns the node's eth_chainId, memoized after the first success.
func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	p.chainIDMu.Lock()
	defer p.chainIDMu.Unlock()
	if p.chainID != nil {
		return p.chainID, nil
	}
	var ret *big.Int
	err := p.Do(ctx, ChainID().Into(&ret))
	if err != nil {
		return nil, err
	}
	p.chainID = ret
	return ret, nil
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var ret uint64
	err := p.Do(ctx, BlockNumber().Into(&ret))
	return ret, err
}

func (p *Provider) Accounts(ctx context.Context) ([]common.Address, error) {
	var ret []common.Address
	err := p.Do(ctx, Accounts().Into(&ret))
	return ret, err
}

func (p *Provider) BalanceAt(ctx context.Context, account common.Address, blockNum *big.Int) (*big.Int, error) {
	var ret *big.Int
	err := p.Do(ctx, BalanceAt(account, blockNum).Into(&ret))
	return ret, err
}

func (p *Provider) NonceAt(ctx context.Context, account common.Address, blockNum *big.Int) (uint64, error) {
	var result uint64
	err := p.Do(ctx, NonceAt(account, blockNum).Into(&result))
	return result, err
}

func (p *Provider) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var result uint64
	err := p.Do(ctx, PendingNonceAt(account).Into(&result))
	return result, err
}

func (p *Provider) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var ret *big.Int
	err := p.Do(ctx, SuggestGasPrice().Into(&ret))
	return ret, err
}

func (p *Provider) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var result uint64
	err := p.Do(ctx, EstimateGas(msg).Into(&result))
	return result, err
}

func (p *Provider) NetworkVersion(ctx context.Context) (string, error) {
	var version string
	err := p.Do(ctx, NetworkVersion().Into(&version))
	return version, err
}

func (p *Provider) NetworkID(ctx context.Context) (*big.Int, error) {
	var version *big.Int
	err := p.Do(ctx, NetworkID().Into(&version))
	return version, err
}

func (p *Provider) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := p.Do(ctx, TransactionReceipt(txHash).Into(&receipt))
	if err == nil && receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, err
}

func (p *Provider) SendTransactionArgs(ctx context.Context, args *TransactionArgs) (common.Hash, error) {
	var txnHash common.Hash
	err := p.Do(ctx, SendTransactionArgs(args).Into(&txnHash))
	return txnHash, err
}

func (p *Provider) SendRawTransaction(ctx context.Context, signedTxHex string) (common.Hash, error) {
	var txnHash common.Hash
	err := p.Do(ctx, SendRawTransaction(signedTxHex).Into(&txnHash))
	return txnHash, err
}

// SendRawTransactionBytes is SendRawTransaction for an RLP-encoded signed txn.
func (p *Provider) SendRawTransactionBytes(ctx context.Context, signedTx []byte) (common.Hash, error) {
	return p.SendRawTransaction(ctx, hexutil.Encode(signedTx))
}
