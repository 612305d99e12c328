package ethrpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultPollInterval is used by the confirmation helpers when a non-positive
// poll interval is given.
var DefaultPollInterval = 1 * time.Second

// WaitForConfirmations polls the node every pollInterval until txHash has been
// mined and `confirmations` further blocks have been mined on top of it, then
// returns the receipt. With zero confirmations the receipt is returned as soon
// as the transaction is included. The receipt is re-fetched on every poll so a
// re-org that drops or moves the transaction is observed.
//
// The wait is bounded only by ctx.
func (p *Provider) WaitForConfirmations(ctx context.Context, txHash common.Hash, pollInterval time.Duration, confirmations int) (*types.Receipt, error) {
	if confirmations < 0 {
		return nil, fmt.Errorf("ethrpc: invalid confirmations %d", confirmations)
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	log := p.log.With().Str("op", "confirm").Str("txn", txHash.Hex()).Logger()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.TransactionReceipt(ctx, txHash)
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		if receipt != nil && receipt.BlockNumber != nil {
			if confirmations == 0 {
				return receipt, nil
			}

			head, err := p.BlockNumber(ctx)
			if err != nil {
				return nil, err
			}
			mined := receipt.BlockNumber.Uint64()
			if head >= mined+uint64(confirmations) {
				log.Debug().Uint64("block", mined).Uint64("head", head).Msg("-> ethrpc: txn confirmed")
				return receipt, nil
			}
			log.Debug().Uint64("block", mined).Uint64("head", head).Msg("-> ethrpc: waiting for confirmations")
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("ethrpc: waiting for txn %v: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// SendTransactionArgsAndConfirm submits a node-signed transaction and waits for it
// to reach the given confirmation depth.
func (p *Provider) SendTransactionArgsAndConfirm(ctx context.Context, args *TransactionArgs, pollInterval time.Duration, confirmations int) (*types.Receipt, error) {
	txnHash, err := p.SendTransactionArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	return p.WaitForConfirmations(ctx, txnHash, pollInterval, confirmations)
}

// SendRawTransactionAndConfirm broadcasts a signed transaction and waits for it
// to reach the given confirmation depth.
func (p *Provider) SendRawTransactionAndConfirm(ctx context.Context, signedTxHex string, pollInterval time.Duration, confirmations int) (*types.Receipt, error) {
	txnHash, err := p.SendRawTransaction(ctx, signedTxHex)
	if err != nil {
		return nil, err
	}
	return p.WaitForConfirmations(ctx, txnHash, pollInterval, confirmations)
}
