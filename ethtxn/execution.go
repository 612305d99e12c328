package ethtxn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xsequence/ethtxkit/ethrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// State is the stage an Execution is in.
type State uint8

const (
	StatePreparing State = iota
	StateSending
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateSending:
		return "sending"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// sendFunc delivers a prepared request to the node.
type sendFunc[R any] func(ctx context.Context, backend Backend, req Request) (R, error)

// Execution is one pending transaction. It prepares the request, sends it and
// then holds on to the outcome: the transaction is sent at most once no matter
// how often Await is called.
type Execution[R any] struct {
	mu      sync.Mutex // guards state and started
	state   State
	started bool

	backend Backend
	prep    preparer
	send    sendFunc[R]
	log     zerolog.Logger

	// set before done is closed
	result R
	err    error
	done   chan struct{}
}

func newExecution[R any](b Builder, send sendFunc[R]) *Execution[R] {
	prep := newPreparer(b)
	return &Execution[R]{
		state:   StatePreparing,
		backend: b.backend,
		prep:    prep,
		send:    send,
		log:     b.log.With().Str("ps", "ethtxn").Str("mode", prep.mode()).Logger(),
		done:    make(chan struct{}),
	}
}

// Await returns the result of the execution, running it on the first call.
// Once the execution is done every call returns the same result without
// further requests.
//
// The first call runs the transaction under its ctx. Cancelling that ctx while
// the request is being prepared abandons the outstanding queries, nothing is
// sent, and the execution is done with the failure. Any other call only waits
// for the result: its ctx bounds the wait and ctx.Err() is returned when it
// ends first, leaving the execution running.
func (e *Execution[R]) Await(ctx context.Context) (R, error) {
	e.mu.Lock()
	run := !e.started
	e.started = true
	e.mu.Unlock()

	if run {
		e.run(ctx)
		return e.result, e.err
	}

	select {
	case <-e.done:
		return e.result, e.err
	default:
	}

	select {
	case <-e.done:
		return e.result, e.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// State reports the current stage. It never waits on the request in flight.
func (e *Execution[R]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Done is closed once the execution has a result.
func (e *Execution[R]) Done() <-chan struct{} {
	return e.done
}

func (e *Execution[R]) setState(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

func (e *Execution[R]) run(ctx context.Context) {
	e.log.Debug().Msg("-> ethtxn: preparing txn")
	req, err := e.prep.prepare(ctx, e.backend)
	if err != nil {
		e.finish(err)
		return
	}

	e.setState(StateSending)
	e.log.Debug().Msg("-> ethtxn: sending txn")
	result, err := e.send(ctx, e.backend, req)
	if err != nil {
		e.finish(transportError("send", err))
		return
	}
	e.result = result
	e.finish(nil)
}

func (e *Execution[R]) finish(err error) {
	e.err = err
	e.prep = nil
	e.setState(StateDone)
	close(e.done)

	if err != nil {
		e.log.Debug().Err(err).Msg("<- ethtxn: txn failed")
	} else {
		e.log.Debug().Msg("<- ethtxn: txn sent")
	}
}

func sendTransaction(ctx context.Context, backend Backend, req Request) (common.Hash, error) {
	var txnHash common.Hash
	switch r := req.(type) {
	case *TxRequest:
		err := backend.Do(ctx, ethrpc.SendTransactionArgs(&r.TransactionArgs).Into(&txnHash))
		return txnHash, err
	case RawRequest:
		err := backend.Do(ctx, ethrpc.SendRawTransaction(r.Hex()).Into(&txnHash))
		return txnHash, err
	}
	return txnHash, fmt.Errorf("ethtxn: unknown request type %T", req)
}

func sendTransactionAndConfirm(pollInterval time.Duration, confirmations int) sendFunc[*types.Receipt] {
	return func(ctx context.Context, backend Backend, req Request) (*types.Receipt, error) {
		switch r := req.(type) {
		case *TxRequest:
			return backend.SendTransactionArgsAndConfirm(ctx, &r.TransactionArgs, pollInterval, confirmations)
		case RawRequest:
			return backend.SendRawTransactionAndConfirm(ctx, r.Hex(), pollInterval, confirmations)
		}
		return nil, fmt.Errorf("ethtxn: unknown request type %T", req)
	}
}
