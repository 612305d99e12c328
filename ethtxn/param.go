package ethtxn

import (
	"context"

	"github.com/0xsequence/ethtxkit/ethrpc"
)

// Param is a transaction parameter that is either known up front or fetched
// from the node with exactly one query.
type Param[T any] struct {
	value T
	query *ethrpc.CallBuilder[T]
}

// Known returns a Param that is already resolved to v.
func Known[T any](v T) *Param[T] {
	return &Param[T]{value: v}
}

// Query returns a Param resolved by the single call q.
func Query[T any](q ethrpc.CallBuilder[T]) *Param[T] {
	return &Param[T]{query: &q}
}

// Maybe returns Known(*v) when v is set, Query(q) otherwise.
func Maybe[T any](v *T, q ethrpc.CallBuilder[T]) *Param[T] {
	if v != nil {
		return Known(*v)
	}
	return Query(q)
}

func (p *Param[T]) Pending() bool {
	return p.query != nil
}

// Value returns the resolved value. It is only meaningful once Pending
// reports false.
func (p *Param[T]) Value() T {
	return p.value
}

// Method returns the JSONRPC method of the pending query, or "" when known.
func (p *Param[T]) Method() string {
	if p.query == nil {
		return ""
	}
	return p.query.Method()
}

// Resolve returns the value, querying the node when it is not yet known.
func (p *Param[T]) Resolve(ctx context.Context, backend Backend) (T, error) {
	if err := resolveAll(ctx, backend, p); err != nil {
		var zero T
		return zero, err
	}
	return p.value, nil
}

func (p *Param[T]) call() ethrpc.Call {
	return p.query.Into(&p.value)
}

func (p *Param[T]) resolved() {
	p.query = nil
}

type resolvable interface {
	Pending() bool
	call() ethrpc.Call
	resolved()
}

// resolveAll joins params: every pending query is issued in one Backend.Do and
// the call returns once all of them are answered. Known params cost nothing, so
// when none are pending no request is made. The first failure fails the join
// and leaves every param unresolved.
func resolveAll(ctx context.Context, backend Backend, params ...resolvable) error {
	var (
		calls   []ethrpc.Call
		pending []resolvable
	)
	for _, p := range params {
		if p.Pending() {
			calls = append(calls, p.call())
			pending = append(pending, p)
		}
	}
	if len(calls) == 0 {
		return nil
	}

	if err := backend.Do(ctx, calls...); err != nil {
		return err
	}
	for _, p := range pending {
		p.resolved()
	}
	return nil
}
