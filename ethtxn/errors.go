package ethtxn

import (
	"errors"
	"fmt"

	"github.com/goware/superr"
)

// Kind classifies an execution failure.
type Kind uint8

const (
	// KindTransport is a failed node query or send: network error, node-rejected
	// call or malformed response.
	KindTransport Kind = iota + 1

	// KindChainID means the network id used in place of an omitted chain id
	// could not be parsed as an integer.
	KindChainID

	// KindSigning is a local signing failure, such as missing key material.
	KindSigning
)

var kindNames = map[Kind]string{
	KindTransport: "transport",
	KindChainID:   "chain id",
	KindSigning:   "signing",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Sentinels for errors.Is, one per Kind.
var (
	ErrTransport = errors.New("ethtxn: transport error")
	ErrChainID   = errors.New("ethtxn: invalid chain id")
	ErrSigning   = errors.New("ethtxn: signing failed")
)

var kindErrors = map[Kind]error{
	KindTransport: ErrTransport,
	KindChainID:   ErrChainID,
	KindSigning:   ErrSigning,
}

// Error is the terminal error of a transaction execution. Op names the stage
// that failed and Err is the underlying cause. It matches both its Kind's
// sentinel and the cause with errors.Is.
type Error struct {
	Kind Kind
	Op   string
	Err  error

	err error
}

func newError(kind Kind, op string, cause error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  cause,
		err:  superr.New(kindErrors[kind], cause),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("ethtxn: %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func transportError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(KindTransport, op, err)
}
