// Package ethtxkit builds, signs and submits Ethereum transactions through a
// JSON-RPC node. See the ethtxn package for the transaction builder and ethrpc
// for the node client.
package ethtxkit

import "github.com/ethereum/go-ethereum/common"

type Address = common.Address

type Hash = common.Hash

func PtrTo[T any](v T) *T {
	return &v
}
