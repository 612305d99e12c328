package ethtxn

import (
	"crypto/ecdsa"

	"github.com/0xsequence/ethtxkit/ethrpc"
	"github.com/ethereum/go-ethereum/common"
)

// SignStrategy selects who signs the transaction. It is one of DefaultAccount,
// LocalAccount or Offline.
type SignStrategy interface {
	isSignStrategy()
}

// DefaultAccount lets the node sign with the first account it reports from
// eth_accounts. It is used when no strategy is set.
type DefaultAccount struct{}

// LocalAccount lets the node sign with the given account, optionally holding
// the transaction until Condition is met.
type LocalAccount struct {
	From      common.Address
	Condition *Condition
}

// Offline signs the transaction locally with Key. When ChainID is nil the
// node's network id (net_version) is used as the chain id. That matches mainnet
// and the common test networks, but not every chain, where network id and chain
// id differ; set ChainID explicitly for those.
type Offline struct {
	Key     *ecdsa.PrivateKey
	ChainID *uint64
}

func (DefaultAccount) isSignStrategy() {}
func (LocalAccount) isSignStrategy()   {}
func (Offline) isSignStrategy()        {}

// Condition is a node-side delivery condition for node-signed transactions.
type Condition = ethrpc.TransactionCondition

// AfterBlock holds the transaction until block blockNum.
func AfterBlock(blockNum uint64) *Condition {
	return ethrpc.BlockCondition(blockNum)
}

// AfterTime holds the transaction until the given unix timestamp.
func AfterTime(unixTime uint64) *Condition {
	return ethrpc.TimestampCondition(unixTime)
}
