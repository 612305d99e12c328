package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/0xsequence/ethtxkit/ethrpc"
)

func NewAccountCmd() *cobra.Command {
	account := &account{}
	cmd := &cobra.Command{
		Use:   "account [address]",
		Short: "Print the balance and next nonce of an account",
		Args:  cobra.ExactArgs(1),
		RunE:  account.Run,
	}

	cmd.Flags().StringVarP(&account.rpcURL, "rpc-url", "r", "", "The RPC endpoint to the blockchain node to interact with")

	return cmd
}

type account struct {
	rpcURL string
}

func (c *account) Run(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(args[0]) {
		return errors.New("error: please provide a valid account address (e.g. 0x213a286A1AF3Ac010d4F2D66A52DeAf762dF7742)")
	}
	if _, err := url.ParseRequestURI(c.rpcURL); err != nil {
		return errors.New("error: please provide a valid rpc url (e.g. http://localhost:8545)")
	}
	addr := common.HexToAddress(args[0])

	provider, err := ethrpc.NewProvider(c.rpcURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	balance, err := provider.BalanceAt(ctx, addr, nil)
	if err != nil {
		return err
	}
	// the nonce the next transaction from this account should use
	nonce, err := provider.PendingNonceAt(ctx, addr)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "balance:", balance, "wei")
	fmt.Fprintln(out, "nonce:", nonce)
	return nil
}
