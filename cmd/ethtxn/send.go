package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/0xsequence/ethtxkit"
	"github.com/0xsequence/ethtxkit/ethrpc"
	"github.com/0xsequence/ethtxkit/ethtxn"
	"github.com/0xsequence/ethtxkit/ethwallet"
)

func NewSendCmd() *cobra.Command {
	send := &send{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build, sign and submit a transaction",
		Args:  cobra.NoArgs,
		RunE:  send.Run,
	}

	cmd.Flags().StringVarP(&send.rpcURL, "rpc-url", "r", "", "The RPC endpoint to the blockchain node to interact with")
	cmd.Flags().StringVar(&send.to, "to", "", "The contract or account to send the transaction to")
	cmd.Flags().StringVar(&send.data, "data", "", "The hex encoded calldata")
	cmd.Flags().StringVar(&send.value, "value", "", "The amount of wei to send, decimal or 0x hex (default 0)")
	cmd.Flags().StringVar(&send.gas, "gas", "", "The gas limit (estimated by the node when unset)")
	cmd.Flags().StringVar(&send.gasPrice, "gas-price", "", "The gas price in wei (queried from the node when unset)")
	cmd.Flags().StringVar(&send.nonce, "nonce", "", "The sender nonce (queried from the node when unset)")
	cmd.Flags().StringVar(&send.from, "from", "", "Let the node sign with this unlocked account")
	cmd.Flags().Uint64Var(&send.afterBlock, "after-block", 0, "With --from, have the node hold the transaction until this block")
	cmd.Flags().Uint64Var(&send.afterTime, "after-time", 0, "With --from, have the node hold the transaction until this unix time")
	cmd.Flags().StringVar(&send.privateKey, "private-key", "", `Sign locally with this hex private key ("-" reads it from the terminal)`)
	cmd.Flags().StringVar(&send.mnemonic, "mnemonic", "", "Sign locally with an account of this BIP-39 mnemonic")
	cmd.Flags().StringVar(&send.derivationPath, "derivation-path", "", "The --mnemonic account path (default m/44'/60'/0'/0/0)")
	cmd.Flags().StringVar(&send.chainID, "chain-id", "", "The chain id to sign for (the node's net_version when unset)")
	cmd.Flags().IntVar(&send.confirmations, "confirmations", -1, "Wait until the transaction has this many confirmations and print its receipt, negative prints the hash right away")
	cmd.Flags().DurationVar(&send.pollInterval, "poll-interval", ethrpc.DefaultPollInterval, "How often to poll for the receipt")
	cmd.Flags().DurationVar(&send.timeout, "timeout", 0, "Give up after this long (0 waits forever)")
	cmd.Flags().BoolVar(&send.dryRun, "dry-run", false, "Print the prepared transaction without sending it")
	cmd.Flags().BoolVarP(&send.verbose, "verbose", "v", false, "Log node requests to stderr")

	return cmd
}

type send struct {
	rpcURL         string
	to             string
	data           string
	value          string
	gas            string
	gasPrice       string
	nonce          string
	from           string
	afterBlock     uint64
	afterTime      uint64
	privateKey     string
	mnemonic       string
	derivationPath string
	chainID        string
	confirmations  int
	pollInterval   time.Duration
	timeout        time.Duration
	dryRun         bool
	verbose        bool
}

func (c *send) Run(cmd *cobra.Command, args []string) error {
	if _, err := url.ParseRequestURI(c.rpcURL); err != nil {
		return errors.New("error: please provide a valid rpc url (e.g. http://localhost:8545)")
	}
	if !common.IsHexAddress(c.to) {
		return errors.New("error: please provide a valid --to address (e.g. 0x213a286A1AF3Ac010d4F2D66A52DeAf762dF7742)")
	}

	var data []byte
	if c.data != "" {
		var err error
		data, err = hexutil.Decode(c.data)
		if err != nil {
			return fmt.Errorf("error: invalid --data: %w", err)
		}
	}

	sign, err := c.signStrategy(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cmd.ErrOrStderr(), c.verbose)

	provider, err := ethrpc.NewProvider(c.rpcURL, ethrpc.WithLogger(log))
	if err != nil {
		return err
	}

	builder, err := c.params(ethtxn.New(provider, common.HexToAddress(c.to), data))
	if err != nil {
		return err
	}
	builder = builder.Sign(sign).Logger(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out := cmd.OutOrStdout()

	switch {
	case c.dryRun:
		req, err := builder.Prepare(ctx)
		if err != nil {
			return err
		}
		return printRequest(out, req)

	case c.confirmations >= 0:
		receipt, err := builder.SubmitAndConfirm(c.pollInterval, c.confirmations).Await(ctx)
		if err != nil {
			return err
		}
		s, err := PrettyJSON(receipt)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)

	default:
		txnHash, err := builder.Submit().Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, txnHash.Hex())
	}

	return nil
}

func (c *send) params(b ethtxn.Builder) (ethtxn.Builder, error) {
	if c.value != "" {
		v, err := parseUint256("value", c.value)
		if err != nil {
			return b, err
		}
		b = b.Value(v.ToBig())
	}
	if c.gas != "" {
		v, err := parseUint64("gas", c.gas)
		if err != nil {
			return b, err
		}
		b = b.Gas(v)
	}
	if c.gasPrice != "" {
		v, err := parseUint256("gas-price", c.gasPrice)
		if err != nil {
			return b, err
		}
		b = b.GasPrice(v.ToBig())
	}
	if c.nonce != "" {
		v, err := parseUint64("nonce", c.nonce)
		if err != nil {
			return b, err
		}
		b = b.Nonce(v)
	}
	return b, nil
}

func (c *send) signStrategy(cmd *cobra.Command) (ethtxn.SignStrategy, error) {
	offline := c.privateKey != "" || c.mnemonic != ""
	condition := c.afterBlock > 0 || c.afterTime > 0

	switch {
	case c.privateKey != "" && c.mnemonic != "":
		return nil, errors.New("error: --private-key and --mnemonic are mutually exclusive")
	case offline && c.from != "":
		return nil, errors.New("error: --from is signed by the node, it cannot be combined with --private-key or --mnemonic")
	case !offline && c.chainID != "":
		return nil, errors.New("error: --chain-id requires --private-key or --mnemonic")
	case condition && c.from == "":
		return nil, errors.New("error: --after-block and --after-time require --from")
	case c.afterBlock > 0 && c.afterTime > 0:
		return nil, errors.New("error: --after-block and --after-time are mutually exclusive")
	}

	if offline {
		wallet, err := c.wallet(cmd)
		if err != nil {
			return nil, err
		}
		sign := ethtxn.Offline{Key: wallet.PrivateKey()}
		if c.chainID != "" {
			chainID, err := parseUint64("chain-id", c.chainID)
			if err != nil {
				return nil, err
			}
			sign.ChainID = ethtxkit.PtrTo(chainID)
		}
		return sign, nil
	}

	if c.from != "" {
		if !common.IsHexAddress(c.from) {
			return nil, errors.New("error: please provide a valid --from address")
		}
		sign := ethtxn.LocalAccount{From: common.HexToAddress(c.from)}
		switch {
		case c.afterBlock > 0:
			sign.Condition = ethtxn.AfterBlock(c.afterBlock)
		case c.afterTime > 0:
			sign.Condition = ethtxn.AfterTime(c.afterTime)
		}
		return sign, nil
	}

	return ethtxn.DefaultAccount{}, nil
}

func (c *send) wallet(cmd *cobra.Command) (*ethwallet.Wallet, error) {
	if c.mnemonic != "" {
		return ethwallet.NewWalletFromMnemonic(c.mnemonic, c.derivationPath)
	}

	key := c.privateKey
	if key == "-" {
		secret, err := readSecretInput(cmd.ErrOrStderr(), "Private key: ")
		if err != nil {
			return nil, err
		}
		key = string(secret)
	}
	return ethwallet.NewWalletFromPrivateKey(key)
}

func readSecretInput(w io.Writer, prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("error: reading a secret needs an interactive terminal")
	}
	fmt.Fprint(w, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// parseUint256 accepts a decimal or 0x prefixed hex number up to 2^256-1.
func parseUint256(flag, s string) (*uint256.Int, error) {
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = uint256.FromHex("0x" + s[2:])
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("error: invalid --%s %q: %w", flag, s, err)
	}
	return v, nil
}

func parseUint64(flag, s string) (uint64, error) {
	v, err := parseUint256(flag, s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("error: --%s %s does not fit in 64 bits", flag, s)
	}
	return v.Uint64(), nil
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().
		Logger()
}

func printRequest(w io.Writer, req ethtxn.Request) error {
	switch r := req.(type) {
	case ethtxn.RawRequest:
		fmt.Fprintln(w, r.Hex())
	case *ethtxn.TxRequest:
		s, err := PrettyJSON(r.TransactionArgs)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	}
	return nil
}

// PrettyJSON renders v as indented JSON.
func PrettyJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
