package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dexproxy/proxy-client/pkg/solana"
	compute_budget "github.com/dexproxy/proxy-client/pkg/solana/computebudget"
	"github.com/dexproxy/proxy-client/pkg/solana/memo"
	"github.com/dexproxy/proxy-client/pkg/solana/proxy"
	"github.com/dexproxy/proxy-client/pkg/solana/system"
	"github.com/dexproxy/proxy-client/pkg/solana/token"
	"github.com/dexproxy/proxy-client/pkg/swap"
)

func init() {
	rootCmd.AddCommand(
		newDecodeCommand(),
		newBalanceCommand(),
		newDeploymentCommand(),
	)
}

func newDecodeCommand() *cobra.Command {
	var transaction bool

	cmd := &cobra.Command{
		Use:   "decode <hex|base64>",
		Short: "Decode a proxy instruction payload or a serialized transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := decodeInput(args[0])
			if err != nil {
				return err
			}

			if !transaction {
				return describePayload(cmd.OutOrStdout(), raw)
			}

			var txn solana.Transaction
			if err := txn.Unmarshal(raw); err != nil {
				return errors.Wrap(err, "invalid transaction")
			}

			deployment, err := swap.ConfigFromEnv().LoadConfiguredDeployment(cmd.Context())
			if err != nil {
				return err
			}
			return describeTransaction(cmd.OutOrStdout(), &txn, deployment)
		},
	}
	cmd.Flags().BoolVar(&transaction, "transaction", false, "input is a serialized transaction rather than an instruction payload")
	return cmd
}

// decodeInput accepts hex (with or without a 0x prefix) or standard base64.
func decodeInput(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := hex.DecodeString(strings.TrimPrefix(s, "0x")); err == nil {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, errors.New("input is neither hex nor base64")
}

func describePayload(w io.Writer, data []byte) error {
	op, values, err := proxy.DecodePayload(data)
	if err != nil {
		return err
	}
	fields, err := proxy.Layout(op)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "operation: %s\n", op)
	for i, field := range fields {
		fmt.Fprintf(w, "  %s: %d\n", field.Name, values[i])
	}
	return nil
}

func describeTransaction(w io.Writer, txn *solana.Transaction, deployment *swap.Deployment) error {
	fmt.Fprint(w, txn.String())
	fmt.Fprintf(w, "State: %s\n", swap.SigningState(txn))

	for i := range txn.Message.Instructions {
		if err := describeInstruction(w, txn.Message, i, deployment); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}

func describeInstruction(w io.Writer, m solana.Message, i int, deployment *swap.Deployment) error {
	ix := m.Instructions[i]
	if int(ix.ProgramIndex) >= len(m.Accounts) {
		return errors.Errorf("program index %d out of range", ix.ProgramIndex)
	}
	program := m.Accounts[ix.ProgramIndex]

	for _, index := range ix.Accounts {
		if int(index) >= len(m.Accounts) {
			fmt.Fprintf(w, "Instruction %d: program %s data=%x (accounts loaded from lookup tables)\n", i, base58.Encode(program), ix.Data)
			return nil
		}
	}

	switch {
	case bytes.Equal(program, memo.ProgramKey):
		decoded, err := memo.DecompileMemo(m, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Instruction %d: memo %q\n", i, decoded.Data)

	case bytes.Equal(program, compute_budget.ProgramKey):
		if limit, err := compute_budget.ParseSetComputeUnitLimitIxnData(ix.Data); err == nil {
			fmt.Fprintf(w, "Instruction %d: compute unit limit %d\n", i, limit)
		} else if price, err := compute_budget.ParseSetComputeUnitPriceIxnData(ix.Data); err == nil {
			fmt.Fprintf(w, "Instruction %d: compute unit price %d\n", i, price)
		} else {
			fmt.Fprintf(w, "Instruction %d: compute budget %x\n", i, ix.Data)
		}

	case bytes.Equal(program, system.ProgramKey):
		decoded, err := system.DecompileCreateAccountWithSeed(m, i)
		if errors.Is(err, solana.ErrIncorrectInstruction) {
			fmt.Fprintf(w, "Instruction %d: system %x\n", i, ix.Data)
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintf(w, "Instruction %d: create account with seed %q\n", i, decoded.Seed)
		fmt.Fprintf(w, "  funder: %s\n", base58.Encode(decoded.Funder))
		fmt.Fprintf(w, "  address: %s\n", base58.Encode(decoded.Address))
		fmt.Fprintf(w, "  lamports: %d\n", decoded.Lamports)
		fmt.Fprintf(w, "  size: %d\n", decoded.Size)
		fmt.Fprintf(w, "  owner: %s\n", base58.Encode(decoded.Owner))

	case bytes.Equal(program, token.ProgramKey):
		command, err := token.GetCommand(m, i)
		if err != nil {
			return err
		}
		switch command {
		case token.CommandInitializeAccount:
			decoded, err := token.DecompileInitializeAccount(m, i)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Instruction %d: initialize token account\n", i)
			fmt.Fprintf(w, "  account: %s\n", base58.Encode(decoded.Account))
			fmt.Fprintf(w, "  mint: %s\n", base58.Encode(decoded.Mint))
			fmt.Fprintf(w, "  owner: %s\n", base58.Encode(decoded.Owner))
		case token.CommandCloseAccount:
			decoded, err := token.DecompileCloseAccount(m, i)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Instruction %d: close token account\n", i)
			fmt.Fprintf(w, "  account: %s\n", base58.Encode(decoded.Account))
			fmt.Fprintf(w, "  destination: %s\n", base58.Encode(decoded.Destination))
			fmt.Fprintf(w, "  owner: %s\n", base58.Encode(decoded.Owner))
		default:
			fmt.Fprintf(w, "Instruction %d: token command %d\n", i, command)
		}

	case bytes.Equal(program, deployment.ProxyProgram):
		decoded, err := proxy.DecompileInstruction(m, i, deployment.ProxyProgram)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Instruction %d: %s %v\n", i, decoded.Operation, decoded.Values)
		for _, account := range decoded.Accounts {
			fmt.Fprintf(w, "  %s: %s\n", account.Role, base58.Encode(account.Account.PublicKey))
		}

	default:
		fmt.Fprintf(w, "Instruction %d: program %s data=%x\n", i, base58.Encode(program), ix.Data)
	}
	return nil
}

func newBalanceCommand() *cobra.Command {
	var mint, owner string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the token balance held in an owner's associated account",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			env, err := loadEnvironment(ctx, "balance")
			if err != nil {
				return err
			}

			m, err := solana.ParseAddress(mint)
			if err != nil {
				return errors.Wrap(err, "invalid --mint")
			}

			var o ed25519.PublicKey
			if len(owner) > 0 {
				if o, err = solana.ParseAddress(owner); err != nil {
					return errors.Wrap(err, "invalid --owner")
				}
			} else {
				signer, err := swap.LoadSigner()
				if err != nil {
					return err
				}
				o = signer.Public().(ed25519.PublicKey)
			}

			balance, err := token.NewClient(env.client, m).GetAssociatedBalance(ctx, o, env.config.Commitment.Get(ctx))
			if err != nil {
				return swap.WithKind(swap.ErrNetwork, err, "failed to get balance")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", base58.Encode(o), balance)
			return nil
		}),
	}
	cmd.Flags().StringVar(&mint, "mint", "", "token mint")
	cmd.Flags().StringVar(&owner, "owner", "", "wallet, defaults to the PRIVATE_KEY wallet")
	_ = cmd.MarkFlagRequired("mint")
	return cmd
}

func newDeploymentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deployment",
		Short: "Print the configured program deployment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := swap.ConfigFromEnv().LoadConfiguredDeployment(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), d.String())
			return nil
		},
	}
}
