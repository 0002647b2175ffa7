package main

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/solana/proxy"
	"github.com/dexproxy/proxy-client/pkg/swap"
)

// planFunc builds the plan for a single command invocation.
type planFunc func(ctx context.Context, p *swap.Planner, user ed25519.PublicKey) (*swap.Plan, error)

// submitFlags are shared by every command that submits a transaction.
type submitFlags struct {
	await    bool
	dryRun   bool
	expireAt uint64
	expireIn uint64
	tables   []string
}

func (f *submitFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.await, "await", false, "wait until the transaction reaches the configured commitment")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the planned transaction without signing or submitting it")
	cmd.Flags().Uint64Var(&f.expireAt, "expire-at", 0, "fail the transaction once the cluster is past this slot")
	cmd.Flags().Uint64Var(&f.expireIn, "expire-in", 0, "fail the transaction once the cluster is this many slots past the current one")
	cmd.Flags().StringSliceVar(&f.tables, "lookup-table", nil, "address lookup tables used to compile a v0 transaction")
	cmd.MarkFlagsMutuallyExclusive("expire-at", "expire-in")
}

func init() {
	rootCmd.AddCommand(
		newCurveCommand(),
		newAmmCommand(),
		newRoutedCommand(),
		newGuardCommand(),
	)
}

func newCurveCommand() *cobra.Command {
	var (
		mint          string
		amount, limit uint64
		flags         submitFlags
	)

	request := func(user ed25519.PublicKey) (*swap.BondingCurveSwap, error) {
		m, err := solana.ParseAddress(mint)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --mint")
		}
		return &swap.BondingCurveSwap{User: user, Mint: m, Amount: amount, Limit: limit}, nil
	}

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Swap against a pump.fun bonding curve",
	}
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Buy --amount tokens paying at most --limit lamports",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, "curve", &flags, func(ctx context.Context, p *swap.Planner, user ed25519.PublicKey) (*swap.Plan, error) {
				req, err := request(user)
				if err != nil {
					return nil, err
				}
				return p.PlanBondingCurveBuy(ctx, req)
			})
		}),
	}
	sell := &cobra.Command{
		Use:   "sell",
		Short: "Sell --amount tokens receiving at least --limit lamports",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, "curve", &flags, func(ctx context.Context, p *swap.Planner, user ed25519.PublicKey) (*swap.Plan, error) {
				req, err := request(user)
				if err != nil {
					return nil, err
				}
				return p.PlanBondingCurveSell(ctx, req)
			})
		}),
	}

	for _, c := range []*cobra.Command{buy, sell} {
		c.Flags().StringVar(&mint, "mint", "", "token mint")
		c.Flags().Uint64Var(&amount, "amount", 0, "token amount")
		c.Flags().Uint64Var(&limit, "limit", 0, "lamport limit")
		_ = c.MarkFlagRequired("mint")
		flags.register(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func newAmmCommand() *cobra.Command {
	var (
		mint, pool, poolVault string
		amount, limit         uint64
		flags                 submitFlags
	)

	request := func(user ed25519.PublicKey) (*swap.AmmSwap, error) {
		req := &swap.AmmSwap{User: user, Amount: amount, Limit: limit}

		var err error
		if req.Mint, err = solana.ParseAddress(mint); err != nil {
			return nil, errors.Wrap(err, "invalid --mint")
		}
		if len(pool) > 0 {
			if req.Pool, err = solana.ParseAddress(pool); err != nil {
				return nil, errors.Wrap(err, "invalid --pool")
			}
		}
		if len(poolVault) > 0 {
			if req.PoolVault, err = solana.ParseAddress(poolVault); err != nil {
				return nil, errors.Wrap(err, "invalid --pool-vault")
			}
		}
		return req, nil
	}

	cmd := &cobra.Command{
		Use:   "amm",
		Short: "Swap against a pump AMM pool",
	}
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Buy --amount tokens paying at most --limit lamports",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, "amm", &flags, func(ctx context.Context, p *swap.Planner, user ed25519.PublicKey) (*swap.Plan, error) {
				req, err := request(user)
				if err != nil {
					return nil, err
				}
				return p.PlanAmmBuy(ctx, req)
			})
		}),
	}
	sell := &cobra.Command{
		Use:   "sell",
		Short: "Sell --amount tokens receiving at least --limit lamports",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, "amm", &flags, func(ctx context.Context, p *swap.Planner, user ed25519.PublicKey) (*swap.Plan, error) {
				req, err := request(user)
				if err != nil {
					return nil, err
				}
				return p.PlanAmmSell(ctx, req)
			})
		}),
	}

	for _, c := range []*cobra.Command{buy, sell} {
		c.Flags().StringVar(&mint, "mint", "", "token mint")
		c.Flags().StringVar(&pool, "pool", "", "pool account, defaults to the bonding curve derivation")
		c.Flags().StringVar(&poolVault, "pool-vault", "", "pool token vault, defaults to the bonding curve vault")
		c.Flags().Uint64Var(&amount, "amount", 0, "token amount")
		c.Flags().Uint64Var(&limit, "limit", 0, "lamport limit")
		_ = c.MarkFlagRequired("mint")
		flags.register(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func newRoutedCommand() *cobra.Command {
	var (
		mint, pool, coinVault, pcVault string
		index                          uint8
		amount, limit                  uint64
		unwrap                         bool
		flags                          submitFlags
	)

	request := func(user ed25519.PublicKey) (*swap.RoutedSwap, error) {
		req := &swap.RoutedSwap{User: user, Index: &index, Amount: amount, Limit: limit, Unwrap: unwrap}

		var err error
		for _, target := range []struct {
			name  string
			value string
			into  *ed25519.PublicKey
		}{
			{"mint", mint, &req.Mint},
			{"pool", pool, &req.Pool},
			{"coin-vault", coinVault, &req.CoinVault},
			{"pc-vault", pcVault, &req.PcVault},
		} {
			if *target.into, err = solana.ParseAddress(target.value); err != nil {
				return nil, errors.Wrapf(err, "invalid --%s", target.name)
			}
		}
		return req, nil
	}

	cmd := &cobra.Command{
		Use:   "routed",
		Short: "Swap through the routed AMM using a temporary wrapped SOL account",
	}
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Spend up to --amount lamports for at least --limit tokens",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, "routed", &flags, func(ctx context.Context, p *swap.Planner, user ed25519.PublicKey) (*swap.Plan, error) {
				req, err := request(user)
				if err != nil {
					return nil, err
				}
				return p.PlanRoutedBuy(ctx, req)
			})
		}),
	}
	buy.Flags().Uint8Var(&index, "index", proxy.SwapBaseIn, "routed program instruction index")

	sell := &cobra.Command{
		Use:   "sell",
		Short: "Sell --amount tokens for at least --limit lamports",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, "routed", &flags, func(ctx context.Context, p *swap.Planner, user ed25519.PublicKey) (*swap.Plan, error) {
				req, err := request(user)
				if err != nil {
					return nil, err
				}
				return p.PlanRoutedSell(ctx, req)
			})
		}),
	}

	for _, c := range []*cobra.Command{buy, sell} {
		c.Flags().StringVar(&mint, "mint", "", "token mint")
		c.Flags().StringVar(&pool, "pool", "", "routed AMM pool")
		c.Flags().StringVar(&coinVault, "coin-vault", "", "pool coin vault")
		c.Flags().StringVar(&pcVault, "pc-vault", "", "pool pc vault")
		c.Flags().Uint64Var(&amount, "amount", 0, "input amount")
		c.Flags().Uint64Var(&limit, "limit", 0, "minimum output")
		c.Flags().BoolVar(&unwrap, "unwrap", false, "close the wrapped SOL account back to the wallet")
		for _, name := range []string{"mint", "pool", "coin-vault", "pc-vault"} {
			_ = c.MarkFlagRequired(name)
		}
		flags.register(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func newGuardCommand() *cobra.Command {
	var flags submitFlags

	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Submit a transaction holding only the expire-at-slot guard",
		RunE: traced(func(cmd *cobra.Command, _ []string) error {
			if flags.expireAt == 0 && flags.expireIn == 0 {
				return errors.New("one of --expire-at or --expire-in is required")
			}

			return runPlan(cmd, "guard", &flags, nil)
		}),
	}
	flags.register(cmd)
	return cmd
}

// runPlan loads configuration and the signer, plans the transaction, and
// either prints it (--dry-run) or submits it. A nil build submits only the
// expiry guard.
func runPlan(cmd *cobra.Command, component string, flags *submitFlags, build planFunc) error {
	ctx := cmd.Context()

	env, err := loadEnvironment(ctx, component)
	if err != nil {
		return err
	}

	signer, err := swap.LoadSigner()
	if err != nil {
		return err
	}
	user := signer.Public().(ed25519.PublicKey)

	plannerOpts, err := env.config.PlannerOptions(ctx)
	if err != nil {
		return err
	}
	planner, err := swap.NewPlanner(env.deployment, plannerOpts...)
	if err != nil {
		return err
	}

	expireAt := flags.expireAt
	if flags.expireIn > 0 {
		current, err := env.client.GetSlot(ctx, solana.CommitmentConfirmed)
		if err != nil {
			return swap.WithKind(swap.ErrNetwork, err, "failed to get slot")
		}
		expireAt = current + flags.expireIn
	}

	// Without a build function the transaction is the guard alone.
	var plan *swap.Plan
	if build == nil {
		plan, err = planner.PlanExpireAtSlot(ctx, user, expireAt)
	} else if plan, err = build(ctx, planner, user); err == nil && expireAt > 0 {
		plan, err = planner.WithExpiry(plan, expireAt)
	}
	if err != nil {
		return err
	}

	if flags.dryRun {
		txn := plan.Transaction()
		fmt.Fprint(cmd.OutOrStdout(), txn.String())
		return nil
	}

	opts, err := env.config.SubmitOptions(ctx)
	if err != nil {
		return err
	}
	for _, table := range flags.tables {
		key, err := solana.ParseAddress(table)
		if err != nil {
			return errors.Wrap(err, "invalid --lookup-table")
		}
		opts.LookupTables = append(opts.LookupTables, key)
	}

	submitter := swap.NewSubmitter(env.client)
	receipt, err := submitter.Submit(ctx, plan, []ed25519.PrivateKey{signer}, opts)
	if receipt != nil {
		printReceipt(cmd, receipt)
	}
	if err != nil {
		return err
	}

	if !flags.await {
		return nil
	}

	awaitCtx, cancel := context.WithTimeout(ctx, env.config.ConfirmationTimeout.Get(ctx))
	defer cancel()

	err = submitter.AwaitConfirmation(awaitCtx, receipt, opts.Commitment)
	printReceipt(cmd, receipt)
	if err != nil {
		env.log.WithError(err).WithFields(logrus.Fields{
			"signature": receipt.SignatureBase58(),
			"state":     receipt.State.String(),
		}).Warn("transaction not confirmed")
	}
	return err
}

func printReceipt(cmd *cobra.Command, r *swap.Receipt) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s", r.Operation, r.SignatureBase58(), r.State)
	if r.Provisional {
		fmt.Fprint(cmd.OutOrStdout(), " (provisional)")
	}
	if r.Slot > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " slot=%d", r.Slot)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}
