package swap

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dexproxy/proxy-client/pkg/metrics"
	"github.com/dexproxy/proxy-client/pkg/solana"
	compute_budget "github.com/dexproxy/proxy-client/pkg/solana/computebudget"
	"github.com/dexproxy/proxy-client/pkg/solana/memo"
	"github.com/dexproxy/proxy-client/pkg/solana/proxy"
	"github.com/dexproxy/proxy-client/pkg/solana/system"
	"github.com/dexproxy/proxy-client/pkg/solana/token"
)

const (
	plannerMetricsStructName = "swap.planner"

	// DefaultRentReserve funds the wrapped SOL account of a routed swap on top
	// of any swap input.
	DefaultRentReserve uint64 = 3_000_000
)

// BondingCurveSwap trades Mint against SOL on its bonding curve.
type BondingCurveSwap struct {
	User ed25519.PublicKey
	Mint ed25519.PublicKey

	Amount uint64

	// Limit is the maximum SOL cost of a buy, or the minimum SOL proceeds of
	// a sell.
	Limit uint64
}

// AmmSwap trades Mint against SOL on a pump AMM pool. Pool and PoolVault
// default to the mint's bonding curve and its token vault.
type AmmSwap struct {
	User ed25519.PublicKey
	Mint ed25519.PublicKey

	Pool      ed25519.PublicKey
	PoolVault ed25519.PublicKey

	Amount uint64
	Limit  uint64
}

// RoutedSwap trades Mint against SOL on a routed AMM pool, wrapping SOL
// through a seeded ephemeral token account.
type RoutedSwap struct {
	User ed25519.PublicKey
	Mint ed25519.PublicKey

	Pool      ed25519.PublicKey
	CoinVault ed25519.PublicKey
	PcVault   ed25519.PublicKey

	// Index is the routed program's instruction index; nil selects
	// proxy.SwapBaseIn. Sells carry no index.
	Index *uint8

	Amount uint64
	Limit  uint64

	// Unwrap closes the ephemeral account back into User after the swap.
	Unwrap bool
}

type PlannerOption func(*Planner)

// WithSeedSource shares a seed source between planners.
func WithSeedSource(seeds *SeedSource) PlannerOption {
	return func(p *Planner) {
		p.seeds = seeds
	}
}

// WithRentReserve overrides DefaultRentReserve.
func WithRentReserve(lamports uint64) PlannerOption {
	return func(p *Planner) {
		p.rentReserve = lamports
	}
}

// WithComputeBudget prefixes every plan with compute budget instructions.
// Zero values are omitted.
func WithComputeBudget(unitLimit uint32, microLamportsPerUnit uint64) PlannerOption {
	return func(p *Planner) {
		p.computeUnitLimit = unitLimit
		p.computeUnitPrice = microLamportsPerUnit
	}
}

// WithCreateAccountFlag sets the flag forwarded by the proxy's create-account
// instruction. The default is proxy.CreateAccountFlagIdempotent.
func WithCreateAccountFlag(flag uint8) PlannerOption {
	return func(p *Planner) {
		p.createAccountFlag = flag
	}
}

// WithMemo appends a memo instruction carrying label to every plan.
func WithMemo(label string) PlannerOption {
	return func(p *Planner) {
		p.memo = label
	}
}

// Planner turns swap requests into ordered instruction plans against a
// deployment. Planning is offline and safe for concurrent use.
type Planner struct {
	log        *logrus.Entry
	deployment *Deployment
	seeds      *SeedSource

	rentReserve       uint64
	computeUnitLimit  uint32
	computeUnitPrice  uint64
	createAccountFlag uint8
	memo              string
}

func NewPlanner(deployment *Deployment, opts ...PlannerOption) (*Planner, error) {
	if deployment == nil {
		return nil, errors.Wrap(ErrConfiguration, "deployment is required")
	}
	if err := deployment.Validate(); err != nil {
		return nil, err
	}

	p := &Planner{
		log:               logrus.StandardLogger().WithField("type", "swap/planner"),
		deployment:        deployment.Clone(),
		rentReserve:       DefaultRentReserve,
		createAccountFlag: proxy.CreateAccountFlagIdempotent,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.seeds == nil {
		p.seeds = NewSeedSource()
	}
	if len(p.memo) > 0 {
		if err := memo.Validate(p.memo); err != nil {
			return nil, WithKind(ErrConfiguration, err, "invalid memo")
		}
	}
	if p.computeUnitLimit > compute_budget.MaxComputeUnitLimit {
		return nil, errors.Wrapf(ErrConfiguration, "compute unit limit %d exceeds %d", p.computeUnitLimit, compute_budget.MaxComputeUnitLimit)
	}

	return p, nil
}

// Deployment returns a copy of the planner's deployment.
func (p *Planner) Deployment() *Deployment {
	return p.deployment.Clone()
}

func (p *Planner) PlanBondingCurveBuy(ctx context.Context, req *BondingCurveSwap) (*Plan, error) {
	return p.planCurve(ctx, proxy.BondingCurveBuy, req)
}

func (p *Planner) PlanBondingCurveSell(ctx context.Context, req *BondingCurveSwap) (*Plan, error) {
	return p.planCurve(ctx, proxy.BondingCurveSell, req)
}

func (p *Planner) planCurve(ctx context.Context, op proxy.Operation, req *BondingCurveSwap) (plan *Plan, err error) {
	tracer := metrics.TraceMethodCall(ctx, plannerMetricsStructName, "Plan")
	tracer.AddAttribute("operation", op.String())
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if err := requireAddresses("user", req.User, "mint", req.Mint); err != nil {
		return nil, err
	}

	bondingCurve, bondingCurveVault, err := p.bondingCurveAccounts(req.Mint)
	if err != nil {
		return nil, err
	}
	userTokenAccount, err := p.associatedAccount(req.User, req.Mint)
	if err != nil {
		return nil, err
	}

	d := p.deployment
	accounts := &proxy.BondingCurveSwapInstructionAccounts{
		Global:            d.BondingCurveGlobal,
		FeeRecipient:      d.BondingCurveFeeRecipient,
		Mint:              req.Mint,
		BondingCurve:      bondingCurve,
		BondingCurveVault: bondingCurveVault,
		UserTokenAccount:  userTokenAccount,
		User:              req.User,
		SystemProgram:     d.SystemProgram,
		TokenProgram:      d.TokenProgram,
		RentSysvar:        d.RentSysvar,
		EventAuthority:    d.BondingCurveEventAuthority,
		Program:           d.BondingCurveProgram,
	}
	args := &proxy.CurveSwapInstructionArgs{Amount: req.Amount, Limit: req.Limit}

	b, err := p.newBuilder()
	if err != nil {
		return nil, err
	}

	var swapIxn solana.Instruction
	if op == proxy.BondingCurveBuy {
		if err := p.appendCreateAccount(b, req.User, userTokenAccount, req.Mint); err != nil {
			return nil, err
		}
		swapIxn, err = proxy.NewBondingCurveBuyInstruction(d.ProxyProgram, accounts, args)
	} else {
		swapIxn, err = proxy.NewBondingCurveSellInstruction(d.ProxyProgram, accounts, args)
	}
	if err != nil {
		return nil, err
	}
	if err := b.Append(swapIxn); err != nil {
		return nil, err
	}

	return p.finish(op, req.User, b, nil), nil
}

func (p *Planner) PlanAmmBuy(ctx context.Context, req *AmmSwap) (*Plan, error) {
	return p.planAmm(ctx, proxy.AmmBuy, req)
}

func (p *Planner) PlanAmmSell(ctx context.Context, req *AmmSwap) (*Plan, error) {
	return p.planAmm(ctx, proxy.AmmSell, req)
}

func (p *Planner) planAmm(ctx context.Context, op proxy.Operation, req *AmmSwap) (plan *Plan, err error) {
	tracer := metrics.TraceMethodCall(ctx, plannerMetricsStructName, "Plan")
	tracer.AddAttribute("operation", op.String())
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if err := requireAddresses("user", req.User, "mint", req.Mint); err != nil {
		return nil, err
	}

	pool, poolVault := req.Pool, req.PoolVault
	if len(pool) == 0 {
		pool, poolVault, err = p.bondingCurveAccounts(req.Mint)
		if err != nil {
			return nil, err
		}
	} else if len(poolVault) == 0 {
		poolVault, err = p.associatedAccount(pool, req.Mint)
		if err != nil {
			return nil, err
		}
	}
	if err := requireAddresses("pool", pool, "pool vault", poolVault); err != nil {
		return nil, err
	}

	userTokenAccount, err := p.associatedAccount(req.User, req.Mint)
	if err != nil {
		return nil, err
	}

	d := p.deployment
	accounts := &proxy.AmmSwapInstructionAccounts{
		Global:           d.AmmGlobal,
		FeeRecipient:     d.AmmFeeRecipient,
		Mint:             req.Mint,
		Pool:             pool,
		PoolVault:        poolVault,
		UserTokenAccount: userTokenAccount,
		User:             req.User,
		SystemProgram:    d.SystemProgram,
		TokenProgram:     d.TokenProgram,
		RentSysvar:       d.RentSysvar,
		EventAuthority:   d.AmmEventAuthority,
		Program:          d.AmmProgram,
	}
	args := &proxy.CurveSwapInstructionArgs{Amount: req.Amount, Limit: req.Limit}

	b, err := p.newBuilder()
	if err != nil {
		return nil, err
	}

	var swapIxn solana.Instruction
	if op == proxy.AmmBuy {
		if err := p.appendCreateAccount(b, req.User, userTokenAccount, req.Mint); err != nil {
			return nil, err
		}
		swapIxn, err = proxy.NewAmmBuyInstruction(d.ProxyProgram, accounts, args)
	} else {
		swapIxn, err = proxy.NewAmmSellInstruction(d.ProxyProgram, accounts, args)
	}
	if err != nil {
		return nil, err
	}
	if err := b.Append(swapIxn); err != nil {
		return nil, err
	}

	return p.finish(op, req.User, b, nil), nil
}

// PlanRoutedBuy spends up to Limit lamports of wrapped SOL on Amount of Mint.
//
// The plan creates the user's token account idempotently, creates and
// initializes a seeded wrapped SOL account funded with Limit plus the rent
// reserve, swaps from it, and optionally closes it.
func (p *Planner) PlanRoutedBuy(ctx context.Context, req *RoutedSwap) (*Plan, error) {
	return p.planRouted(ctx, proxy.RoutedBuy, req)
}

// PlanRoutedSell sells Amount of Mint into a seeded wrapped SOL account
// funded with the rent reserve.
func (p *Planner) PlanRoutedSell(ctx context.Context, req *RoutedSwap) (*Plan, error) {
	return p.planRouted(ctx, proxy.RoutedSell, req)
}

func (p *Planner) planRouted(ctx context.Context, op proxy.Operation, req *RoutedSwap) (plan *Plan, err error) {
	tracer := metrics.TraceMethodCall(ctx, plannerMetricsStructName, "Plan")
	tracer.AddAttribute("operation", op.String())
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if err := requireAddresses(
		"user", req.User,
		"mint", req.Mint,
		"pool", req.Pool,
		"coin vault", req.CoinVault,
		"pc vault", req.PcVault,
	); err != nil {
		return nil, err
	}

	lamports := p.rentReserve
	if op == proxy.RoutedBuy {
		if req.Limit > math.MaxUint64-p.rentReserve {
			return nil, errors.Wrapf(proxy.ErrInvalidArgument, "max cost %d plus rent reserve overflows", req.Limit)
		}
		lamports += req.Limit
	}

	d := p.deployment

	seed, err := p.seeds.Next()
	if err != nil {
		return nil, err
	}
	wrapped, err := solana.CreateWithSeed(req.User, seed, d.TokenProgram)
	if err != nil {
		return nil, err
	}
	ephemeral := &EphemeralAccount{
		Address:  wrapped,
		Base:     req.User,
		Seed:     seed,
		Lamports: lamports,
	}

	userTokenAccount, err := p.associatedAccount(req.User, req.Mint)
	if err != nil {
		return nil, err
	}

	b, err := p.newBuilder()
	if err != nil {
		return nil, err
	}

	if op == proxy.RoutedBuy {
		if err := p.appendCreateAccount(b, req.User, userTokenAccount, req.Mint); err != nil {
			return nil, err
		}
	}

	createIxn := system.CreateAccountWithSeed(req.User, wrapped, req.User, seed, lamports, token.AccountSize, d.TokenProgram)
	if err := b.Append(createIxn, wrapped); err != nil {
		return nil, err
	}
	if err := b.Append(token.InitializeAccount(wrapped, d.NativeMint, req.User)); err != nil {
		return nil, err
	}

	accounts := &proxy.RoutedSwapInstructionAccounts{
		Program:      d.RoutedProgram,
		TokenProgram: d.TokenProgram,
		Pool:         req.Pool,
		Authority:    d.RoutedAuthority,
		CoinVault:    req.CoinVault,
		PcVault:      req.PcVault,
		User:         req.User,
	}
	args := &proxy.RoutedSwapInstructionArgs{
		Index:  proxy.SwapBaseIn,
		Amount: req.Amount,
		Limit:  req.Limit,
	}
	if req.Index != nil {
		args.Index = *req.Index
	}

	var swapIxn solana.Instruction
	if op == proxy.RoutedBuy {
		accounts.SourceTokenAccount = wrapped
		accounts.DestinationTokenAccount = userTokenAccount
		swapIxn, err = proxy.NewRoutedBuyInstruction(d.ProxyProgram, accounts, args)
	} else {
		accounts.SourceTokenAccount = userTokenAccount
		accounts.DestinationTokenAccount = wrapped
		swapIxn, err = proxy.NewRoutedSellInstruction(d.ProxyProgram, accounts, args)
	}
	if err != nil {
		return nil, err
	}
	if err := b.Append(swapIxn); err != nil {
		return nil, err
	}

	if req.Unwrap {
		if err := b.Append(token.CloseAccount(wrapped, req.User, req.User)); err != nil {
			return nil, err
		}
	}

	p.log.WithFields(logrus.Fields{
		"method":    "planRouted",
		"operation": op.String(),
		"ephemeral": base58.Encode(wrapped),
		"lamports":  lamports,
	}).Trace("planned wrapped sol account")

	return p.finish(op, req.User, b, ephemeral), nil
}

// PlanExpireAtSlot returns a plan holding only the expiry guard, which fails
// the transaction once the cluster is past slot.
func (p *Planner) PlanExpireAtSlot(ctx context.Context, payer ed25519.PublicKey, slot uint64) (*Plan, error) {
	if err := requireAddresses("payer", payer); err != nil {
		return nil, err
	}

	guard, err := proxy.NewExpireAtSlotInstruction(p.deployment.ProxyProgram, &proxy.ExpireAtSlotInstructionArgs{Slot: slot})
	if err != nil {
		return nil, err
	}

	b, err := p.newBuilder()
	if err != nil {
		return nil, err
	}
	if err := b.Append(guard); err != nil {
		return nil, err
	}
	return p.finish(proxy.ExpireAtSlot, payer, b, nil), nil
}

// WithExpiry returns a copy of plan guarded by an expire-at-slot
// instruction, placed after any compute budget prefix.
func (p *Planner) WithExpiry(plan *Plan, slot uint64) (*Plan, error) {
	guard, err := proxy.NewExpireAtSlotInstruction(p.deployment.ProxyProgram, &proxy.ExpireAtSlotInstructionArgs{Slot: slot})
	if err != nil {
		return nil, err
	}

	at := plan.budgetPrefixLength()

	guarded := *plan
	guarded.Instructions = make([]solana.Instruction, 0, len(plan.Instructions)+1)
	guarded.Instructions = append(guarded.Instructions, plan.Instructions[:at]...)
	guarded.Instructions = append(guarded.Instructions, guard)
	guarded.Instructions = append(guarded.Instructions, plan.Instructions[at:]...)
	return &guarded, nil
}

func (p *Planner) newBuilder() (*Builder, error) {
	b := NewBuilder()

	prefix, err := compute_budget.Prefix(p.computeUnitLimit, p.computeUnitPrice)
	if err != nil {
		return nil, WithKind(ErrConfiguration, err, "invalid compute budget")
	}
	for _, ixn := range prefix {
		if err := b.Append(ixn); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (p *Planner) appendCreateAccount(b *Builder, payer, associated, mint ed25519.PublicKey) error {
	d := p.deployment
	ixn, err := proxy.NewCreateAccountInstruction(
		d.ProxyProgram,
		&proxy.CreateAccountInstructionAccounts{
			Payer:                  payer,
			AssociatedAccount:      associated,
			Mint:                   mint,
			SystemProgram:          d.SystemProgram,
			TokenProgram:           d.TokenProgram,
			AssociatedTokenProgram: d.AssociatedTokenProgram,
		},
		&proxy.CreateAccountInstructionArgs{Flag: p.createAccountFlag},
	)
	if err != nil {
		return err
	}
	return b.Append(ixn, associated)
}

func (p *Planner) bondingCurveAccounts(mint ed25519.PublicKey) (curve, vault ed25519.PublicKey, err error) {
	curve, _, err = proxy.GetBondingCurveAddress(&proxy.GetBondingCurveAddressArgs{
		Program: p.deployment.BondingCurveProgram,
		Mint:    mint,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error deriving bonding curve")
	}

	vault, err = proxy.GetBondingCurveVaultAddress(&proxy.GetBondingCurveVaultAddressArgs{
		BondingCurve:      curve,
		Mint:              mint,
		TokenProgram:      p.deployment.TokenProgram,
		AssociatedProgram: p.deployment.AssociatedTokenProgram,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error deriving bonding curve vault")
	}
	return curve, vault, nil
}

func (p *Planner) associatedAccount(owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	ata, err := token.GetAssociatedAccountWithPrograms(owner, mint, p.deployment.TokenProgram, p.deployment.AssociatedTokenProgram)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving associated token account")
	}
	return ata, nil
}

func (p *Planner) finish(op proxy.Operation, payer ed25519.PublicKey, b *Builder, ephemeral *EphemeralAccount) *Plan {
	if len(p.memo) > 0 {
		// Cannot fail: nothing is created.
		_ = b.Append(memo.Instruction(p.memo))
	}

	p.log.WithFields(logrus.Fields{
		"method":       "finish",
		"operation":    op.String(),
		"payer":        base58.Encode(payer),
		"instructions": b.Len(),
	}).Debug("planned operation")

	return &Plan{
		Operation:    op,
		Payer:        payer,
		Instructions: b.Instructions(),
		Ephemeral:    ephemeral,
	}
}

// requireAddresses takes name, address pairs.
func requireAddresses(pairs ...interface{}) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		key := pairs[i+1].(ed25519.PublicKey)
		if len(key) != ed25519.PublicKeySize {
			return errors.Wrapf(proxy.ErrInvalidArgument, "%s is not a valid address", name)
		}
	}
	return nil
}
