package proxy

import (
	"crypto/ed25519"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

// SwapBaseIn is the routed AMM's swap instruction index, the value the proxy
// expects in a routed buy's index byte.
const SwapBaseIn uint8 = 9

type RoutedSwapInstructionArgs struct {
	// Index is only encoded for buys.
	Index  uint8
	Amount uint64
	Limit  uint64
}

type RoutedSwapInstructionAccounts struct {
	Program                 ed25519.PublicKey
	TokenProgram            ed25519.PublicKey
	Pool                    ed25519.PublicKey
	Authority               ed25519.PublicKey
	CoinVault               ed25519.PublicKey
	PcVault                 ed25519.PublicKey
	SourceTokenAccount      ed25519.PublicKey
	DestinationTokenAccount ed25519.PublicKey
	User                    ed25519.PublicKey
}

func (a *RoutedSwapInstructionAccounts) roles() Accounts {
	return Accounts{
		RoleRoutedProgram:           a.Program,
		RoleTokenProgram:            a.TokenProgram,
		RoleRoutedPool:              a.Pool,
		RoleRoutedAuthority:         a.Authority,
		RoleCoinVault:               a.CoinVault,
		RolePcVault:                 a.PcVault,
		RoleSourceTokenAccount:      a.SourceTokenAccount,
		RoleDestinationTokenAccount: a.DestinationTokenAccount,
		RoleUser:                    a.User,
	}
}

func NewRoutedBuyInstruction(
	proxyProgram ed25519.PublicKey,
	accounts *RoutedSwapInstructionAccounts,
	args *RoutedSwapInstructionArgs,
) (solana.Instruction, error) {
	return NewInstruction(proxyProgram, RoutedBuy, accounts.roles(), uint64(args.Index), args.Amount, args.Limit)
}

func NewRoutedSellInstruction(
	proxyProgram ed25519.PublicKey,
	accounts *RoutedSwapInstructionAccounts,
	args *RoutedSwapInstructionArgs,
) (solana.Instruction, error) {
	return NewInstruction(proxyProgram, RoutedSell, accounts.roles(), args.Amount, args.Limit)
}
