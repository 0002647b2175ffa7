package proxy

import (
	"crypto/ed25519"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

type CurveSwapInstructionArgs struct {
	Amount uint64

	// Limit is the maximum cost of a buy, or the minimum proceeds of a sell.
	Limit uint64
}

type BondingCurveSwapInstructionAccounts struct {
	Global            ed25519.PublicKey
	FeeRecipient      ed25519.PublicKey
	Mint              ed25519.PublicKey
	BondingCurve      ed25519.PublicKey
	BondingCurveVault ed25519.PublicKey
	UserTokenAccount  ed25519.PublicKey
	User              ed25519.PublicKey
	SystemProgram     ed25519.PublicKey
	TokenProgram      ed25519.PublicKey
	RentSysvar        ed25519.PublicKey
	EventAuthority    ed25519.PublicKey
	Program           ed25519.PublicKey
}

func (a *BondingCurveSwapInstructionAccounts) roles() Accounts {
	return Accounts{
		RoleGlobal:              a.Global,
		RoleFeeRecipient:        a.FeeRecipient,
		RoleMint:                a.Mint,
		RoleBondingCurve:        a.BondingCurve,
		RoleBondingCurveVault:   a.BondingCurveVault,
		RoleUserTokenAccount:    a.UserTokenAccount,
		RoleUser:                a.User,
		RoleSystemProgram:       a.SystemProgram,
		RoleTokenProgram:        a.TokenProgram,
		RoleRentSysvar:          a.RentSysvar,
		RoleEventAuthority:      a.EventAuthority,
		RoleBondingCurveProgram: a.Program,
	}
}

func NewBondingCurveBuyInstruction(
	proxyProgram ed25519.PublicKey,
	accounts *BondingCurveSwapInstructionAccounts,
	args *CurveSwapInstructionArgs,
) (solana.Instruction, error) {
	return NewInstruction(proxyProgram, BondingCurveBuy, accounts.roles(), args.Amount, args.Limit)
}

func NewBondingCurveSellInstruction(
	proxyProgram ed25519.PublicKey,
	accounts *BondingCurveSwapInstructionAccounts,
	args *CurveSwapInstructionArgs,
) (solana.Instruction, error) {
	return NewInstruction(proxyProgram, BondingCurveSell, accounts.roles(), args.Amount, args.Limit)
}

type AmmSwapInstructionAccounts struct {
	Global           ed25519.PublicKey
	FeeRecipient     ed25519.PublicKey
	Mint             ed25519.PublicKey
	Pool             ed25519.PublicKey
	PoolVault        ed25519.PublicKey
	UserTokenAccount ed25519.PublicKey
	User             ed25519.PublicKey
	SystemProgram    ed25519.PublicKey
	TokenProgram     ed25519.PublicKey
	RentSysvar       ed25519.PublicKey
	EventAuthority   ed25519.PublicKey
	Program          ed25519.PublicKey
}

func (a *AmmSwapInstructionAccounts) roles() Accounts {
	return Accounts{
		RoleGlobal:           a.Global,
		RoleFeeRecipient:     a.FeeRecipient,
		RoleMint:             a.Mint,
		RolePool:             a.Pool,
		RolePoolVault:        a.PoolVault,
		RoleUserTokenAccount: a.UserTokenAccount,
		RoleUser:             a.User,
		RoleSystemProgram:    a.SystemProgram,
		RoleTokenProgram:     a.TokenProgram,
		RoleRentSysvar:       a.RentSysvar,
		RoleEventAuthority:   a.EventAuthority,
		RoleAmmProgram:       a.Program,
	}
}

func NewAmmBuyInstruction(
	proxyProgram ed25519.PublicKey,
	accounts *AmmSwapInstructionAccounts,
	args *CurveSwapInstructionArgs,
) (solana.Instruction, error) {
	return NewInstruction(proxyProgram, AmmBuy, accounts.roles(), args.Amount, args.Limit)
}

func NewAmmSellInstruction(
	proxyProgram ed25519.PublicKey,
	accounts *AmmSwapInstructionAccounts,
	args *CurveSwapInstructionArgs,
) (solana.Instruction, error) {
	return NewInstruction(proxyProgram, AmmSell, accounts.roles(), args.Amount, args.Limit)
}
