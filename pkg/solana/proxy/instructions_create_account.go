package proxy

import (
	"crypto/ed25519"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

// Flags forwarded to the associated token program.
const (
	CreateAccountFlagCreate     uint8 = 0
	CreateAccountFlagIdempotent uint8 = 1
)

type CreateAccountInstructionArgs struct {
	Flag uint8
}

type CreateAccountInstructionAccounts struct {
	Payer                  ed25519.PublicKey
	AssociatedAccount      ed25519.PublicKey
	Mint                   ed25519.PublicKey
	SystemProgram          ed25519.PublicKey
	TokenProgram           ed25519.PublicKey
	AssociatedTokenProgram ed25519.PublicKey
}

// NewCreateAccountInstruction creates the payer's associated token account
// through the proxy.
func NewCreateAccountInstruction(
	proxyProgram ed25519.PublicKey,
	accounts *CreateAccountInstructionAccounts,
	args *CreateAccountInstructionArgs,
) (solana.Instruction, error) {
	return NewInstruction(
		proxyProgram,
		CreateAccount,
		Accounts{
			RolePayer:                  accounts.Payer,
			RoleAssociatedAccount:      accounts.AssociatedAccount,
			RoleMint:                   accounts.Mint,
			RoleSystemProgram:          accounts.SystemProgram,
			RoleTokenProgram:           accounts.TokenProgram,
			RoleAssociatedTokenProgram: accounts.AssociatedTokenProgram,
		},
		uint64(args.Flag),
	)
}
