package token

import (
	"crypto/ed25519"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

// AssociatedTokenAccountProgramKey  is the address of the associated token account program that should be used.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}

// GetAssociatedAccount returns the associated account address for an SPL token.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return GetAssociatedAccountWithPrograms(wallet, mint, ProgramKey, AssociatedTokenAccountProgramKey)
}

// GetAssociatedAccountWithPrograms derives the associated account under an
// explicit pair of token and associated token programs. It performs no network
// access and always returns the same address for the same inputs.
func GetAssociatedAccountWithPrograms(wallet, mint, tokenProgram, associatedProgram ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		associatedProgram,
		wallet,
		tokenProgram,
		mint,
	)
}
