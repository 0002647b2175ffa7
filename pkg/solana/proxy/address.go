package proxy

import (
	"crypto/ed25519"

	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/solana/token"
)

var (
	BondingCurvePrefix = []byte("bonding-curve")
)

type GetBondingCurveAddressArgs struct {
	Program ed25519.PublicKey
	Mint    ed25519.PublicKey
}

// GetBondingCurveAddress derives the curve state account for a mint under the
// bonding-curve program.
func GetBondingCurveAddress(args *GetBondingCurveAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		args.Program,
		BondingCurvePrefix,
		args.Mint,
	)
}

type GetBondingCurveVaultAddressArgs struct {
	BondingCurve      ed25519.PublicKey
	Mint              ed25519.PublicKey
	TokenProgram      ed25519.PublicKey
	AssociatedProgram ed25519.PublicKey
}

// GetBondingCurveVaultAddress returns the curve's associated token account,
// which holds the unsold supply.
func GetBondingCurveVaultAddress(args *GetBondingCurveVaultAddressArgs) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccountWithPrograms(
		args.BondingCurve,
		args.Mint,
		args.TokenProgram,
		args.AssociatedProgram,
	)
}
