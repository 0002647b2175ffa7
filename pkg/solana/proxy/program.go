// Package proxy builds instructions for the swap proxy program, which forwards
// bonding-curve, pump AMM and routed AMM swaps to the underlying exchanges.
//
// The proxy dispatches on an 8 byte selector and forwards the remaining
// payload and accounts positionally, so both the payload layout and the order
// of the account list are part of the wire contract.
package proxy

import (
	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnknownSelector  = errors.New("unknown selector")
	ErrMissingAccount   = errors.New("missing account")
)

var (
	MainnetProgramID = solana.MustParseAddress("AmXoSVCLjsfKrwCUqvkMFXYcDzZ4FeoMYs7SAhGyfMGy")
	DevnetProgramID  = solana.MustParseAddress("HVN5pETkbwRSnbcXGqjbd8sVUGU7VJCgMC8JeUL8SGUn")
)

// Programs and accounts of the exchanges the proxy forwards to.
var (
	PumpProgramID       = solana.MustParseAddress("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	PumpGlobal          = solana.MustParseAddress("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	PumpFeeRecipient    = solana.MustParseAddress("62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	PumpEventAuthority  = solana.MustParseAddress("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
	PumpAmmProgramID    = solana.MustParseAddress("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")
	RaydiumV4ProgramID  = solana.MustParseAddress("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	RaydiumV4Authority  = solana.MustParseAddress("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	SystemProgramID     = solana.MustParseAddress("11111111111111111111111111111111")
	SplTokenProgramID   = solana.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenID   = solana.MustParseAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SysvarRentPublicKey = solana.MustParseAddress("SysvarRent111111111111111111111111111111111")
)

// SlotExpired is the custom error raised by the expire-at-slot guard once the
// cluster has moved past the requested slot.
const SlotExpired solana.CustomError = 0
