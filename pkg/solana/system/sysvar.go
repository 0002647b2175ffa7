package system

import (
	"github.com/dexproxy/proxy-client/pkg/solana"
)

var (
	// SystemAccount is the system program's own address.
	SystemAccount = solana.MustParseAddress("11111111111111111111111111111111")

	// RentSysVar
	//
	// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
	RentSysVar = solana.MustParseAddress("SysvarRent111111111111111111111111111111111")

	ClockSysVar = solana.MustParseAddress("SysvarC1ock11111111111111111111111111111111")
)
