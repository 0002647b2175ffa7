package proxy

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/solana/token"
	"github.com/dexproxy/proxy-client/pkg/testutil"
)

func TestTemplate(t *testing.T) {
	for _, tc := range []struct {
		ops      []Operation
		expected []Slot
	}{
		{
			ops: []Operation{BondingCurveBuy, BondingCurveSell},
			expected: []Slot{
				{RoleGlobal, false, false},
				{RoleFeeRecipient, false, true},
				{RoleMint, false, false},
				{RoleBondingCurve, false, true},
				{RoleBondingCurveVault, false, true},
				{RoleUserTokenAccount, false, true},
				{RoleUser, true, true},
				{RoleSystemProgram, false, false},
				{RoleTokenProgram, false, false},
				{RoleRentSysvar, false, false},
				{RoleEventAuthority, false, false},
				{RoleBondingCurveProgram, false, false},
			},
		},
		{
			ops: []Operation{AmmBuy, AmmSell},
			expected: []Slot{
				{RoleGlobal, false, false},
				{RoleFeeRecipient, false, true},
				{RoleMint, false, false},
				{RolePool, false, true},
				{RolePoolVault, false, true},
				{RoleUserTokenAccount, false, true},
				{RoleUser, true, true},
				{RoleSystemProgram, false, false},
				{RoleTokenProgram, false, false},
				{RoleRentSysvar, false, false},
				{RoleEventAuthority, false, false},
				{RoleAmmProgram, false, false},
			},
		},
		{
			ops: []Operation{RoutedBuy, RoutedSell},
			expected: []Slot{
				{RoleRoutedProgram, false, false},
				{RoleTokenProgram, false, false},
				{RoleRoutedPool, false, true},
				{RoleRoutedAuthority, false, true},
				{RoleCoinVault, false, true},
				{RolePcVault, false, true},
				{RoleSourceTokenAccount, false, true},
				{RoleDestinationTokenAccount, false, true},
				{RoleUser, true, true},
			},
		},
		{
			ops: []Operation{CreateAccount},
			expected: []Slot{
				{RolePayer, true, true},
				{RoleAssociatedAccount, false, true},
				{RoleMint, false, false},
				{RoleSystemProgram, false, false},
				{RoleTokenProgram, false, false},
				{RoleAssociatedTokenProgram, false, false},
			},
		},
		{
			ops:      []Operation{ExpireAtSlot},
			expected: []Slot{},
		},
	} {
		for _, op := range tc.ops {
			actual, err := Template(op)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual, op)
		}
	}
}

func TestTemplate_CoversEveryOperation(t *testing.T) {
	for _, op := range Operations() {
		slots, err := Template(op)
		require.NoError(t, err, op)

		// Every role is named and appears at most once.
		seen := make(map[Role]bool)
		for _, slot := range slots {
			assert.NotEqual(t, "unknown", slot.Role.String())
			assert.False(t, seen[slot.Role], "%s repeats %s", op, slot.Role)
			seen[slot.Role] = true
		}
	}
}

func TestTemplate_ReturnsCopy(t *testing.T) {
	slots, err := Template(BondingCurveBuy)
	require.NoError(t, err)
	slots[0] = Slot{Role: RoleUser, IsSigner: true}

	fresh, err := Template(BondingCurveBuy)
	require.NoError(t, err)
	assert.Equal(t, RoleGlobal, fresh[0].Role)
}

func TestResolve_Deterministic(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 9)
	accounts := Accounts{
		RoleRoutedProgram:           keys[0],
		RoleTokenProgram:            keys[1],
		RoleRoutedPool:              keys[2],
		RoleRoutedAuthority:         keys[3],
		RoleCoinVault:               keys[4],
		RolePcVault:                 keys[5],
		RoleSourceTokenAccount:      keys[6],
		RoleDestinationTokenAccount: keys[7],
		RoleUser:                    keys[8],
		RoleMint:                    keys[0],
	}

	first, err := Resolve(RoutedBuy, accounts)
	require.NoError(t, err)
	second, err := Resolve(RoutedBuy, accounts)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 9)
	for i, meta := range first {
		assert.Equal(t, keys[i], meta.PublicKey)
		assert.Equal(t, i == 8, meta.IsSigner)
		assert.Equal(t, i > 1, meta.IsWritable)
	}
}

func TestResolve_MissingAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	metas, err := Resolve(CreateAccount, Accounts{
		RolePayer:             keys[0],
		RoleAssociatedAccount: keys[1],
		RoleMint:              keys[2],
		RoleSystemProgram:     SystemProgramID,
		RoleTokenProgram:      SplTokenProgramID,
	})
	assert.True(t, errors.Is(err, ErrMissingAccount))
	assert.Contains(t, err.Error(), "associated_token_program")
	assert.Nil(t, metas)

	metas, err = Resolve(CreateAccount, Accounts{
		RolePayer:                  keys[0],
		RoleAssociatedAccount:      ed25519.PublicKey{1, 2, 3},
		RoleMint:                   keys[2],
		RoleSystemProgram:          SystemProgramID,
		RoleTokenProgram:           SplTokenProgramID,
		RoleAssociatedTokenProgram: AssociatedTokenID,
	})
	assert.True(t, errors.Is(err, ErrMissingAccount))
	assert.Nil(t, metas)
}

func TestNewInstruction_UnknownOperation(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 1)

	ixn, err := NewInstruction(MainnetProgramID, Operation{Protocol: ProtocolAmm, Action: ActionExpireAtSlot}, Accounts{RoleUser: keys[0]}, 1, 2)
	assert.True(t, errors.Is(err, ErrUnknownOperation))
	assert.Equal(t, solana.Instruction{}, ixn)

	_, err = Resolve(Operation{Protocol: ProtocolAmm, Action: ActionExpireAtSlot}, Accounts{RoleUser: keys[0]})
	assert.True(t, errors.Is(err, ErrUnknownOperation))
}

// Reproduces the bonding curve buy submitted against mainnet for
// HzTV9ZgLJKGmPnYy2c5Pvganm7A2PsNhWBj3e2sgpump.
func TestNewBondingCurveBuyInstruction(t *testing.T) {
	user := solana.MustParseAddress("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	mint := solana.MustParseAddress("HzTV9ZgLJKGmPnYy2c5Pvganm7A2PsNhWBj3e2sgpump")

	curve, _, err := GetBondingCurveAddress(&GetBondingCurveAddressArgs{Program: PumpProgramID, Mint: mint})
	require.NoError(t, err)
	vault, err := token.GetAssociatedAccount(curve, mint)
	require.NoError(t, err)
	userTokenAccount, err := token.GetAssociatedAccount(user, mint)
	require.NoError(t, err)

	ixn, err := NewBondingCurveBuyInstruction(
		MainnetProgramID,
		&BondingCurveSwapInstructionAccounts{
			Global:            PumpGlobal,
			FeeRecipient:      PumpFeeRecipient,
			Mint:              mint,
			BondingCurve:      curve,
			BondingCurveVault: vault,
			UserTokenAccount:  userTokenAccount,
			User:              user,
			SystemProgram:     SystemProgramID,
			TokenProgram:      SplTokenProgramID,
			RentSysvar:        SysvarRentPublicKey,
			EventAuthority:    PumpEventAuthority,
			Program:           PumpProgramID,
		},
		&CurveSwapInstructionArgs{Amount: 351100, Limit: 11000000},
	)
	require.NoError(t, err)

	assert.Equal(t, MainnetProgramID, ixn.Program)
	expectedData, err := EncodePayload(BondingCurveBuy, 351100, 11000000)
	require.NoError(t, err)
	assert.Equal(t, expectedData, ixn.Data)

	assert.Equal(t, []solana.AccountMeta{
		solana.NewReadonlyAccountMeta(solana.MustParseAddress("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf"), false),
		solana.NewAccountMeta(solana.MustParseAddress("62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV"), false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewAccountMeta(solana.MustParseAddress("C97bmxfnBD4fdxxUCfYWQJNH3Ym636WJfgoPYURT4tKJ"), false),
		solana.NewAccountMeta(solana.MustParseAddress("7P9GTMQJiTsBa39nDZzRtjoUj9cNADUWzZPotLiUBF9X"), false),
		solana.NewAccountMeta(solana.MustParseAddress("A2NmGGEaKkh98apekrL255eCwxPq87oAqDaoqU7DGdnF"), false),
		solana.NewAccountMeta(user, true),
		solana.NewReadonlyAccountMeta(solana.MustParseAddress("11111111111111111111111111111111"), false),
		solana.NewReadonlyAccountMeta(solana.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"), false),
		solana.NewReadonlyAccountMeta(solana.MustParseAddress("SysvarRent111111111111111111111111111111111"), false),
		solana.NewReadonlyAccountMeta(solana.MustParseAddress("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1"), false),
		solana.NewReadonlyAccountMeta(solana.MustParseAddress("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"), false),
	}, ixn.Accounts)

	sell, err := NewBondingCurveSellInstruction(
		MainnetProgramID,
		&BondingCurveSwapInstructionAccounts{
			Global:            PumpGlobal,
			FeeRecipient:      PumpFeeRecipient,
			Mint:              mint,
			BondingCurve:      curve,
			BondingCurveVault: vault,
			UserTokenAccount:  userTokenAccount,
			User:              user,
			SystemProgram:     SystemProgramID,
			TokenProgram:      SplTokenProgramID,
			RentSysvar:        SysvarRentPublicKey,
			EventAuthority:    PumpEventAuthority,
			Program:           PumpProgramID,
		},
		&CurveSwapInstructionArgs{Amount: 1000000},
	)
	require.NoError(t, err)
	assert.Equal(t, ixn.Accounts, sell.Accounts)
	assert.Equal(t, BondingCurveSellSelector[:], sell.Data[:SelectorSize])
}

func TestNewAmmInstructions(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 5)

	accounts := &AmmSwapInstructionAccounts{
		Global:           PumpGlobal,
		FeeRecipient:     PumpFeeRecipient,
		Mint:             keys[0],
		Pool:             keys[1],
		PoolVault:        keys[2],
		UserTokenAccount: keys[3],
		User:             keys[4],
		SystemProgram:    SystemProgramID,
		TokenProgram:     SplTokenProgramID,
		RentSysvar:       SysvarRentPublicKey,
		EventAuthority:   PumpEventAuthority,
		Program:          PumpAmmProgramID,
	}

	buy, err := NewAmmBuyInstruction(DevnetProgramID, accounts, &CurveSwapInstructionArgs{Amount: 5, Limit: 6})
	require.NoError(t, err)
	sell, err := NewAmmSellInstruction(DevnetProgramID, accounts, &CurveSwapInstructionArgs{Amount: 5, Limit: 6})
	require.NoError(t, err)

	for _, ixn := range []solana.Instruction{buy, sell} {
		assert.Equal(t, DevnetProgramID, ixn.Program)
		require.Len(t, ixn.Accounts, 12)
		assert.Equal(t, keys[1], ixn.Accounts[3].PublicKey)
		assert.Equal(t, keys[2], ixn.Accounts[4].PublicKey)
		assert.Equal(t, keys[4], ixn.Accounts[6].PublicKey)
		assert.True(t, ixn.Accounts[6].IsSigner)
		assert.Equal(t, PumpAmmProgramID, ixn.Accounts[11].PublicKey)
	}
	assert.Equal(t, AmmBuySelector[:], buy.Data[:SelectorSize])
	assert.Equal(t, AmmSellSelector[:], sell.Data[:SelectorSize])
}

func TestNewRoutedInstructions(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	pool := solana.MustParseAddress("B6wsohtrxtsFxpBriMhUcGqcWspMxJcMf7Fzoei8X7d8")
	coinVault := solana.MustParseAddress("4WTsDp9XMTd7i2kxbgpxMEcp4ypP5VRU3pWuLqxiJxCR")
	pcVault := solana.MustParseAddress("Ai3GCwGYeGuNq879LKUwyUKeReKV5eLaUpfc7W7DPhf")

	accounts := &RoutedSwapInstructionAccounts{
		Program:                 RaydiumV4ProgramID,
		TokenProgram:            SplTokenProgramID,
		Pool:                    pool,
		Authority:               RaydiumV4Authority,
		CoinVault:               coinVault,
		PcVault:                 pcVault,
		SourceTokenAccount:      keys[0],
		DestinationTokenAccount: keys[1],
		User:                    keys[2],
	}

	buy, err := NewRoutedBuyInstruction(MainnetProgramID, accounts, &RoutedSwapInstructionArgs{
		Index:  SwapBaseIn,
		Amount: 351100,
		Limit:  11000000,
	})
	require.NoError(t, err)

	expected, err := EncodePayload(RoutedBuy, 9, 351100, 11000000)
	require.NoError(t, err)
	assert.Equal(t, expected, buy.Data)

	assert.Equal(t, []solana.AccountMeta{
		solana.NewReadonlyAccountMeta(RaydiumV4ProgramID, false),
		solana.NewReadonlyAccountMeta(SplTokenProgramID, false),
		solana.NewAccountMeta(pool, false),
		solana.NewAccountMeta(RaydiumV4Authority, false),
		solana.NewAccountMeta(coinVault, false),
		solana.NewAccountMeta(pcVault, false),
		solana.NewAccountMeta(keys[0], false),
		solana.NewAccountMeta(keys[1], false),
		solana.NewAccountMeta(keys[2], true),
	}, buy.Accounts)

	// Sells carry no index byte, even when one is set.
	sell, err := NewRoutedSellInstruction(MainnetProgramID, accounts, &RoutedSwapInstructionArgs{
		Index:  SwapBaseIn,
		Amount: 1000000,
	})
	require.NoError(t, err)
	assert.Len(t, sell.Data, 24)
	assert.Equal(t, RoutedSellSelector[:], sell.Data[:SelectorSize])
}

func TestNewCreateAccountInstruction(t *testing.T) {
	user := solana.MustParseAddress("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	mint := solana.MustParseAddress("HzTV9ZgLJKGmPnYy2c5Pvganm7A2PsNhWBj3e2sgpump")
	ata := solana.MustParseAddress("A2NmGGEaKkh98apekrL255eCwxPq87oAqDaoqU7DGdnF")

	ixn, err := NewCreateAccountInstruction(
		MainnetProgramID,
		&CreateAccountInstructionAccounts{
			Payer:                  user,
			AssociatedAccount:      ata,
			Mint:                   mint,
			SystemProgram:          SystemProgramID,
			TokenProgram:           SplTokenProgramID,
			AssociatedTokenProgram: AssociatedTokenID,
		},
		&CreateAccountInstructionArgs{Flag: CreateAccountFlagCreate},
	)
	require.NoError(t, err)

	assert.Equal(t, []byte{22, 51, 53, 97, 247, 184, 54, 78, 0}, ixn.Data)
	assert.Equal(t, []solana.AccountMeta{
		solana.NewAccountMeta(user, true),
		solana.NewAccountMeta(ata, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(SystemProgramID, false),
		solana.NewReadonlyAccountMeta(SplTokenProgramID, false),
		solana.NewReadonlyAccountMeta(AssociatedTokenID, false),
	}, ixn.Accounts)
}

func TestNewExpireAtSlotInstruction(t *testing.T) {
	ixn, err := NewExpireAtSlotInstruction(MainnetProgramID, &ExpireAtSlotInstructionArgs{Slot: 300_000_000})
	require.NoError(t, err)

	assert.Equal(t, MainnetProgramID, ixn.Program)
	assert.Empty(t, ixn.Accounts)
	assert.Equal(t, []byte{0xa9, 0x86, 0x21, 0x3e, 0xa8, 0x02, 0xf6, 0xb0, 0x00, 0xa3, 0xe1, 0x11, 0x00, 0x00, 0x00, 0x00}, ixn.Data)
}
