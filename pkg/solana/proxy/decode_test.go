package proxy

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/testutil"
)

func TestDecodeInstruction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)

	ixn, err := NewCreateAccountInstruction(
		MainnetProgramID,
		&CreateAccountInstructionAccounts{
			Payer:                  keys[0],
			AssociatedAccount:      keys[1],
			Mint:                   keys[2],
			SystemProgram:          SystemProgramID,
			TokenProgram:           SplTokenProgramID,
			AssociatedTokenProgram: AssociatedTokenID,
		},
		&CreateAccountInstructionArgs{Flag: CreateAccountFlagIdempotent},
	)
	require.NoError(t, err)

	decoded, err := DecodeInstruction(ixn)
	require.NoError(t, err)
	assert.Equal(t, CreateAccount, decoded.Operation)
	assert.Equal(t, []uint64{1}, decoded.Values)
	assert.Equal(t, keys[1], decoded.Get(RoleAssociatedAccount))
	assert.Nil(t, decoded.Get(RoleUser))

	ixn.Accounts[1].IsWritable = false
	_, err = DecodeInstruction(ixn)
	assert.Error(t, err)

	ixn.Accounts = ixn.Accounts[:5]
	_, err = DecodeInstruction(ixn)
	assert.True(t, errors.Is(err, ErrMissingAccount))
}

func TestDecompileInstruction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 6)
	payer := keys[0]

	expire, err := NewExpireAtSlotInstruction(MainnetProgramID, &ExpireAtSlotInstructionArgs{Slot: 42})
	require.NoError(t, err)

	swap, err := NewRoutedBuyInstruction(MainnetProgramID, &RoutedSwapInstructionAccounts{
		Program:                 RaydiumV4ProgramID,
		TokenProgram:            SplTokenProgramID,
		Pool:                    keys[1],
		Authority:               RaydiumV4Authority,
		CoinVault:               keys[2],
		PcVault:                 keys[3],
		SourceTokenAccount:      keys[4],
		DestinationTokenAccount: keys[5],
		User:                    payer,
	}, &RoutedSwapInstructionArgs{Index: SwapBaseIn, Amount: 10, Limit: 20})
	require.NoError(t, err)

	tx := solana.NewTransaction(payer, expire, swap)

	decoded, err := DecompileInstruction(tx.Message, 0, MainnetProgramID)
	require.NoError(t, err)
	assert.Equal(t, ExpireAtSlot, decoded.Operation)
	assert.Equal(t, []uint64{42}, decoded.Values)

	decoded, err = DecompileInstruction(tx.Message, 1, MainnetProgramID)
	require.NoError(t, err)
	assert.Equal(t, RoutedBuy, decoded.Operation)
	assert.Equal(t, []uint64{9, 10, 20}, decoded.Values)
	assert.Equal(t, keys[4], decoded.Get(RoleSourceTokenAccount))
	assert.Equal(t, payer, decoded.Get(RoleUser))

	_, err = DecompileInstruction(tx.Message, 1, DevnetProgramID)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	_, err = DecompileInstruction(tx.Message, 2, MainnetProgramID)
	assert.Error(t, err)
}
