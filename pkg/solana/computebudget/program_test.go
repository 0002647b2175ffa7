package compute_budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, solana.MustParseAddress("ComputeBudget111111111111111111111111111111"), ProgramKey)
}

func TestSetComputeUnitLimit(t *testing.T) {
	ixn := SetComputeUnitLimit(200_000)
	assert.Equal(t, []byte{2, 0x40, 0x0d, 0x03, 0x00}, ixn.Data)
	assert.Empty(t, ixn.Accounts)
	assert.True(t, IsBudgetInstruction(ixn))

	limit, err := ParseSetComputeUnitLimitIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 200_000, limit)

	_, err = ParseSetComputeUnitLimitIxnData(SetComputeUnitPrice(1).Data)
	assert.Error(t, err)
}

func TestSetComputeUnitPrice(t *testing.T) {
	ixn := SetComputeUnitPrice(1000)
	assert.Equal(t, []byte{3, 0xe8, 0x03, 0, 0, 0, 0, 0, 0}, ixn.Data)

	price, err := ParseSetComputeUnitPriceIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, price)

	_, err = ParseSetComputeUnitPriceIxnData([]byte{4, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestPrefix(t *testing.T) {
	ixns, err := Prefix(0, 0)
	require.NoError(t, err)
	assert.Empty(t, ixns)

	ixns, err = Prefix(300_000, 0)
	require.NoError(t, err)
	require.Len(t, ixns, 1)
	assert.Equal(t, SetComputeUnitLimit(300_000), ixns[0])

	ixns, err = Prefix(300_000, 5)
	require.NoError(t, err)
	require.Len(t, ixns, 2)
	assert.Equal(t, SetComputeUnitPrice(5), ixns[1])

	_, err = Prefix(MaxComputeUnitLimit+1, 0)
	assert.Error(t, err)
	assert.False(t, IsBudgetInstruction(solana.NewInstruction(solana.MustParseAddress("11111111111111111111111111111111"), nil)))
}
