package proxy

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload_BondingCurveBuy(t *testing.T) {
	data, err := EncodePayload(BondingCurveBuy, 351100, 11000000)
	require.NoError(t, err)

	assert.Equal(t, []byte{
		0x52, 0xe1, 0x77, 0xe7, 0x4e, 0x1d, 0x2d, 0x46,
		0x7c, 0x5b, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xc0, 0xd8, 0xa7, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, data)
}

func TestEncodePayload_RoutedBuy(t *testing.T) {
	data, err := EncodePayload(RoutedBuy, uint64(SwapBaseIn), 351100, 11000000)
	require.NoError(t, err)

	expected := []byte{0xb6, 0x4d, 0xe8, 0x27, 0x75, 0x8a, 0xb7, 0x48, 0x09}
	expected = binary.LittleEndian.AppendUint64(expected, 351100)
	expected = binary.LittleEndian.AppendUint64(expected, 11000000)
	assert.Equal(t, expected, data)
	assert.Len(t, data, 25)
}

func TestEncodePayload_Layouts(t *testing.T) {
	for _, tc := range []struct {
		op       Operation
		values   []uint64
		expected []byte
	}{
		{
			op:       BondingCurveSell,
			values:   []uint64{1000000, 0},
			expected: []byte{0x53, 0xe1, 0x77, 0xe7, 0x4e, 0x1d, 0x2d, 0x46, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			op:       AmmBuy,
			values:   []uint64{1, 2},
			expected: []byte{0x81, 0x3b, 0xb3, 0xc3, 0x6e, 0x87, 0x3d, 0x02, 1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			op:       AmmSell,
			values:   []uint64{math.MaxUint64, 3},
			expected: []byte{0x82, 0x3b, 0xb3, 0xc3, 0x6e, 0x87, 0x3d, 0x02, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 3, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			op:       RoutedSell,
			values:   []uint64{1000000, 0},
			expected: []byte{0xb7, 0x4d, 0xe8, 0x27, 0x75, 0x8a, 0xb7, 0x48, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			op:       CreateAccount,
			values:   []uint64{0},
			expected: []byte{0x16, 0x33, 0x35, 0x61, 0xf7, 0xb8, 0x36, 0x4e, 0x00},
		},
		{
			op:       CreateAccount,
			values:   []uint64{1},
			expected: []byte{0x16, 0x33, 0x35, 0x61, 0xf7, 0xb8, 0x36, 0x4e, 0x01},
		},
		{
			op:       ExpireAtSlot,
			values:   []uint64{0x0102030405060708},
			expected: []byte{0xa9, 0x86, 0x21, 0x3e, 0xa8, 0x02, 0xf6, 0xb0, 8, 7, 6, 5, 4, 3, 2, 1},
		},
	} {
		actual, err := EncodePayload(tc.op, tc.values...)
		require.NoError(t, err, tc.op)
		assert.Equal(t, tc.expected, actual, tc.op)

		size, err := PayloadSize(tc.op)
		require.NoError(t, err)
		assert.Len(t, actual, size)
	}
}

func TestEncodePayload_Deterministic(t *testing.T) {
	for _, op := range Operations() {
		fields, err := Layout(op)
		require.NoError(t, err)

		values := make([]uint64, len(fields))
		for i, f := range fields {
			values[i] = rand.Uint64() % (f.max()/2 + 1)
		}

		first, err := EncodePayload(op, values...)
		require.NoError(t, err)
		second, err := EncodePayload(op, values...)
		require.NoError(t, err)
		assert.Equal(t, first, second, op)
	}
}

func TestEncodePayload_InvalidArgument(t *testing.T) {
	_, err := EncodePayload(RoutedBuy, 256, 1, 1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = EncodePayload(CreateAccount, math.MaxUint64)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = EncodePayload(BondingCurveBuy, 1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = EncodePayload(BondingCurveBuy, 1, 2, 3)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	data, err := EncodePayload(RoutedBuy, math.MaxUint8, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, math.MaxUint8, data[SelectorSize])
}

func TestEncodePayload_UnknownOperation(t *testing.T) {
	for _, op := range []Operation{
		{},
		{Protocol: ProtocolRouted, Action: ActionCreateAccount},
		{Protocol: ProtocolGuard, Action: ActionBuy},
		{Protocol: Protocol(99), Action: ActionBuy},
	} {
		data, err := EncodePayload(op, 1, 2)
		assert.True(t, errors.Is(err, ErrUnknownOperation), op)
		assert.Nil(t, data)

		_, err = Layout(op)
		assert.True(t, errors.Is(err, ErrUnknownOperation))
		_, err = GetSelector(op)
		assert.True(t, errors.Is(err, ErrUnknownOperation))
	}
}

func TestAmountRoundTrip(t *testing.T) {
	amounts := []uint64{0, 1, math.MaxUint32, math.MaxUint64 - 1, math.MaxUint64}
	for i := 0; i < 1000; i++ {
		amounts = append(amounts, rand.Uint64())
	}

	for _, amount := range amounts {
		data, err := EncodePayload(AmmSell, amount, math.MaxUint64-amount)
		require.NoError(t, err)

		op, values, err := DecodePayload(data)
		require.NoError(t, err)
		assert.Equal(t, AmmSell, op)
		assert.Equal(t, []uint64{amount, math.MaxUint64 - amount}, values)

		assert.Equal(t, amount, binary.LittleEndian.Uint64(data[SelectorSize:]))
	}
}

func TestDecodePayload(t *testing.T) {
	for _, op := range Operations() {
		fields, err := Layout(op)
		require.NoError(t, err)

		values := make([]uint64, len(fields))
		for i, f := range fields {
			values[i] = rand.Uint64() % (f.max()/2 + 1)
		}

		data, err := EncodePayload(op, values...)
		require.NoError(t, err)

		decodedOp, decodedValues, err := DecodePayload(data)
		require.NoError(t, err)
		assert.Equal(t, op, decodedOp)
		assert.Equal(t, values, decodedValues)
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	_, _, err := DecodePayload([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrUnknownSelector))

	_, _, err = DecodePayload(make([]byte, 24))
	assert.True(t, errors.Is(err, ErrUnknownSelector))

	data, err := EncodePayload(BondingCurveBuy, 1, 2)
	require.NoError(t, err)

	_, _, err = DecodePayload(data[:len(data)-1])
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, _, err = DecodePayload(append(data, 0))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestSelectors_Unique(t *testing.T) {
	seen := make(map[Selector]Operation)
	for _, op := range Operations() {
		selector, err := GetSelector(op)
		require.NoError(t, err)

		other, ok := seen[selector]
		assert.False(t, ok, "%s shares selector %s with %s", op, selector, other)
		seen[selector] = op

		data, err := EncodePayload(op, make([]uint64, len(mustLayout(t, op)))...)
		require.NoError(t, err)
		actual, err := GetOperation(data)
		require.NoError(t, err)
		assert.Equal(t, op, actual)
	}
	assert.Len(t, seen, 8)
}

func TestParseOperation(t *testing.T) {
	for _, op := range Operations() {
		parsed, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}

	assert.Equal(t, "bonding_curve_buy", BondingCurveBuy.String())
	assert.Equal(t, "routed_sell", RoutedSell.String())

	_, err := ParseOperation("routed_create_account")
	assert.Equal(t, ErrUnknownOperation, err)
}

func mustLayout(t *testing.T, op Operation) []Field {
	fields, err := Layout(op)
	require.NoError(t, err)
	return fields
}
