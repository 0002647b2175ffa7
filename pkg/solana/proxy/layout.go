package proxy

import (
	"math"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana/binary"
)

// FieldWidth is the encoded size, in bytes, of a payload field.
type FieldWidth int

const (
	U8  FieldWidth = 1
	U64 FieldWidth = 8
)

// Field is a single fixed width, little endian payload argument.
type Field struct {
	Name  string
	Width FieldWidth
}

func (f Field) max() uint64 {
	if f.Width == U8 {
		return math.MaxUint8
	}
	return math.MaxUint64
}

var (
	buyFields = []Field{
		{Name: "amount", Width: U64},
		{Name: "max_cost", Width: U64},
	}
	sellFields = []Field{
		{Name: "amount", Width: U64},
		{Name: "min_out", Width: U64},
	}
	routedBuyFields = []Field{
		{Name: "index", Width: U8},
		{Name: "amount", Width: U64},
		{Name: "max_cost", Width: U64},
	}
	createAccountFields = []Field{
		{Name: "flag", Width: U8},
	}
	expireAtSlotFields = []Field{
		{Name: "slot", Width: U64},
	}
)

// Layout returns the ordered argument fields that follow the selector.
func Layout(op Operation) ([]Field, error) {
	var fields []Field
	switch op {
	case BondingCurveBuy, AmmBuy:
		fields = buyFields
	case BondingCurveSell, AmmSell, RoutedSell:
		fields = sellFields
	case RoutedBuy:
		fields = routedBuyFields
	case CreateAccount:
		fields = createAccountFields
	case ExpireAtSlot:
		fields = expireAtSlotFields
	default:
		return nil, errors.Wrapf(ErrUnknownOperation, "no layout for %s", op)
	}
	return append([]Field(nil), fields...), nil
}

// PayloadSize is the total encoded size of op's payload, selector included.
func PayloadSize(op Operation) (int, error) {
	fields, err := Layout(op)
	if err != nil {
		return 0, err
	}

	size := SelectorSize
	for _, f := range fields {
		size += int(f.Width)
	}
	return size, nil
}

// EncodePayload serializes op's selector followed by values, one per layout
// field, in wire order.
func EncodePayload(op Operation, values ...uint64) ([]byte, error) {
	selector, err := GetSelector(op)
	if err != nil {
		return nil, err
	}
	fields, err := Layout(op)
	if err != nil {
		return nil, err
	}
	if len(values) != len(fields) {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s takes %d arguments, got %d", op, len(fields), len(values))
	}

	size, err := PayloadSize(op)
	if err != nil {
		return nil, err
	}

	data := make([]byte, size)
	offset := copy(data, selector[:])
	for i, f := range fields {
		if values[i] > f.max() {
			return nil, errors.Wrapf(ErrInvalidArgument, "%s: %s=%d exceeds %d byte width", op, f.Name, values[i], f.Width)
		}

		switch f.Width {
		case U8:
			binary.PutUint8(data[offset:], uint8(values[i]), &offset)
		case U64:
			binary.PutUint64(data[offset:], values[i], &offset)
		}
	}

	return data, nil
}

// The argument structs mirror each layout for borsh decoding.
type (
	SwapArgs struct {
		Amount uint64
		Limit  uint64
	}

	RoutedBuyArgs struct {
		Index  uint8
		Amount uint64
		Limit  uint64
	}

	CreateAccountArgs struct {
		Flag uint8
	}

	ExpireAtSlotArgs struct {
		Slot uint64
	}
)

// DecodePayload identifies the operation data selects and returns its
// argument values in layout order.
func DecodePayload(data []byte) (op Operation, values []uint64, err error) {
	op, err = GetOperation(data)
	if err != nil {
		return Operation{}, nil, err
	}

	size, err := PayloadSize(op)
	if err != nil {
		return Operation{}, nil, err
	}
	if len(data) != size {
		return Operation{}, nil, errors.Wrapf(ErrInvalidArgument, "%s payload is %d bytes, expected %d", op, len(data), size)
	}

	defer func() {
		if r := recover(); r != nil {
			op, values, err = Operation{}, nil, errors.Wrapf(ErrInvalidArgument, "malformed %s payload: %v", op, r)
		}
	}()

	args := data[SelectorSize:]
	switch op {
	case BondingCurveBuy, BondingCurveSell, AmmBuy, AmmSell, RoutedSell:
		var v SwapArgs
		if err := borsh.Deserialize(&v, args); err != nil {
			return Operation{}, nil, errors.Wrap(err, "failed to decode swap arguments")
		}
		values = []uint64{v.Amount, v.Limit}
	case RoutedBuy:
		var v RoutedBuyArgs
		if err := borsh.Deserialize(&v, args); err != nil {
			return Operation{}, nil, errors.Wrap(err, "failed to decode routed buy arguments")
		}
		values = []uint64{uint64(v.Index), v.Amount, v.Limit}
	case CreateAccount:
		var v CreateAccountArgs
		if err := borsh.Deserialize(&v, args); err != nil {
			return Operation{}, nil, errors.Wrap(err, "failed to decode create account arguments")
		}
		values = []uint64{uint64(v.Flag)}
	case ExpireAtSlot:
		var v ExpireAtSlotArgs
		if err := borsh.Deserialize(&v, args); err != nil {
			return Operation{}, nil, errors.Wrap(err, "failed to decode expiry arguments")
		}
		values = []uint64{v.Slot}
	default:
		return Operation{}, nil, errors.Wrapf(ErrUnknownOperation, "no decoder for %s", op)
	}

	return op, values, nil
}
