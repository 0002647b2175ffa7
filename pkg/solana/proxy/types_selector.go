package proxy

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

const SelectorSize = 8

// Selector is the discriminator the proxy dispatches on.
type Selector [SelectorSize]byte

var (
	BondingCurveBuySelector  = Selector{0x52, 0xe1, 0x77, 0xe7, 0x4e, 0x1d, 0x2d, 0x46}
	BondingCurveSellSelector = Selector{0x53, 0xe1, 0x77, 0xe7, 0x4e, 0x1d, 0x2d, 0x46}
	AmmBuySelector           = Selector{0x81, 0x3b, 0xb3, 0xc3, 0x6e, 0x87, 0x3d, 0x02}
	AmmSellSelector          = Selector{0x82, 0x3b, 0xb3, 0xc3, 0x6e, 0x87, 0x3d, 0x02}
	RoutedBuySelector        = Selector{0xb6, 0x4d, 0xe8, 0x27, 0x75, 0x8a, 0xb7, 0x48}
	RoutedSellSelector       = Selector{0xb7, 0x4d, 0xe8, 0x27, 0x75, 0x8a, 0xb7, 0x48}
	CreateAccountSelector    = Selector{0x16, 0x33, 0x35, 0x61, 0xf7, 0xb8, 0x36, 0x4e}
	ExpireAtSlotSelector     = Selector{0xa9, 0x86, 0x21, 0x3e, 0xa8, 0x02, 0xf6, 0xb0}
)

func (s Selector) String() string {
	return hex.EncodeToString(s[:])
}

// GetSelector returns the selector for op.
func GetSelector(op Operation) (Selector, error) {
	switch op {
	case BondingCurveBuy:
		return BondingCurveBuySelector, nil
	case BondingCurveSell:
		return BondingCurveSellSelector, nil
	case AmmBuy:
		return AmmBuySelector, nil
	case AmmSell:
		return AmmSellSelector, nil
	case RoutedBuy:
		return RoutedBuySelector, nil
	case RoutedSell:
		return RoutedSellSelector, nil
	case CreateAccount:
		return CreateAccountSelector, nil
	case ExpireAtSlot:
		return ExpireAtSlotSelector, nil
	}
	return Selector{}, errors.Wrapf(ErrUnknownOperation, "no selector for %s", op)
}

// GetOperation identifies the operation a payload selects.
func GetOperation(data []byte) (Operation, error) {
	if len(data) < SelectorSize {
		return Operation{}, errors.Wrapf(ErrUnknownSelector, "payload too short: %d", len(data))
	}

	var selector Selector
	copy(selector[:], data)

	for _, op := range Operations() {
		candidate, err := GetSelector(op)
		if err != nil {
			return Operation{}, err
		}
		if candidate == selector {
			return op, nil
		}
	}
	return Operation{}, errors.Wrapf(ErrUnknownSelector, "%s", selector)
}
