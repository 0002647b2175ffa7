package proxy

import "fmt"

// Protocol identifies which exchange (or helper) a proxy instruction targets.
type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolBondingCurve
	ProtocolAmm
	ProtocolRouted
	ProtocolAssociatedToken
	ProtocolGuard
)

func (p Protocol) String() string {
	switch p {
	case ProtocolBondingCurve:
		return "bonding_curve"
	case ProtocolAmm:
		return "amm"
	case ProtocolRouted:
		return "routed"
	case ProtocolAssociatedToken:
		return "associated_token"
	case ProtocolGuard:
		return "guard"
	}
	return "unknown"
}

type Action uint8

const (
	ActionUnknown Action = iota
	ActionBuy
	ActionSell
	ActionCreateAccount
	ActionExpireAtSlot
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	case ActionCreateAccount:
		return "create_account"
	case ActionExpireAtSlot:
		return "expire_at_slot"
	}
	return "unknown"
}

// Operation is a (protocol, action) pair. Only the pairs listed in
// Operations are understood by the proxy.
type Operation struct {
	Protocol Protocol
	Action   Action
}

var (
	BondingCurveBuy  = Operation{ProtocolBondingCurve, ActionBuy}
	BondingCurveSell = Operation{ProtocolBondingCurve, ActionSell}
	AmmBuy           = Operation{ProtocolAmm, ActionBuy}
	AmmSell          = Operation{ProtocolAmm, ActionSell}
	RoutedBuy        = Operation{ProtocolRouted, ActionBuy}
	RoutedSell       = Operation{ProtocolRouted, ActionSell}
	CreateAccount    = Operation{ProtocolAssociatedToken, ActionCreateAccount}
	ExpireAtSlot     = Operation{ProtocolGuard, ActionExpireAtSlot}
)

// Operations returns every operation the proxy dispatches, in selector table
// order.
func Operations() []Operation {
	return []Operation{
		BondingCurveBuy,
		BondingCurveSell,
		AmmBuy,
		AmmSell,
		RoutedBuy,
		RoutedSell,
		CreateAccount,
		ExpireAtSlot,
	}
}

func (o Operation) String() string {
	return fmt.Sprintf("%s_%s", o.Protocol, o.Action)
}

// ParseOperation is the inverse of Operation.String.
func ParseOperation(s string) (Operation, error) {
	for _, op := range Operations() {
		if op.String() == s {
			return op, nil
		}
	}
	return Operation{}, ErrUnknownOperation
}
