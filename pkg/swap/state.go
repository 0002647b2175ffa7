package swap

import (
	"github.com/dexproxy/proxy-client/pkg/solana"
)

// State is the lifecycle position of a planned transaction.
//
//	Unsigned -> PartiallySigned -> FullySigned -> Submitted -> {Confirmed | Failed | Unknown}
//
// Only FullySigned transactions are broadcast. A Submitted receipt produced
// with preflight bypassed is provisional.
type State uint8

const (
	StateUnknown State = iota
	StateUnsigned
	StatePartiallySigned
	StateFullySigned
	StateSubmitted
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnsigned:
		return "unsigned"
	case StatePartiallySigned:
		return "partially_signed"
	case StateFullySigned:
		return "fully_signed"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is expected locally.
func (s State) IsTerminal() bool {
	switch s {
	case StateConfirmed, StateFailed, StateUnknown:
		return true
	}
	return false
}

// SigningState maps a transaction's signature slots onto the lifecycle.
func SigningState(txn *solana.Transaction) State {
	switch txn.SignatureState() {
	case solana.PartiallySigned:
		return StatePartiallySigned
	case solana.FullySigned:
		return StateFullySigned
	}
	return StateUnsigned
}
