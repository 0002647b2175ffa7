package proxy

import (
	"crypto/ed25519"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

type ExpireAtSlotInstructionArgs struct {
	Slot uint64
}

// NewExpireAtSlotInstruction fails the enclosing transaction with SlotExpired
// once the cluster is past args.Slot. It takes no accounts.
func NewExpireAtSlotInstruction(proxyProgram ed25519.PublicKey, args *ExpireAtSlotInstructionArgs) (solana.Instruction, error) {
	return NewInstruction(proxyProgram, ExpireAtSlot, nil, args.Slot)
}
