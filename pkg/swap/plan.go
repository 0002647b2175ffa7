package swap

import (
	"crypto/ed25519"

	"github.com/dexproxy/proxy-client/pkg/solana"
	compute_budget "github.com/dexproxy/proxy-client/pkg/solana/computebudget"
	"github.com/dexproxy/proxy-client/pkg/solana/proxy"
)

// EphemeralAccount is a seeded helper account created and funded within a
// single transaction, such as the wrapped SOL account of a routed swap.
type EphemeralAccount struct {
	Address  ed25519.PublicKey
	Base     ed25519.PublicKey
	Seed     string
	Lamports uint64
}

// Plan is an ordered, unsigned set of instructions for one operation.
type Plan struct {
	Operation proxy.Operation
	Payer     ed25519.PublicKey

	Instructions []solana.Instruction

	// Ephemeral is set for plans that create a seeded helper account.
	Ephemeral *EphemeralAccount
}

// Transaction compiles the plan. With lookup tables the result is a v0
// transaction when any account can be loaded through them.
func (p *Plan) Transaction(tables ...solana.AddressLookupTable) solana.Transaction {
	if len(tables) > 0 {
		return solana.NewVersionedTransaction(p.Payer, tables, p.Instructions)
	}
	return solana.NewTransaction(p.Payer, p.Instructions...)
}

// budgetPrefixLength counts the leading compute budget instructions.
func (p *Plan) budgetPrefixLength() int {
	var n int
	for _, ixn := range p.Instructions {
		if !compute_budget.IsBudgetInstruction(ixn) {
			break
		}
		n++
	}
	return n
}
