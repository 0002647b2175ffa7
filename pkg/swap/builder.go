package swap

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

// Builder is an append-only, ordered instruction list.
//
// Instruction N may reference only accounts created by instructions before it
// or accounts that already exist. Append enforces this for the accounts each
// instruction declares it creates. Other cross-instruction consistency is the
// caller's responsibility.
type Builder struct {
	instructions []solana.Instruction

	// Keyed by the raw address bytes.
	created    map[string]int
	referenced map[string]int
}

func NewBuilder() *Builder {
	return &Builder{
		created:    make(map[string]int),
		referenced: make(map[string]int),
	}
}

// Append adds ixn after every instruction already in the builder. creates
// lists the accounts that ixn brings into existence.
//
// Nothing is appended on error.
func (b *Builder) Append(ixn solana.Instruction, creates ...ed25519.PublicKey) error {
	index := len(b.instructions)

	seen := make(map[string]struct{}, len(creates))
	for _, account := range creates {
		key := string(account)
		if _, ok := seen[key]; ok {
			return errors.Wrapf(ErrDuplicateCreation, "%s created twice by instruction %d", base58.Encode(account), index)
		}
		seen[key] = struct{}{}

		if prev, ok := b.created[key]; ok {
			return errors.Wrapf(ErrDuplicateCreation, "%s already created by instruction %d", base58.Encode(account), prev)
		}
		if prev, ok := b.referenced[key]; ok {
			return errors.Wrapf(ErrInstructionOrder, "%s referenced by instruction %d before its creation at %d", base58.Encode(account), prev, index)
		}
	}

	for _, account := range creates {
		b.created[string(account)] = index
	}
	b.reference(ixn.Program, index)
	for _, meta := range ixn.Accounts {
		b.reference(meta.PublicKey, index)
	}

	b.instructions = append(b.instructions, ixn)
	return nil
}

func (b *Builder) reference(account ed25519.PublicKey, index int) {
	if _, ok := b.referenced[string(account)]; !ok {
		b.referenced[string(account)] = index
	}
}

// Len returns the number of instructions appended so far.
func (b *Builder) Len() int {
	return len(b.instructions)
}

// Instructions returns the instructions in append order.
func (b *Builder) Instructions() []solana.Instruction {
	return append([]solana.Instruction{}, b.instructions...)
}

// Transaction compiles an unsigned legacy transaction.
func (b *Builder) Transaction(payer ed25519.PublicKey) solana.Transaction {
	return solana.NewTransaction(payer, b.instructions...)
}

// VersionedTransaction compiles an unsigned transaction that loads accounts
// through the provided lookup tables where possible.
func (b *Builder) VersionedTransaction(payer ed25519.PublicKey, tables []solana.AddressLookupTable) solana.Transaction {
	return solana.NewVersionedTransaction(payer, tables, b.Instructions())
}
