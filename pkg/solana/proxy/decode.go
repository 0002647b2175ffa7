package proxy

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

// RoleAccount is a resolved template slot.
type RoleAccount struct {
	Role    Role
	Account solana.AccountMeta
}

type DecodedInstruction struct {
	Operation Operation
	Values    []uint64
	Accounts  []RoleAccount
}

// Get returns the address filling role, or nil.
func (d *DecodedInstruction) Get(role Role) ed25519.PublicKey {
	for _, a := range d.Accounts {
		if a.Role == role {
			return a.Account.PublicKey
		}
	}
	return nil
}

// DecodeInstruction reverses NewInstruction. The account list must match the
// operation's template exactly, flags included.
func DecodeInstruction(ixn solana.Instruction) (*DecodedInstruction, error) {
	op, values, err := DecodePayload(ixn.Data)
	if err != nil {
		return nil, err
	}

	slots, err := Template(op)
	if err != nil {
		return nil, err
	}
	if len(ixn.Accounts) != len(slots) {
		return nil, errors.Wrapf(ErrMissingAccount, "%s expects %d accounts, got %d", op, len(slots), len(ixn.Accounts))
	}

	decoded := &DecodedInstruction{
		Operation: op,
		Values:    values,
		Accounts:  make([]RoleAccount, len(slots)),
	}
	for i, slot := range slots {
		account := ixn.Accounts[i]
		if account.IsSigner != slot.IsSigner || account.IsWritable != slot.IsWritable {
			return nil, errors.Errorf("%s: %s at position %d has unexpected flags", op, slot.Role, i)
		}
		decoded.Accounts[i] = RoleAccount{Role: slot.Role, Account: account}
	}

	return decoded, nil
}

// DecompileInstruction decodes the instruction at index of a compiled
// message, which must target the proxy program.
func DecompileInstruction(m solana.Message, index int, proxyProgram ed25519.PublicKey) (*DecodedInstruction, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if int(i.ProgramIndex) >= len(m.Accounts) || !bytes.Equal(m.Accounts[i.ProgramIndex], proxyProgram) {
		return nil, solana.ErrIncorrectProgram
	}

	ixn := solana.Instruction{
		Program:  proxyProgram,
		Data:     i.Data,
		Accounts: make([]solana.AccountMeta, len(i.Accounts)),
	}
	for j, accountIndex := range i.Accounts {
		if int(accountIndex) >= len(m.Accounts) {
			return nil, errors.Errorf("account index %d outside static accounts", accountIndex)
		}
		ixn.Accounts[j] = solana.AccountMeta{
			PublicKey:  m.Accounts[accountIndex],
			IsSigner:   m.IsSigner(int(accountIndex)),
			IsWritable: m.IsWritable(int(accountIndex)),
		}
	}

	return DecodeInstruction(ixn)
}
