package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/solana/binary"
)

// ProgramKey is 11111111111111111111111111111111
var ProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

type Command uint32

const (
	CommandCreateAccount Command = iota
	CommandAssign
	CommandTransfer
	CommandCreateAccountWithSeed
)

func commandPrefix(c Command) []byte {
	data := make([]byte, 4)
	var offset int
	binary.PutUint32(data, uint32(c), &offset)
	return data
}

// CreateAccountWithSeed creates an account at the address derived by
// solana.CreateWithSeed(base, seed, owner). The base account only signs
// separately when it differs from the funder.
//
//	0. [WRITE, SIGNER] Funding account
//	1. [WRITE] Created account
//	2. [SIGNER] (optional) Base account
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L324-L342
func CreateAccountWithSeed(funder, address, base ed25519.PublicKey, seed string, lamports, size uint64, owner ed25519.PublicKey) solana.Instruction {
	data := make([]byte, 4+32+binary.StringSize(seed)+8+8+32)

	var offset int
	binary.PutUint32(data, uint32(CommandCreateAccountWithSeed), &offset)
	binary.PutKey32(data[offset:], base, &offset)
	binary.PutString(data[offset:], seed, &offset)
	binary.PutUint64(data[offset:], lamports, &offset)
	binary.PutUint64(data[offset:], size, &offset)
	binary.PutKey32(data[offset:], owner, &offset)

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, false),
	}
	if !bytes.Equal(base, funder) {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(base, true))
	}

	return solana.NewInstruction(ProgramKey, data, accounts...)
}

type DecompiledCreateAccountWithSeed struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Base     ed25519.PublicKey
	Seed     string
	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccountWithSeed(m solana.Message, index int) (*DecompiledCreateAccountWithSeed, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, commandPrefix(CommandCreateAccountWithSeed)) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) < 2 || len(i.Accounts) > 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledCreateAccountWithSeed{
		Funder:  m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
	}

	offset := 4
	if len(i.Data) < offset+32 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	binary.GetKey32(i.Data[offset:], &v.Base, &offset)
	if !binary.GetString(i.Data[offset:], &v.Seed, &offset) {
		return nil, errors.New("invalid seed encoding")
	}
	if len(i.Data) != offset+8+8+32 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	binary.GetUint64(i.Data[offset:], &v.Lamports, &offset)
	binary.GetUint64(i.Data[offset:], &v.Size, &offset)
	binary.GetKey32(i.Data[offset:], &v.Owner, &offset)

	return v, nil
}
