package solana

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta is a single account reference within an instruction.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

// NewAccountMeta creates a writable AccountMeta.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a readonly AccountMeta.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey: pub,
		IsSigner:  isSigner,
	}
}

func (a AccountMeta) String() string {
	flags := "r"
	if a.IsWritable {
		flags = "w"
	}
	if a.IsSigner {
		flags = "s" + flags
	}
	return base58.Encode(a.PublicKey) + ":" + flags
}

// SortableAccountMeta orders accounts by the message account rules: payer
// first, then signers before non-signers, writable before readonly, and
// invoked programs last.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
type SortableAccountMeta []AccountMeta

func (s SortableAccountMeta) Len() int      { return len(s) }
func (s SortableAccountMeta) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s SortableAccountMeta) Less(i, j int) bool {
	switch {
	case s[i].isPayer != s[j].isPayer:
		return s[i].isPayer
	case s[i].isProgram != s[j].isProgram:
		return !s[i].isProgram
	case s[i].IsSigner != s[j].IsSigner:
		return s[i].IsSigner
	case s[i].IsWritable != s[j].IsWritable:
		return s[i].IsWritable
	}
	return bytes.Compare(s[i].PublicKey, s[j].PublicKey) < 0
}

// Instruction is a program invocation: the target program, its ordered
// account list and an opaque payload.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// References reports whether the instruction lists the account, either as
// the invoked program or in its account list.
func (i Instruction) References(account ed25519.PublicKey) bool {
	if bytes.Equal(i.Program, account) {
		return true
	}
	for _, a := range i.Accounts {
		if bytes.Equal(a.PublicKey, account) {
			return true
		}
	}
	return false
}

// CompiledInstruction is an instruction whose program and accounts are
// replaced by indexes into the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
