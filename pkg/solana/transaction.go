package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize is the packet data limit for a serialized transaction.
	//
	// Reference: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

// ParseBlockhash decodes a base58 encoded blockhash.
func ParseBlockhash(s string) (bh Blockhash, err error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return bh, errors.Wrap(err, "invalid base58 blockhash")
	}
	if len(decoded) != len(bh) {
		return bh, errors.Errorf("invalid blockhash length %d", len(decoded))
	}
	copy(bh[:], decoded)
	return bh, nil
}

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

func (v MessageVersion) String() string {
	switch v {
	case MessageVersionLegacy:
		return "legacy"
	case MessageVersion0:
		return "v0"
	}
	return "unknown"
}

// SignatureState describes how many of the required signature slots of a
// transaction have been filled.
type SignatureState uint8

const (
	Unsigned SignatureState = iota
	PartiallySigned
	FullySigned
)

func (s SignatureState) String() string {
	switch s {
	case Unsigned:
		return "unsigned"
	case PartiallySigned:
		return "partially_signed"
	case FullySigned:
		return "fully_signed"
	}
	return "unknown"
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

type MessageAddressTableLookup struct {
	PublicKey       ed25519.PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

type Message struct {
	version             MessageVersion
	Header              Header
	Accounts            []ed25519.PublicKey
	RecentBlockhash     Blockhash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// Version returns the wire version of the message.
func (m Message) Version() MessageVersion {
	return m.version
}

// IsSigner reports whether the static account at index must sign.
func (m Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the static account at index is writable.
func (m Message) IsWritable(index int) bool {
	if m.IsSigner(index) {
		return index < int(m.Header.NumSignatures-m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}

// Transaction is a message plus one signature slot per required signer. The
// fee payer always occupies the first account and signature slot.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles a legacy transaction. Instructions keep the order
// they are given in.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	return compile(payer, nil, instructions)
}

// NewVersionedTransaction compiles a v0 transaction, loading eligible
// accounts through the provided lookup tables. Without any table hits the
// result is a legacy transaction.
func NewVersionedTransaction(payer ed25519.PublicKey, addressLookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	return compile(payer, addressLookupTables, instructions)
}

func compile(payer ed25519.PublicKey, addressLookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	accounts := collectAccounts(payer, instructions)

	tables := make([]AddressLookupTable, len(addressLookupTables))
	copy(tables, addressLookupTables)
	sort.Sort(SortableAddressLookupTables(tables))

	writable := make([][]byte, len(tables))
	readonly := make([][]byte, len(tables))

	var m Message
	for _, account := range accounts {
		if table, index, ok := lookup(tables, account); ok {
			if account.IsWritable {
				writable[table] = append(writable[table], index)
			} else {
				readonly[table] = append(readonly[table], index)
			}
			continue
		}

		m.Accounts = append(m.Accounts, account.PublicKey)
		switch {
		case account.IsSigner:
			m.Header.NumSignatures++
			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	// Index space: static accounts, then every table's writable loads,
	// then every table's readonly loads.
	indexSpace := append([]ed25519.PublicKey{}, m.Accounts...)
	for i := range tables {
		for _, index := range writable[i] {
			indexSpace = append(indexSpace, tables[i].Addresses[index])
		}
	}
	for i := range tables {
		for _, index := range readonly[i] {
			indexSpace = append(indexSpace, tables[i].Addresses[index])
		}
	}

	for _, ix := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: byte(indexOf(indexSpace, ix.Program)),
			Data:         ix.Data,
		}
		for _, a := range ix.Accounts {
			compiled.Accounts = append(compiled.Accounts, byte(indexOf(indexSpace, a.PublicKey)))
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	for i, table := range tables {
		if len(writable[i]) == 0 && len(readonly[i]) == 0 {
			continue
		}
		m.AddressTableLookups = append(m.AddressTableLookups, MessageAddressTableLookup{
			PublicKey:       table.PublicKey,
			WritableIndexes: writable[i],
			ReadonlyIndexes: readonly[i],
		})
	}
	if len(m.AddressTableLookups) > 0 {
		m.version = MessageVersion0
	}

	for i := range m.Accounts {
		if len(m.Accounts[i]) == 0 {
			m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// collectAccounts returns the deduplicated, sorted account set referenced by
// the payer and instructions.
func collectAccounts(payer ed25519.PublicKey, instructions []Instruction) []AccountMeta {
	accounts := []AccountMeta{{
		PublicKey:  payer,
		IsSigner:   true,
		IsWritable: true,
		isPayer:    true,
	}}
	for _, ix := range instructions {
		accounts = append(accounts, AccountMeta{PublicKey: ix.Program, isProgram: true})
		accounts = append(accounts, ix.Accounts...)
	}

	accounts = filterUnique(accounts)
	sort.Sort(SortableAccountMeta(accounts))
	return accounts
}

// lookup finds the first table holding the account, if the account can be
// dynamically loaded at all.
func lookup(tables []AddressLookupTable, account AccountMeta) (table int, index byte, ok bool) {
	if account.isPayer || account.IsSigner || account.isProgram {
		return 0, 0, false
	}
	for i, t := range tables {
		if j := indexOf(t.Addresses, account.PublicKey); j >= 0 {
			return i, byte(j), true
		}
	}
	return 0, 0, false
}

// Signature returns the first (fee payer) signature, which identifies the
// transaction.
func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

// SignatureBase58 is the transaction id as reported by RPC nodes.
func (t *Transaction) SignatureBase58() string {
	return base58.Encode(t.Signature())
}

// RequiredSigners returns the accounts that must sign, in signature slot order.
func (t *Transaction) RequiredSigners() []ed25519.PublicKey {
	return t.Message.Accounts[:t.Message.Header.NumSignatures]
}

// SignatureState reports whether each required signature slot is filled.
func (t *Transaction) SignatureState() SignatureState {
	var empty Signature
	var filled int
	for _, s := range t.Signatures {
		if s != empty {
			filled++
		}
	}

	switch {
	case filled == 0:
		return Unsigned
	case filled < len(t.Signatures):
		return PartiallySigned
	}
	return FullySigned
}

// SetBlockhash sets the freshness token. Any existing signatures are cleared,
// since they no longer cover the message.
func (t *Transaction) SetBlockhash(bh Blockhash) {
	if t.Message.RecentBlockhash == bh {
		return
	}
	t.Message.RecentBlockhash = bh
	for i := range t.Signatures {
		t.Signatures[i] = Signature{}
	}
}

// Sign fills the signature slot of every provided signer. A signer that is not
// a required signer of the message is an error.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	message := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, message))
	}

	return nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		fmt.Fprintf(&sb, "  %d: %s\n", i, base58.Encode(s[:]))
	}
	sb.WriteString("Message:\n")
	fmt.Fprintf(&sb, "  Version: %s\n", t.Message.version)
	fmt.Fprintf(&sb, "  Header: %d signatures, %d readonly signed, %d readonly\n",
		t.Message.Header.NumSignatures, t.Message.Header.NumReadonlySigned, t.Message.Header.NumReadOnly)
	fmt.Fprintf(&sb, "  Blockhash: %s\n", t.Message.RecentBlockhash)
	sb.WriteString("  Static Accounts:\n")
	for i, a := range t.Message.Accounts {
		fmt.Fprintf(&sb, "    %d: %s\n", i, base58.Encode(a))
	}
	sb.WriteString("  Instructions:\n")
	for i, ix := range t.Message.Instructions {
		fmt.Fprintf(&sb, "    %d: program=%d accounts=%v data=%x\n", i, ix.ProgramIndex, ix.Accounts, ix.Data)
	}
	for _, l := range t.Message.AddressTableLookups {
		fmt.Fprintf(&sb, "  Lookup %s: writable=%v readonly=%v\n", base58.Encode(l.PublicKey), l.WritableIndexes, l.ReadonlyIndexes)
	}
	return sb.String()
}

// filterUnique merges duplicate accounts, promoting to the most permissive
// signer and writable flags seen.
func filterUnique(accounts []AccountMeta) []AccountMeta {
	filtered := make([]AccountMeta, 0, len(accounts))

	for _, a := range accounts {
		merged := false
		for j := range filtered {
			if !bytes.Equal(a.PublicKey, filtered[j].PublicKey) {
				continue
			}
			filtered[j].IsSigner = filtered[j].IsSigner || a.IsSigner
			filtered[j].IsWritable = filtered[j].IsWritable || a.IsWritable
			filtered[j].isPayer = filtered[j].isPayer || a.isPayer
			merged = true
			break
		}
		if !merged {
			filtered = append(filtered, a)
		}
	}

	return filtered
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}
	return -1
}
