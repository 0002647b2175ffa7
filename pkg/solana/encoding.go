package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana/shortvec"
)

const versionPrefix = 0x80

// Marshal serializes the transaction into its wire format.
func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

// Unmarshal parses a wire format transaction.
func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	count, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, count)
	for i := range t.Signatures {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return t.Message.Unmarshal(buf.Bytes())
}

// Marshal serializes the message, which is also the payload covered by
// signatures.
func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	switch m.version {
	case MessageVersionLegacy:
	case MessageVersion0:
		_ = b.WriteByte(versionPrefix | byte(m.version-1))
	default:
		panic("unsupported message version")
	}

	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	_, _ = b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, ix := range m.Instructions {
		_ = b.WriteByte(ix.ProgramIndex)
		writeBytes(b, ix.Accounts)
		writeBytes(b, ix.Data)
	}

	if m.version == MessageVersion0 {
		_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
		for _, l := range m.AddressTableLookups {
			_, _ = b.Write(l.PublicKey)
			writeBytes(b, l.WritableIndexes)
			writeBytes(b, l.ReadonlyIndexes)
		}
	}

	return b.Bytes()
}

// Unmarshal parses a legacy or v0 message.
func (m *Message) Unmarshal(b []byte) (err error) {
	if len(b) == 0 {
		return errors.New("empty message")
	}

	buf := bytes.NewBuffer(b)

	m.version = MessageVersionLegacy
	if b[0]&versionPrefix != 0 {
		prefix, _ := buf.ReadByte()
		if prefix&^versionPrefix != 0 {
			return errors.Errorf("unsupported message version %d", prefix&^versionPrefix)
		}
		m.version = MessageVersion0
	}

	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadOnly, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	count, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]ed25519.PublicKey, count)
	for i := range m.Accounts {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	if _, err = io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	count, err = shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, count)
	for i := range m.Instructions {
		var c CompiledInstruction

		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		if c.Accounts, err = readBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}
		if c.Data, err = readBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		// Lookup table indexes extend past the static accounts, so range
		// checks only hold for legacy messages.
		if m.version == MessageVersionLegacy {
			if int(c.ProgramIndex) >= len(m.Accounts) {
				return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
			}
			for _, index := range c.Accounts {
				if int(index) >= len(m.Accounts) {
					return errors.Errorf("account index out of range: %d:%d", i, index)
				}
			}
		}

		m.Instructions[i] = c
	}

	m.AddressTableLookups = nil
	if m.version != MessageVersion0 {
		return nil
	}

	count, err = shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read address table lookup len")
	}
	for i := 0; i < count; i++ {
		var l MessageAddressTableLookup

		l.PublicKey = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, l.PublicKey); err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] table", i)
		}
		if l.WritableIndexes, err = readBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] writable indexes", i)
		}
		if l.ReadonlyIndexes, err = readBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] readonly indexes", i)
		}

		m.AddressTableLookups = append(m.AddressTableLookups, l)
	}

	return nil
}

func writeBytes(b *bytes.Buffer, v []byte) {
	_, _ = shortvec.EncodeLen(b, len(v))
	_, _ = b.Write(v)
}

func readBytes(buf *bytes.Buffer) ([]byte, error) {
	n, err := shortvec.DecodeLen(buf)
	if err != nil {
		return nil, err
	}
	v := make([]byte, n)
	if _, err = io.ReadFull(buf, v); err != nil {
		return nil, err
	}
	return v, nil
}
