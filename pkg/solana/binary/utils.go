// Package binary holds little-endian helpers for instruction payloads. Every
// helper writes to (or reads from) the start of the given slice and advances
// the caller's offset.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[:ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset++
}

// PutString writes a u64 length prefix followed by the raw bytes.
func PutString(dst []byte, v string, offset *int) {
	binary.LittleEndian.PutUint64(dst, uint64(len(v)))
	copy(dst[8:], v)
	*offset += 8 + len(v)
}

// StringSize is the encoded size of v as written by PutString.
func StringSize(v string) int {
	return 8 + len(v)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset++
}

// GetString reads a value written by PutString. ok is false when src is too
// short for the encoded length.
func GetString(src []byte, dst *string, offset *int) (ok bool) {
	if len(src) < 8 {
		return false
	}
	n := binary.LittleEndian.Uint64(src)
	if uint64(len(src)-8) < n {
		return false
	}
	*dst = string(src[8 : 8+n])
	*offset += 8 + int(n)
	return true
}

// GetOptionalKey32 reads a COption<Pubkey> whose tag occupies optionSize
// bytes. dst is left nil when the option is unset.
func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize int) {
	if src[0] == 1 {
		*dst = make([]byte, ed25519.PublicKeySize)
		copy(*dst, src[optionSize:])
	} else {
		*dst = nil
	}
	*offset += optionSize + ed25519.PublicKeySize
}

func PutOptionalKey32(dst []byte, src ed25519.PublicKey, offset *int, optionSize int) {
	if len(src) > 0 {
		dst[0] = 1
		copy(dst[optionSize:], src)
	}
	*offset += optionSize + ed25519.PublicKeySize
}

func GetOptionalUint64(src []byte, dst **uint64, offset *int, optionSize int) {
	if src[0] == 1 {
		v := binary.LittleEndian.Uint64(src[optionSize:])
		*dst = &v
	} else {
		*dst = nil
	}
	*offset += optionSize + 8
}

func PutOptionalUint64(dst []byte, src *uint64, offset *int, optionSize int) {
	if src != nil {
		dst[0] = 1
		binary.LittleEndian.PutUint64(dst[optionSize:], *src)
	}
	*offset += optionSize + 8
}
