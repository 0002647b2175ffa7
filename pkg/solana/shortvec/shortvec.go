// Package shortvec implements the compact-u16 length prefix used throughout
// the transaction wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedBytes = 3

// EncodeLen writes n as a 7-bit little-endian varint. Values above
// math.MaxUint16 are rejected.
func EncodeLen(w io.Writer, n int) (int, error) {
	if n < 0 || n > math.MaxUint16 {
		return 0, errors.Errorf("len %d outside [0, %d]", n, math.MaxUint16)
	}

	var encoded [maxEncodedBytes]byte
	size := 0
	for {
		encoded[size] = byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			size++
			break
		}
		encoded[size] |= 0x80
		size++
	}

	return w.Write(encoded[:size])
}

// DecodeLen reads a compact-u16 length.
func DecodeLen(r io.Reader) (int, error) {
	var (
		val  int
		next [1]byte
	)

	for i := 0; ; i++ {
		if i == maxEncodedBytes {
			return 0, errors.Errorf("invalid size: more than %d bytes", maxEncodedBytes)
		}
		if _, err := io.ReadFull(r, next[:]); err != nil {
			return 0, err
		}

		val |= int(next[0]&0x7f) << (i * 7)
		if next[0]&0x80 == 0 {
			break
		}
	}

	if val > math.MaxUint16 {
		return 0, errors.Errorf("decoded len %d exceeds %d", val, math.MaxUint16)
	}
	return val, nil
}
