package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrDerivationExhausted   = errors.New("no viable bump seed for program address")
	ErrIllegalOwner          = errors.New("owner cannot be a program derived address marker")
)

var (
	addressHasher = sha256.New
)

// ParseAddress decodes a base58 encoded address.
func ParseAddress(s string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base58 address %q", s)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address length %d for %q", len(decoded), s)
	}
	return decoded, nil
}

// MustParseAddress is ParseAddress for well-known constants.
func MustParseAddress(s string) ed25519.PublicKey {
	decoded, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return decoded
}

// IsOnCurve reports whether the 32 bytes decode to a valid compressed
// Edwards point, ie. whether a private key can exist for the address.
func IsOnCurve(pub []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}

	var point [32]byte
	copy(point[:], pub)

	// golang.org/x/crypto keeps ExtendedGroupElement internal, so decoding
	// goes through the standalone edwards25519 port.
	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&point)
}

// CreateProgramAddress derives an address from the program and seeds. The
// result is rejected with ErrInvalidPublicKey when it lies on the ed25519
// curve.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := addressHasher()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(program)
	h.Write([]byte(pdaMarker))

	derived := h.Sum(nil)[:ed25519.PublicKeySize]
	if IsOnCurve(derived) {
		return nil, ErrInvalidPublicKey
	}
	return derived, nil
}

// FindProgramAddressAndBump searches bump seeds from 255 down to 1 and returns
// the first off-curve address along with its bump. ErrDerivationExhausted is
// returned if every bump lands on the curve.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := math.MaxUint8; bump >= 1; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}

		derived, err := CreateProgramAddress(program, withBump...)
		switch err {
		case nil:
			return derived, uint8(bump), nil
		case ErrInvalidPublicKey:
		default:
			return nil, 0, err
		}
	}

	return nil, 0, ErrDerivationExhausted
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	derived, _, err := FindProgramAddressAndBump(program, seeds...)
	return derived, err
}

// CreateWithSeed derives the address of an account created by the system
// program's seeded account creation.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L214
func CreateWithSeed(base ed25519.PublicKey, seed string, owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(seed) > maxSeedLength {
		return nil, ErrMaxSeedLengthExceeded
	}
	if len(owner) >= len(pdaMarker) && bytes.Equal(owner[len(owner)-len(pdaMarker):], []byte(pdaMarker)) {
		return nil, ErrIllegalOwner
	}

	h := addressHasher()
	h.Write(base)
	h.Write([]byte(seed))
	h.Write(owner)
	return h.Sum(nil)[:ed25519.PublicKeySize], nil
}
