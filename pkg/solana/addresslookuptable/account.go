package address_lookup_table

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/solana/binary"
)

// AddressLookupTab1e1111111111111111111111111
var ProgramKey = solana.MustParseAddress("AddressLookupTab1e1111111111111111111111111")

var (
	ErrInvalidAccountSize = errors.New("invalid address lookup table account size")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidOwner       = errors.New("account is not owned by the address lookup table program")
)

const (
	tableDiscriminator = 1

	metadataSize = 56
	maxAddresses = 256
)

// TableAccount is the on-chain state of a lookup table.
type TableAccount struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	Authority                  ed25519.PublicKey
	Addresses                  []ed25519.PublicKey
}

// IsActive reports whether the table can still be referenced by new
// transactions.
func (a *TableAccount) IsActive() bool {
	return a.DeactivationSlot == ^uint64(0)
}

func (a *TableAccount) Unmarshal(data []byte) error {
	if len(data) < metadataSize {
		return ErrInvalidAccountSize
	}

	var offset int

	var discriminator uint32
	binary.GetUint32(data[offset:], &discriminator, &offset)
	if discriminator != tableDiscriminator {
		return ErrInvalidAccountType
	}

	binary.GetUint64(data[offset:], &a.DeactivationSlot, &offset)
	binary.GetUint64(data[offset:], &a.LastExtendedSlot, &offset)
	binary.GetUint8(data[offset:], &a.LastExtendedSlotStartIndex, &offset)

	var hasAuthority uint8
	binary.GetUint8(data[offset:], &hasAuthority, &offset)
	if hasAuthority == 1 {
		binary.GetKey32(data[offset:], &a.Authority, &offset)
	} else {
		a.Authority = nil
	}

	addresses := data[metadataSize:]
	if len(addresses)%ed25519.PublicKeySize != 0 || len(addresses)/ed25519.PublicKeySize > maxAddresses {
		return ErrInvalidAccountSize
	}

	offset = 0
	a.Addresses = make([]ed25519.PublicKey, len(addresses)/ed25519.PublicKeySize)
	for i := range a.Addresses {
		binary.GetKey32(addresses[offset:], &a.Addresses[i], &offset)
	}

	return nil
}

// Load fetches a lookup table so it can be passed to
// solana.NewVersionedTransaction.
func Load(ctx context.Context, client solana.Client, table ed25519.PublicKey, commitment solana.Commitment) (solana.AddressLookupTable, error) {
	info, err := client.GetAccountInfo(ctx, table, commitment)
	if err != nil {
		return solana.AddressLookupTable{}, errors.Wrap(err, "failed to get lookup table account")
	}
	if !ProgramKey.Equal(info.Owner) {
		return solana.AddressLookupTable{}, ErrInvalidOwner
	}

	var account TableAccount
	if err := account.Unmarshal(info.Data); err != nil {
		return solana.AddressLookupTable{}, err
	}
	if !account.IsActive() {
		return solana.AddressLookupTable{}, errors.Errorf("lookup table deactivated at slot %d", account.DeactivationSlot)
	}

	return solana.AddressLookupTable{
		PublicKey: table,
		Addresses: account.Addresses,
	}, nil
}
