package solana

import (
	"bytes"
	"crypto/ed25519"
)

// AddressLookupTable is an on-chain table of addresses that v0 messages can
// reference by index instead of embedding the full key.
type AddressLookupTable struct {
	PublicKey ed25519.PublicKey
	Addresses []ed25519.PublicKey
}

// SortableAddressLookupTables orders tables by address so compiled messages
// are deterministic regardless of the order tables are supplied in.
type SortableAddressLookupTables []AddressLookupTable

func (s SortableAddressLookupTables) Len() int      { return len(s) }
func (s SortableAddressLookupTables) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s SortableAddressLookupTables) Less(i, j int) bool {
	return bytes.Compare(s[i].PublicKey, s[j].PublicKey) < 0
}
