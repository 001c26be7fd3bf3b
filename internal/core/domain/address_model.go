package domain

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const checksumLen = 5

// Address is a derived ledger address owned by an account, along with the
// balance observed at the last sync.
type Address struct {
	Value    string `json:"address"`
	Balance  uint64 `json:"balance"`
	KeyIndex uint32 `json:"key_index"`
	Change   bool   `json:"change"`
	Checksum string `json:"checksum"`
}

// NewAddress returns an Address with its checksum computed from the address
// value. The checksum is never taken from an external source.
func NewAddress(
	value string, balance uint64, keyIndex uint32, change bool,
) (Address, error) {
	if len(value) <= 0 {
		return Address{}, ErrNullAddress
	}
	return Address{
		Value:    value,
		Balance:  balance,
		KeyIndex: keyIndex,
		Change:   change,
		Checksum: AddressChecksum(value),
	}, nil
}

// AddressChecksum derives the checksum of an address value. It is a pure
// function of the value itself.
func AddressChecksum(value string) string {
	hash := blake2b.Sum256([]byte(value))
	return base58.Encode(hash[:checksumLen])
}

// Equal reports whether two addresses identify the same ledger address.
// Balance and key index are ignored so that set membership checks are
// position independent.
func (a Address) Equal(other Address) bool {
	return a.Value == other.Value
}
