package ports

// AddressProvider derives the ledger address for a derivation index of an
// account. Derivation is public: no secret material is needed, key indexes
// map to child keys of the account's extended public key.
type AddressProvider interface {
	// DeriveAddress returns the address for the given key index, either on
	// the public chain or on the internal (change) one.
	DeriveAddress(keyIndex uint32, change bool) (string, error)
}
