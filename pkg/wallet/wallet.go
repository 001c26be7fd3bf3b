package wallet

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"golang.org/x/crypto/blake2b"
)

const (
	// ExternalChain is the derivation index of the public address chain.
	ExternalChain uint32 = 0
	// InternalChain is the derivation index of the change address chain.
	InternalChain uint32 = 1
)

var (
	// ErrNullExtendedKey ...
	ErrNullExtendedKey = errors.New("extended key must not be null")
)

// Wallet derives ledger addresses for an account from its extended public
// key. Derivation is watch-only: the wallet never holds private key material,
// signing happens behind the secure vault boundary.
type Wallet struct {
	accountKey *hdkeychain.ExtendedKey
}

// NewWalletFromExtendedKey returns a watch-only Wallet for the given account
// extended key in base58 format. A private extended key is neutered first.
func NewWalletFromExtendedKey(xkey string) (*Wallet, error) {
	if len(xkey) <= 0 {
		return nil, ErrNullExtendedKey
	}

	key, err := hdkeychain.NewKeyFromString(xkey)
	if err != nil {
		return nil, err
	}
	if key.IsPrivate() {
		key, err = key.Neuter()
		if err != nil {
			return nil, err
		}
	}

	return &Wallet{accountKey: key}, nil
}

// DeriveAddress returns the address at the given key index, on the external
// chain or on the internal (change) one.
func (w *Wallet) DeriveAddress(keyIndex uint32, change bool) (string, error) {
	chainKey, err := w.accountKey.Derive(chainIndex(change))
	if err != nil {
		return "", err
	}
	childKey, err := chainKey.Derive(keyIndex)
	if err != nil {
		return "", err
	}
	pubKey, err := childKey.ECPubKey()
	if err != nil {
		return "", err
	}

	return EncodeAddress(pubKey.SerializeCompressed()), nil
}

// EncodeAddress maps a serialized public key to its ledger address
// representation, the base58 encoding of the blake2b digest of the key.
func EncodeAddress(serializedPubKey []byte) string {
	hash := blake2b.Sum256(serializedPubKey)
	return base58.Encode(hash[:])
}

func chainIndex(change bool) uint32 {
	if change {
		return InternalChain
	}
	return ExternalChain
}
