package wallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/crypto/blake2b"
)

// NewSeed generates a fresh random seed suitable for master key derivation.
func NewSeed() ([]byte, error) {
	return hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
}

// MasterKeyFromSeed derives the extended master private key of a seed.
func MasterKeyFromSeed(seed []byte) (*hdkeychain.ExtendedKey, error) {
	return hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
}

// ExtendedPublicKeyFromSeed returns the neutered master key of a seed in
// base58 format, the watch-only counterpart used for address derivation.
func ExtendedPublicKeyFromSeed(seed []byte) (string, error) {
	masterKey, err := MasterKeyFromSeed(seed)
	if err != nil {
		return "", err
	}
	xpub, err := masterKey.Neuter()
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

// DeriveSigningKey derives the private key owning the address at the given
// key index and chain.
func DeriveSigningKey(
	seed []byte, keyIndex uint32, change bool,
) (*btcec.PrivateKey, error) {
	masterKey, err := MasterKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	chainKey, err := masterKey.Derive(chainIndex(change))
	if err != nil {
		return nil, err
	}
	childKey, err := chainKey.Derive(keyIndex)
	if err != nil {
		return nil, err
	}
	return childKey.ECPrivKey()
}

// Sign produces a DER encoded ECDSA signature of the blake2b digest of the
// given message with the given key.
func Sign(privKey *btcec.PrivateKey, message []byte) []byte {
	digest := blake2b.Sum256(message)
	return ecdsa.Sign(privKey, digest[:]).Serialize()
}
