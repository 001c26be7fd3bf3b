package ports

import "github.com/tanglewallet/walletd/internal/core/domain"

// TransactionSigner builds and signs a transaction payload from the secret
// material of an account. Implementations must keep key bytes behind their
// own boundary: callers only ever hand over the account identifier and the
// transaction skeleton, and get back an opaque signed payload.
type TransactionSigner interface {
	SignTransaction(
		id domain.AccountIdentifier,
		inputs []domain.TransactionInput,
		outputs []domain.TransactionOutput,
	) ([]byte, error)
}
