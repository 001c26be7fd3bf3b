package vault

import "github.com/tanglewallet/walletd/internal/core/domain"

// Request is the sum type of the typed requests accepted by the vault actor.
// Every request is paired with exactly one Response or with a timeout error.
type Request interface {
	isRequest()
}

// LoadSnapshot opens an existing secret store and resolves its seed and
// accounts vaults.
type LoadSnapshot struct {
	Path     string
	Password []byte
}

// CreateSnapshot creates a fresh secret store with a single vault used both
// as seed and accounts vault.
type CreateSnapshot struct {
	Path     string
	Password []byte
}

// GetAccount reads the account secret record for the given identifier.
type GetAccount struct {
	ID domain.AccountIdentifier
}

// GetAccounts reads every account secret record of the accounts vault.
type GetAccounts struct{}

// StoreAccount writes or overwrites the account secret record for the given
// identifier.
type StoreAccount struct {
	ID   domain.AccountIdentifier
	Data []byte
}

// RemoveAccount deletes the account secret record for the given identifier.
// Removing a missing record is not an error.
type RemoveAccount struct {
	ID domain.AccountIdentifier
}

// SignTransaction builds and signs a transaction from the secret material of
// the given account. Key bytes never leave the vault: the response carries
// the opaque signed payload only.
type SignTransaction struct {
	ID      domain.AccountIdentifier
	Inputs  []domain.TransactionInput
	Outputs []domain.TransactionOutput
}

func (LoadSnapshot) isRequest()    {}
func (CreateSnapshot) isRequest()  {}
func (GetAccount) isRequest()      {}
func (GetAccounts) isRequest()     {}
func (StoreAccount) isRequest()    {}
func (RemoveAccount) isRequest()   {}
func (SignTransaction) isRequest() {}

// Response is the sum type of the replies produced by the vault actor.
type Response interface {
	isResponse()
}

// LoadedSnapshot ...
type LoadedSnapshot struct{}

// CreatedSnapshot ...
type CreatedSnapshot struct{}

// Account carries one serialized account secret.
type Account struct {
	Data []byte
}

// Accounts carries the full collection of account secrets.
type Accounts struct {
	Data [][]byte
}

// StoredAccount ...
type StoredAccount struct{}

// RemovedAccount ...
type RemovedAccount struct{}

// SignedTransaction carries the signed transaction payload.
type SignedTransaction struct {
	Payload []byte
}

func (LoadedSnapshot) isResponse()    {}
func (CreatedSnapshot) isResponse()   {}
func (Account) isResponse()           {}
func (Accounts) isResponse()          {}
func (StoredAccount) isResponse()     {}
func (RemovedAccount) isResponse()    {}
func (SignedTransaction) isResponse() {}
