package vault_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanglewallet/walletd/internal/core/domain"
	"github.com/tanglewallet/walletd/internal/vault"
)

var (
	password = []byte("Pa55w0rd")

	accountID = domain.AccountID{
		0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef,
		0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef,
		0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef,
		0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef,
	}
)

func newTestVault(t *testing.T) (*vault.Service, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wallet.snapshot")
	svc := vault.NewService()
	t.Cleanup(svc.Close)

	require.NoError(t, svc.LoadOrCreate(path, password))
	return svc, path
}

func TestBootstrapEmptySnapshot(t *testing.T) {
	svc, _ := newTestVault(t)

	accounts, err := svc.GetAccounts()
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestStoreAndGetAccount(t *testing.T) {
	svc, _ := newTestVault(t)

	id := domain.IdentifierFromID(accountID)
	require.NoError(t, svc.StoreAccount(id, []byte("account secret")))

	data, err := svc.GetAccount(id)
	require.NoError(t, err)
	require.Equal(t, []byte("account secret"), data)

	accounts, err := svc.GetAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, []byte("account secret"), accounts[0])
}

func TestGetMissingAccount(t *testing.T) {
	svc, _ := newTestVault(t)

	_, err := svc.GetAccount(domain.IdentifierFromID(accountID))
	require.ErrorIs(t, err, vault.ErrAccountNotFound)
}

func TestRemoveAccount(t *testing.T) {
	svc, _ := newTestVault(t)

	id := domain.IdentifierFromID(accountID)
	require.NoError(t, svc.StoreAccount(id, []byte("account secret")))
	require.NoError(t, svc.RemoveAccount(id))

	_, err := svc.GetAccount(id)
	require.ErrorIs(t, err, vault.ErrAccountNotFound)

	// removing a missing record is not an error
	require.NoError(t, svc.RemoveAccount(id))
}

func TestIndexIdentifierRejected(t *testing.T) {
	svc, _ := newTestVault(t)

	_, err := svc.GetAccount(domain.IdentifierFromIndex(0))
	require.ErrorIs(t, err, domain.ErrAccountIDRequired)

	err = svc.StoreAccount(domain.IdentifierFromIndex(0), []byte("secret"))
	require.ErrorIs(t, err, domain.ErrAccountIDRequired)
}

func TestReloadSnapshot(t *testing.T) {
	svc, path := newTestVault(t)

	id := domain.IdentifierFromID(accountID)
	require.NoError(t, svc.StoreAccount(id, []byte("account secret")))

	// reloading the same snapshot keeps the stored records
	require.NoError(t, svc.LoadSnapshot(path, password))

	data, err := svc.GetAccount(id)
	require.NoError(t, err)
	require.Equal(t, []byte("account secret"), data)
}

func TestRebootstrapClearsState(t *testing.T) {
	svc, _ := newTestVault(t)

	id := domain.IdentifierFromID(accountID)
	require.NoError(t, svc.StoreAccount(id, []byte("account secret")))

	// creating a fresh snapshot drops every resolved reference to the old one
	otherPath := filepath.Join(t.TempDir(), "other.snapshot")
	require.NoError(t, svc.CreateSnapshot(otherPath, password))

	_, err := svc.GetAccount(id)
	require.ErrorIs(t, err, vault.ErrAccountNotFound)

	accounts, err := svc.GetAccounts()
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestSignTransaction(t *testing.T) {
	svc, _ := newTestVault(t)

	id := domain.IdentifierFromID(accountID)
	inputs := []domain.TransactionInput{
		{ProducerID: "msg1", OutputIndex: 0, KeyIndex: 0, Change: false},
		{ProducerID: "msg2", OutputIndex: 1, KeyIndex: 3, Change: true},
	}
	outputs := []domain.TransactionOutput{
		{Address: "RECIPIENT", Amount: 100},
	}

	// signing requires the account record to exist
	_, err := svc.SignTransaction(id, inputs, outputs)
	require.ErrorIs(t, err, vault.ErrAccountNotFound)

	require.NoError(t, svc.StoreAccount(id, []byte("account secret")))

	payload, err := svc.SignTransaction(id, inputs, outputs)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	// signing is deterministic for the same snapshot and essence
	again, err := svc.SignTransaction(id, inputs, outputs)
	require.NoError(t, err)
	require.Equal(t, payload, again)
}
