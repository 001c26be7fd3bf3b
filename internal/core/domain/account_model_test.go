package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanglewallet/walletd/internal/core/domain"
)

func newTestAccountID(fill byte) domain.AccountID {
	raw := make([]byte, domain.AccountIDLen)
	for i := range raw {
		raw[i] = fill
	}
	id, _ := domain.AccountIDFromBytes(raw)
	return id
}

func TestFailingAccountIDFromBytes(t *testing.T) {
	t.Parallel()

	_, err := domain.AccountIDFromBytes([]byte("too short"))
	require.EqualError(t, err, domain.ErrInvalidAccountID.Error())
}

func TestAccountIDRoundtrip(t *testing.T) {
	t.Parallel()

	id := newTestAccountID(0xab)
	buf, err := json.Marshal(id)
	require.NoError(t, err)

	var parsed domain.AccountID
	require.NoError(t, json.Unmarshal(buf, &parsed))
	require.Equal(t, id, parsed)
}

func TestAccountIdentifierVariants(t *testing.T) {
	t.Parallel()

	byID := domain.IdentifierFromID(newTestAccountID(0x01))
	require.False(t, byID.IsIndex())
	id, err := byID.ID()
	require.NoError(t, err)
	require.Equal(t, newTestAccountID(0x01), id)

	byIndex := domain.IdentifierFromIndex(4)
	require.True(t, byIndex.IsIndex())
	_, err = byIndex.ID()
	require.EqualError(t, err, domain.ErrAccountIDRequired.Error())
}

func TestLatestAddress(t *testing.T) {
	t.Parallel()

	account := &domain.Account{}
	require.Nil(t, account.LatestAddress())

	a0, _ := domain.NewAddress("ADDR0", 0, 0, false)
	a0c, _ := domain.NewAddress("ADDR0C", 0, 0, true)
	a1, _ := domain.NewAddress("ADDR1", 0, 1, false)
	a1c, _ := domain.NewAddress("ADDR1C", 0, 1, true)
	account.UpsertAddresses([]domain.Address{a0, a0c, a1, a1c})

	latest := account.LatestAddress()
	require.NotNil(t, latest)
	require.Equal(t, "ADDR1", latest.Value)
	require.Equal(t, uint32(2), account.NextKeyIndex())
}

func TestUpsertAddressesReplacesByIndexAndChange(t *testing.T) {
	t.Parallel()

	account := &domain.Account{}
	stale, _ := domain.NewAddress("ADDR0", 0, 0, false)
	account.UpsertAddresses([]domain.Address{stale})

	fresh, _ := domain.NewAddress("ADDR0", 150, 0, false)
	account.UpsertAddresses([]domain.Address{fresh})

	require.Len(t, account.Addresses, 1)
	require.Equal(t, uint64(150), account.Addresses[0].Balance)
}

func TestMessageFlagsAreMonotonic(t *testing.T) {
	t.Parallel()

	msg := domain.Message{ID: "msg1"}
	require.False(t, msg.Broadcasted)
	require.False(t, msg.Confirmed)

	msg.SetBroadcasted()
	msg.SetConfirmed()
	require.True(t, msg.Broadcasted)
	require.True(t, msg.Confirmed)

	// setting again must not flip anything back
	msg.SetBroadcasted()
	msg.SetConfirmed()
	require.True(t, msg.Broadcasted)
	require.True(t, msg.Confirmed)
}

func TestAccountSnapshotRoundtrip(t *testing.T) {
	t.Parallel()

	addr, _ := domain.NewAddress("ADDR0", 42, 0, false)
	account := &domain.Account{
		ID:    newTestAccountID(0x02),
		Alias: "main",
		ClientOptions: domain.ClientOptions{
			NodeURL: "https://node.example.com", Network: "testnet",
		},
		Addresses: []domain.Address{addr},
		Messages:  []domain.Message{{ID: "msg1", Broadcasted: true}},
	}

	buf, err := account.Serialize()
	require.NoError(t, err)

	parsed, err := domain.NewAccountFromBytes(buf)
	require.NoError(t, err)
	require.Equal(t, account.ID, parsed.ID)
	require.Equal(t, account.Addresses, parsed.Addresses)
	require.Equal(t, account.Messages[0].ID, parsed.Messages[0].ID)
	require.True(t, parsed.Messages[0].Broadcasted)
}
