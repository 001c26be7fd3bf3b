package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanglewallet/walletd/internal/core/domain"
)

func TestNewAddress(t *testing.T) {
	t.Parallel()

	addr, err := domain.NewAddress("WXYZ9ADDRESS", 100, 3, false)
	require.NoError(t, err)
	require.Equal(t, "WXYZ9ADDRESS", addr.Value)
	require.Equal(t, uint64(100), addr.Balance)
	require.Equal(t, uint32(3), addr.KeyIndex)
	require.False(t, addr.Change)
	require.Equal(t, domain.AddressChecksum("WXYZ9ADDRESS"), addr.Checksum)
}

func TestFailingNewAddress(t *testing.T) {
	t.Parallel()

	_, err := domain.NewAddress("", 0, 0, false)
	require.EqualError(t, err, domain.ErrNullAddress.Error())
}

func TestAddressChecksumIsPureFunctionOfValue(t *testing.T) {
	t.Parallel()

	a1, err := domain.NewAddress("SAMEADDRESS", 0, 0, false)
	require.NoError(t, err)
	a2, err := domain.NewAddress("SAMEADDRESS", 9999, 42, true)
	require.NoError(t, err)
	require.Equal(t, a1.Checksum, a2.Checksum)

	other, err := domain.NewAddress("OTHERADDRESS", 0, 0, false)
	require.NoError(t, err)
	require.NotEqual(t, a1.Checksum, other.Checksum)
}

func TestAddressEqualityIgnoresBalanceAndIndex(t *testing.T) {
	t.Parallel()

	a1, _ := domain.NewAddress("SAMEADDRESS", 10, 0, false)
	a2, _ := domain.NewAddress("SAMEADDRESS", 20, 7, true)
	a3, _ := domain.NewAddress("OTHERADDRESS", 10, 0, false)

	require.True(t, a1.Equal(a2))
	require.False(t, a1.Equal(a3))
}
