package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require.Equal(t, 20, GetInt(GapLimitKey))
	require.Equal(t, 64, GetInt(ScanDepthKey))
	require.Equal(t, MainnetNetwork, GetString(NetworkKey))
	require.Equal(t, 500*time.Millisecond, GetVaultRequestTimeout())
	require.Contains(t, GetSnapshotPath(), "wallet.snapshot")
}

func TestSetOverridesDefault(t *testing.T) {
	Set(GapLimitKey, 1)
	defer Set(GapLimitKey, 20)

	require.Equal(t, 1, GetInt(GapLimitKey))
	require.True(t, IsSet(GapLimitKey))
}
