package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tanglewallet/walletd/pkg/ledger"
	"github.com/tanglewallet/walletd/pkg/ledger/node"
)

const (
	// DatadirKey is the local data directory where the wallet state is stored
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NodeEndpointKey is the endpoint of the ledger node REST API
	NodeEndpointKey = "NODE_ENDPOINT"
	// NetworkKey is the network to use. Either "mainnet" or "testnet"
	NetworkKey = "NETWORK"
	// GapLimitKey is the number of consecutive unused addresses that ends a full account discovery
	GapLimitKey = "GAP_LIMIT"
	// ScanDepthKey is the maximum number of discovery rounds of a single sync
	ScanDepthKey = "SCAN_DEPTH"
	// VaultRequestTimeoutKey are the milliseconds to wait for vault responses before timeouts
	VaultRequestTimeoutKey = "VAULT_REQUEST_TIMEOUT"
	// SnapshotFilenameKey is the filename of the secret snapshot within the vault directory
	SnapshotFilenameKey = "SNAPSHOT_FILENAME"
	// VaultPasswordKey is the password unlocking the secret snapshot
	VaultPasswordKey = "VAULT_PASSWORD"
	// SyncIntervalKey is the interval in milliseconds between two account syncs
	SyncIntervalKey = "SYNC_INTERVAL"

	DbLocation    = "db"
	VaultLocation = "vault"

	MainnetNetwork = "mainnet"
	TestnetNetwork = "testnet"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("walletd", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("WALLETD")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NodeEndpointKey, "https://nodes.tanglewallet.io/api")
	vip.SetDefault(NetworkKey, MainnetNetwork)
	vip.SetDefault(GapLimitKey, 20)
	vip.SetDefault(ScanDepthKey, 64)
	vip.SetDefault(VaultRequestTimeoutKey, 500)
	vip.SetDefault(SnapshotFilenameKey, "wallet.snapshot")
	vip.SetDefault(SyncIntervalKey, 60000)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

//GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetSnapshotPath returns the path of the secret snapshot file
func GetSnapshotPath() string {
	return filepath.Join(
		GetDatadir(), VaultLocation, GetString(SnapshotFilenameKey),
	)
}

// GetVaultRequestTimeout returns the vault wait budget as a duration
func GetVaultRequestTimeout() time.Duration {
	return time.Duration(GetInt(VaultRequestTimeoutKey)) * time.Millisecond
}

//GetLedger ...
func GetLedger() (ledger.Service, error) {
	return node.NewService(GetString(NodeEndpointKey))
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if gapLimit := GetInt(GapLimitKey); gapLimit <= 0 {
		return fmt.Errorf("gap limit must be a positive number")
	}
	if scanDepth := GetInt(ScanDepthKey); scanDepth <= 0 {
		return fmt.Errorf("scan depth must be a positive number")
	}
	if timeout := GetInt(VaultRequestTimeoutKey); timeout <= 0 {
		return fmt.Errorf("vault request timeout must be a positive number")
	}

	networkName := GetString(NetworkKey)
	if networkName != MainnetNetwork && networkName != TestnetNetwork {
		return fmt.Errorf(
			"network must be either '%s' or '%s'",
			MainnetNetwork, TestnetNetwork,
		)
	}

	nodeEndpoint := GetString(NodeEndpointKey)
	if _, err := url.Parse(nodeEndpoint); err != nil {
		return fmt.Errorf("node endpoint is not a valid url: %s", err)
	}
	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, VaultLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
