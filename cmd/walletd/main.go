package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tanglewallet/walletd/config"
	"github.com/tanglewallet/walletd/internal/core/application"
	"github.com/tanglewallet/walletd/internal/core/domain"
	"github.com/tanglewallet/walletd/internal/core/ports"
	dbbadger "github.com/tanglewallet/walletd/internal/infrastructure/storage/db/badger"
	"github.com/tanglewallet/walletd/internal/vault"
	"github.com/tanglewallet/walletd/pkg/ledger"
	"github.com/tanglewallet/walletd/pkg/wallet"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	password := config.GetString(config.VaultPasswordKey)
	if password == "" {
		log.Panic("a vault password is required to unlock the snapshot")
	}

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	dbManager, err := dbbadger.NewDbManager(dbDir, nil)
	if err != nil {
		log.WithError(err).Panic("error while opening db")
	}
	defer dbManager.Close()
	storage := dbbadger.NewAccountStorageImpl(dbManager)

	vaultSvc := vault.NewService(
		vault.WithRequestTimeout(config.GetVaultRequestTimeout()),
	)
	defer vaultSvc.Close()

	if err := vaultSvc.LoadOrCreate(
		config.GetSnapshotPath(), []byte(password),
	); err != nil {
		log.WithError(err).Panic("error while unlocking vault")
	}

	ledgerSvc, err := config.GetLedger()
	if err != nil {
		log.WithError(err).Panic("error while connecting to ledger node")
	}

	log.Info("walletd started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncLoop(ctx, vaultSvc, ledgerSvc, storage)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
}

// syncLoop periodically aligns every stored account with the ledger.
func syncLoop(
	ctx context.Context,
	vaultSvc *vault.Service,
	ledgerSvc ledger.Service,
	storage ports.Storage,
) {
	interval := time.Duration(config.GetInt(config.SyncIntervalKey)) *
		time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		syncAccounts(ctx, vaultSvc, ledgerSvc, storage)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func syncAccounts(
	ctx context.Context,
	vaultSvc *vault.Service,
	ledgerSvc ledger.Service,
	storage ports.Storage,
) {
	snapshots, err := vaultSvc.GetAccounts()
	if err != nil {
		log.WithError(err).Warn("error while listing accounts")
		return
	}

	gapLimit := uint32(config.GetInt(config.GapLimitKey))
	scanDepth := config.GetInt(config.ScanDepthKey)

	for _, snapshot := range snapshots {
		account, err := domain.NewAccountFromBytes(snapshot)
		if err != nil {
			log.WithError(err).Warn("error while parsing account")
			continue
		}
		// the persisted snapshot carries the address set of the last sync
		if stored, err := storage.Get(account.ID.String()); err == nil &&
			stored != nil {
			if restored, err := domain.NewAccountFromBytes(stored); err == nil {
				account = restored
			}
		}
		provider, err := providerForAccount(account)
		if err != nil {
			log.WithError(err).WithField("account", account.ID.String()).
				Warn("error while restoring account keys")
			continue
		}

		synchronizer := application.NewAccountSynchronizer(
			account, ledgerSvc, storage, provider, vaultSvc,
		).WithScanDepth(scanDepth)
		// a full gap-limit scan the first time, incremental from the first
		// unknown index afterwards
		if len(account.Addresses) > 0 {
			synchronizer = synchronizer.
				WithGapLimit(1).
				FromIndex(account.NextKeyIndex())
		} else {
			synchronizer = synchronizer.WithGapLimit(gapLimit)
		}

		if _, err := synchronizer.Sync(ctx); err != nil {
			log.WithError(err).WithField("account", account.ID.String()).
				Warn("error while syncing account")
		}
	}
}

func providerForAccount(account *domain.Account) (ports.AddressProvider, error) {
	return wallet.NewWalletFromExtendedKey(account.XPub)
}
