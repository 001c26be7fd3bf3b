package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tanglewallet/walletd/internal/core/domain"
	"github.com/tanglewallet/walletd/internal/core/ports"
	"github.com/tanglewallet/walletd/pkg/coinselect"
	"github.com/tanglewallet/walletd/pkg/ledger"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultGapLimit is the number of consecutive unused addresses that ends
	// a full account discovery.
	DefaultGapLimit uint32 = 20
	// DefaultScanDepth bounds the number of discovery rounds of a single sync.
	DefaultScanDepth = 64
)

// AccountSynchronizer aligns the local snapshot of an account with the state
// of the ledger: it discovers the used addresses of the account up to the gap
// limit and reconciles the locally known messages with the ones observed on
// the ledger. A synchronizer is built for one account and used once.
type AccountSynchronizer struct {
	account  *domain.Account
	ledger   ledger.Service
	storage  ports.Storage
	provider ports.AddressProvider
	signer   ports.TransactionSigner

	gapLimit        uint32
	fromIndex       uint32
	scanDepth       int
	skipPersistence bool
	selectCoins     coinselect.Strategy
}

// NewAccountSynchronizer returns a synchronizer for the given account with
// the default gap limit and scan depth.
func NewAccountSynchronizer(
	account *domain.Account,
	ledgerSvc ledger.Service,
	storage ports.Storage,
	provider ports.AddressProvider,
	signer ports.TransactionSigner,
) *AccountSynchronizer {
	return &AccountSynchronizer{
		account:     account,
		ledger:      ledgerSvc,
		storage:     storage,
		provider:    provider,
		signer:      signer,
		gapLimit:    DefaultGapLimit,
		scanDepth:   DefaultScanDepth,
		selectCoins: coinselect.MinimalCoins,
	}
}

// WithGapLimit overrides the number of addresses derived per discovery round.
// A gap limit of 1 turns the sync into an incremental one.
func (s *AccountSynchronizer) WithGapLimit(gapLimit uint32) *AccountSynchronizer {
	if gapLimit > 0 {
		s.gapLimit = gapLimit
	}
	return s
}

// FromIndex overrides the derivation index discovery starts from.
func (s *AccountSynchronizer) FromIndex(index uint32) *AccountSynchronizer {
	s.fromIndex = index
	return s
}

// WithScanDepth overrides the maximum number of discovery rounds.
func (s *AccountSynchronizer) WithScanDepth(depth int) *AccountSynchronizer {
	if depth > 0 {
		s.scanDepth = depth
	}
	return s
}

// WithStrategy overrides the input selection strategy used by transfers built
// from the synced account.
func (s *AccountSynchronizer) WithStrategy(
	strategy coinselect.Strategy,
) *AccountSynchronizer {
	if strategy != nil {
		s.selectCoins = strategy
	}
	return s
}

// SkipPersistence prevents the synced snapshot from being written to storage.
func (s *AccountSynchronizer) SkipPersistence() *AccountSynchronizer {
	s.skipPersistence = true
	return s
}

// Sync discovers the account's addresses and reconciles its messages with
// the ledger, then persists the updated snapshot. The operation is idempotent
// and can be repeated after any failure.
func (s *AccountSynchronizer) Sync(ctx context.Context) (*SyncedAccount, error) {
	foundAddresses, discovered, err := s.discoverAddresses(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.syncMessages(discovered); err != nil {
		return nil, err
	}

	s.account.UpsertAddresses(foundAddresses)

	if !s.skipPersistence {
		if err := s.persist(); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"account":   s.account.ID.String(),
		"addresses": len(s.account.Addresses),
		"messages":  len(s.account.Messages),
	}).Debug("account synced")

	return &SyncedAccount{
		account:     s.account,
		ledger:      s.ledger,
		storage:     s.storage,
		provider:    s.provider,
		signer:      s.signer,
		selectCoins: s.selectCoins,
	}, nil
}

// discoverAddresses derives batches of gapLimit indexes, both on the public
// and on the change chain, and probes the ledger for activity. Discovery
// stops at the first batch with no transactions and no balance on any of its
// addresses.
func (s *AccountSynchronizer) discoverAddresses(
	ctx context.Context,
) ([]domain.Address, []ledger.Message, error) {
	foundAddresses := make([]domain.Address, 0)
	discovered := make([]ledger.Message, 0)

	index := s.fromIndex
	for round := 0; ; round++ {
		if round >= s.scanDepth {
			return nil, nil, ErrScanDepthExceeded
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		batch, err := s.deriveBatch(index)
		if err != nil {
			return nil, nil, err
		}
		batchValues := make([]string, 0, len(batch))
		for _, addr := range batch {
			batchValues = append(batchValues, addr.Value)
		}

		var (
			messages []ledger.Message
			balances []ledger.AddressBalance
		)
		g, _ := errgroup.WithContext(ctx)
		g.Go(func() error {
			res, err := s.ledger.GetTransactionsForAddresses(batchValues)
			if err != nil {
				return err
			}
			messages = res
			return nil
		})
		g.Go(func() error {
			res, err := s.ledger.GetAddressesBalance(batchValues)
			if err != nil {
				return err
			}
			balances = res
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}

		balancesByAddress := make(map[string]uint64)
		batchBalance := uint64(0)
		for _, balance := range balances {
			balancesByAddress[balance.Address] += balance.Amount
			batchBalance += balance.Amount
		}

		// the terminating unused window is part of the address set, so the
		// account always ends with a fresh deposit address
		if len(messages) == 0 && batchBalance == 0 {
			foundAddresses = append(foundAddresses, batch...)
			break
		}

		for i := range batch {
			batch[i].Balance = balancesByAddress[batch[i].Value]
		}
		foundAddresses = append(foundAddresses, batch...)
		discovered = append(discovered, messages...)

		index += s.gapLimit
	}

	return foundAddresses, discovered, nil
}

// deriveBatch derives the public and change addresses of gapLimit consecutive
// indexes starting at the given one.
func (s *AccountSynchronizer) deriveBatch(from uint32) ([]domain.Address, error) {
	batch := make([]domain.Address, 0, 2*s.gapLimit)
	for i := uint32(0); i < s.gapLimit; i++ {
		for _, change := range []bool{false, true} {
			addr, err := s.deriveAddress(from+i, change, 0)
			if err != nil {
				return nil, err
			}
			batch = append(batch, addr)
		}
	}
	return batch, nil
}

func (s *AccountSynchronizer) deriveAddress(
	keyIndex uint32, change bool, balance uint64,
) (domain.Address, error) {
	value, err := s.provider.DeriveAddress(keyIndex, change)
	if err != nil {
		return domain.Address{}, err
	}
	return domain.NewAddress(value, balance, keyIndex, change)
}

// syncMessages reconciles the discovered ledger messages with the locally
// known ones. Flags only ever move forward: a broadcasted or confirmed
// message never reverts.
func (s *AccountSynchronizer) syncMessages(discovered []ledger.Message) error {
	unknownIDs := make([]string, 0, len(discovered))
	seen := make(map[string]struct{})
	for _, msg := range discovered {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		seen[msg.ID] = struct{}{}

		if local := s.account.GetMessage(msg.ID); local != nil {
			// observed on the ledger, so propagation succeeded
			local.SetBroadcasted()
			continue
		}
		unknownIDs = append(unknownIDs, msg.ID)
	}

	idsToCheck := make([]string, 0, len(unknownIDs))
	idsToCheck = append(idsToCheck, unknownIDs...)
	for i := range s.account.Messages {
		if !s.account.Messages[i].Confirmed {
			idsToCheck = append(idsToCheck, s.account.Messages[i].ID)
		}
	}

	confirmedStates := map[string]bool{}
	if len(idsToCheck) > 0 {
		states, err := s.ledger.IsConfirmed(idsToCheck)
		if err != nil {
			return err
		}
		confirmedStates = states
	}

	for i := range s.account.Messages {
		if confirmedStates[s.account.Messages[i].ID] {
			s.account.Messages[i].SetConfirmed()
		}
	}

	if len(unknownIDs) == 0 {
		return nil
	}

	bodies, err := s.ledger.GetTransactionsByIDs(unknownIDs)
	if err != nil {
		return err
	}
	newMessages := make([]domain.Message, 0, len(bodies))
	for _, body := range bodies {
		newMessages = append(newMessages, domain.Message{
			ID:          body.ID,
			Parent1:     body.Parent1,
			Parent2:     body.Parent2,
			Payload:     body.Payload,
			Broadcasted: true,
			Confirmed:   confirmedStates[body.ID],
			Timestamp:   time.Now(),
		})
	}
	s.account.AppendMessages(newMessages)

	return nil
}

func (s *AccountSynchronizer) persist() error {
	snapshot, err := s.account.Serialize()
	if err != nil {
		return err
	}
	return s.storage.Set(s.account.ID.String(), snapshot)
}
