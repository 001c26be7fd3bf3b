package vault

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tanglewallet/walletd/internal/core/domain"
	"github.com/tanglewallet/walletd/pkg/securestore"
	boltsecurestore "github.com/tanglewallet/walletd/pkg/securestore/bolt"
	"github.com/tanglewallet/walletd/pkg/wallet"
)

const (
	// SeedHint tags the record holding the wallet seed.
	SeedHint = "TANGLE_WALLET_SEED"
	// AccountHint tags the records holding serialized account secrets.
	AccountHint = "TANGLE_WALLET_ACCOUNT"

	// DefaultRequestTimeout is the bounded wait applied to every request.
	DefaultRequestTimeout = 500 * time.Millisecond

	// recordIDLen is the number of account id bytes used to derive the
	// record id of an account secret.
	recordIDLen = 24

	seedRecordID = "seed"
)

// record is the envelope persisted for every vault entry: a hint classifying
// the semantic content plus the content itself. The securestore encrypts the
// whole envelope.
type record struct {
	Hint string `json:"hint"`
	Data []byte `json:"data"`
}

type result struct {
	resp Response
	err  error
}

type envelope struct {
	req   Request
	reply chan result
}

// Service is the secure vault actor. It exclusively owns the secret store
// and the resolved vault identifiers; all interaction happens through typed
// requests crossing a channel and is answered by a single message-processing
// goroutine, so no two requests ever mutate vault state concurrently.
type Service struct {
	requests chan envelope
	timeout  time.Duration

	passwords *passwordStore

	// state below is owned by the actor goroutine and never touched outside
	// of it.
	store         securestore.SecureStorage
	openStore     func(path string) (securestore.SecureStorage, error)
	seedVault     []byte
	accountsVault []byte

	quit chan struct{}
	done chan struct{}
}

// ServiceOption customizes a vault Service.
type ServiceOption func(*Service)

// WithRequestTimeout overrides the bounded wait applied to every request.
func WithRequestTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// NewService returns a started vault Service.
func NewService(opts ...ServiceOption) *Service {
	service := &Service{
		requests:  make(chan envelope),
		timeout:   DefaultRequestTimeout,
		passwords: newPasswordStore(),
		openStore: func(path string) (securestore.SecureStorage, error) {
			return boltsecurestore.NewSecureStorage(
				filepath.Dir(path), filepath.Base(path),
			)
		},
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	go service.loop()

	return service
}

// Close stops the actor loop and closes the underlying secret store.
func (s *Service) Close() {
	close(s.quit)
	<-s.done
}

// Ask sends a request to the actor and waits for its response within the
// configured wait budget. The deadline covers the whole exchange, send and
// reply included. On expiry the request is abandoned and the vault state must
// be treated as unknown-but-unchanged.
func (s *Service) Ask(req Request) (Response, error) {
	env := envelope{req: req, reply: make(chan result, 1)}

	deadline := time.NewTimer(s.timeout)
	defer deadline.Stop()

	select {
	case s.requests <- env:
	case <-s.done:
		return nil, ErrClosed
	case <-deadline.C:
		return nil, ErrRequestTimeout
	}

	select {
	case res := <-env.reply:
		return res.resp, res.err
	case <-deadline.C:
		return nil, ErrRequestTimeout
	}
}

func (s *Service) loop() {
	defer close(s.done)

	for {
		select {
		case env := <-s.requests:
			resp, err := s.handle(env.req)
			env.reply <- result{resp: resp, err: err}
		case <-s.quit:
			s.clearState()
			return
		}
	}
}

func (s *Service) handle(req Request) (Response, error) {
	switch req := req.(type) {
	case LoadSnapshot:
		return s.handleLoadSnapshot(req.Path, req.Password)
	case CreateSnapshot:
		return s.handleCreateSnapshot(req.Path, req.Password)
	case GetAccount:
		return s.handleGetAccount(req.ID)
	case GetAccounts:
		return s.handleGetAccounts()
	case StoreAccount:
		return s.handleStoreAccount(req.ID, req.Data)
	case RemoveAccount:
		return s.handleRemoveAccount(req.ID)
	case SignTransaction:
		return s.handleSignTransaction(req.ID, req.Inputs, req.Outputs)
	default:
		return nil, fmt.Errorf("unknown vault request type %T", req)
	}
}

// clearState drops every resolved vault identifier and closes the current
// store, so that no stale reference survives a re-bootstrap.
func (s *Service) clearState() {
	s.seedVault = nil
	s.accountsVault = nil
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
}

func (s *Service) bootstrap(path string, password []byte) error {
	s.clearState()

	s.passwords.set(path, password)
	cachedPassword, _ := s.passwords.get(path)

	store, err := s.openStore(path)
	if err != nil {
		return err
	}
	if err := store.CreateUnlock(&cachedPassword); err != nil {
		store.Close()
		return err
	}
	s.store = store
	return nil
}

func (s *Service) handleLoadSnapshot(path string, password []byte) (Response, error) {
	if err := s.bootstrap(path, password); err != nil {
		return nil, err
	}

	// search vault with the seed and vault with the accounts
	vaults, err := s.store.ListBuckets()
	if err != nil {
		return nil, err
	}
	for _, vaultID := range vaults {
		records, err := s.store.GetAllFromBucket(vaultID)
		if err != nil {
			return nil, err
		}
		for _, rawRecord := range records {
			rec, err := decodeRecord(rawRecord)
			if err != nil {
				return nil, err
			}
			if rec.Hint == SeedHint && s.seedVault == nil {
				s.seedVault = vaultID
			}
			if rec.Hint == AccountHint && s.accountsVault == nil {
				s.accountsVault = vaultID
			}
		}
		if s.seedVault != nil && s.accountsVault != nil {
			break
		}
	}

	if s.seedVault == nil {
		seedVault, err := s.createSeedVault()
		if err != nil {
			return nil, err
		}
		s.seedVault = seedVault
	}
	if s.accountsVault == nil {
		s.accountsVault = s.seedVault
	}

	log.WithField("path", path).Debug("vault: loaded snapshot")
	return LoadedSnapshot{}, nil
}

func (s *Service) handleCreateSnapshot(path string, password []byte) (Response, error) {
	if err := s.bootstrap(path, password); err != nil {
		return nil, err
	}

	seedVault, err := s.createSeedVault()
	if err != nil {
		return nil, err
	}
	s.seedVault = seedVault
	s.accountsVault = seedVault

	log.WithField("path", path).Debug("vault: created snapshot")
	return CreatedSnapshot{}, nil
}

// createSeedVault creates a fresh vault tagged with the seed hint by storing
// a newly generated seed record in it.
func (s *Service) createSeedVault() ([]byte, error) {
	vaultID := []byte(uuid.NewString())
	if err := s.store.CreateBucket(vaultID); err != nil {
		return nil, err
	}

	seed, err := wallet.NewSeed()
	if err != nil {
		return nil, err
	}
	rawRecord, err := encodeRecord(record{Hint: SeedHint, Data: seed})
	if err != nil {
		return nil, err
	}
	if err := s.store.AddToBucket(
		vaultID, []byte(seedRecordID), rawRecord,
	); err != nil {
		return nil, err
	}

	return vaultID, nil
}

func (s *Service) handleGetAccount(id domain.AccountIdentifier) (Response, error) {
	if s.accountsVault == nil {
		return nil, ErrEmptySnapshot
	}
	recordID, err := accountRecordID(id)
	if err != nil {
		return nil, err
	}

	rawRecord, err := s.store.GetFromBucket(s.accountsVault, recordID)
	if err != nil {
		return nil, err
	}
	if rawRecord == nil {
		return nil, ErrAccountNotFound
	}

	rec, err := decodeRecord(rawRecord)
	if err != nil {
		return nil, err
	}
	return Account{Data: rec.Data}, nil
}

func (s *Service) handleGetAccounts() (Response, error) {
	if s.accountsVault == nil {
		return nil, ErrEmptySnapshot
	}

	records, err := s.store.GetAllFromBucket(s.accountsVault)
	if err != nil {
		return nil, err
	}

	recordIDs := make([]string, 0, len(records))
	for recordID := range records {
		recordIDs = append(recordIDs, recordID)
	}
	sort.Strings(recordIDs)

	accounts := make([][]byte, 0, len(records))
	for _, recordID := range recordIDs {
		rec, err := decodeRecord(records[recordID])
		if err != nil {
			return nil, err
		}
		if rec.Hint == AccountHint {
			accounts = append(accounts, rec.Data)
		}
	}
	return Accounts{Data: accounts}, nil
}

func (s *Service) handleStoreAccount(
	id domain.AccountIdentifier, data []byte,
) (Response, error) {
	if s.accountsVault == nil {
		return nil, ErrEmptySnapshot
	}
	recordID, err := accountRecordID(id)
	if err != nil {
		return nil, err
	}

	rawRecord, err := encodeRecord(record{Hint: AccountHint, Data: data})
	if err != nil {
		return nil, err
	}
	if err := s.store.AddToBucket(s.accountsVault, recordID, rawRecord); err != nil {
		return nil, err
	}
	return StoredAccount{}, nil
}

func (s *Service) handleRemoveAccount(id domain.AccountIdentifier) (Response, error) {
	if s.accountsVault == nil {
		return nil, ErrEmptySnapshot
	}
	recordID, err := accountRecordID(id)
	if err != nil {
		return nil, err
	}

	if err := s.store.RemoveFromBucket(s.accountsVault, recordID); err != nil {
		return nil, err
	}
	return RemovedAccount{}, nil
}

func (s *Service) handleSignTransaction(
	id domain.AccountIdentifier,
	inputs []domain.TransactionInput,
	outputs []domain.TransactionOutput,
) (Response, error) {
	if s.seedVault == nil || s.accountsVault == nil {
		return nil, ErrEmptySnapshot
	}

	// the account secret record must exist before its keys are used
	if _, err := s.handleGetAccount(id); err != nil {
		return nil, err
	}

	rawSeedRecord, err := s.store.GetFromBucket(s.seedVault, []byte(seedRecordID))
	if err != nil {
		return nil, err
	}
	if rawSeedRecord == nil {
		return nil, ErrSeedNotFound
	}
	seedRecord, err := decodeRecord(rawSeedRecord)
	if err != nil {
		return nil, err
	}

	essence := transactionEssence{Inputs: inputs, Outputs: outputs}
	essenceBytes, err := json.Marshal(essence)
	if err != nil {
		return nil, err
	}

	unlockBlocks := make([]unlockBlock, 0, len(inputs))
	for _, input := range inputs {
		signingKey, err := wallet.DeriveSigningKey(
			seedRecord.Data, input.KeyIndex, input.Change,
		)
		if err != nil {
			return nil, err
		}
		unlockBlocks = append(unlockBlocks, unlockBlock{
			PublicKey: hex.EncodeToString(
				signingKey.PubKey().SerializeCompressed(),
			),
			Signature: hex.EncodeToString(wallet.Sign(signingKey, essenceBytes)),
		})
	}

	payload, err := json.Marshal(signedTransaction{
		Essence:      essence,
		UnlockBlocks: unlockBlocks,
	})
	if err != nil {
		return nil, err
	}
	return SignedTransaction{Payload: payload}, nil
}

type transactionEssence struct {
	Inputs  []domain.TransactionInput  `json:"inputs"`
	Outputs []domain.TransactionOutput `json:"outputs"`
}

type unlockBlock struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type signedTransaction struct {
	Essence      transactionEssence `json:"essence"`
	UnlockBlocks []unlockBlock      `json:"unlock_blocks"`
}

// accountRecordID derives the record id of an account secret from the byte
// prefix of its opaque id. Index identifiers are rejected.
func accountRecordID(id domain.AccountIdentifier) ([]byte, error) {
	accountID, err := id.ID()
	if err != nil {
		return nil, err
	}
	return []byte(hex.EncodeToString(accountID[:recordIDLen])), nil
}

func encodeRecord(rec record) ([]byte, error) {
	return json.Marshal(rec)
}

func decodeRecord(raw []byte) (record, error) {
	rec := record{}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// LoadOrCreate bootstraps the vault from the snapshot at the given path,
// loading it when the file exists and creating it otherwise.
func (s *Service) LoadOrCreate(path string, password []byte) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s.CreateSnapshot(path, password)
	}
	return s.LoadSnapshot(path, password)
}

// LoadSnapshot opens an existing snapshot.
func (s *Service) LoadSnapshot(path string, password []byte) error {
	resp, err := s.Ask(LoadSnapshot{Path: path, Password: password})
	if err != nil {
		return err
	}
	if _, ok := resp.(LoadedSnapshot); !ok {
		return ErrUnexpectedResponse
	}
	return nil
}

// CreateSnapshot creates a fresh snapshot.
func (s *Service) CreateSnapshot(path string, password []byte) error {
	resp, err := s.Ask(CreateSnapshot{Path: path, Password: password})
	if err != nil {
		return err
	}
	if _, ok := resp.(CreatedSnapshot); !ok {
		return ErrUnexpectedResponse
	}
	return nil
}

// GetAccount returns the serialized secret of the given account.
func (s *Service) GetAccount(id domain.AccountIdentifier) ([]byte, error) {
	resp, err := s.Ask(GetAccount{ID: id})
	if err != nil {
		return nil, err
	}
	account, ok := resp.(Account)
	if !ok {
		return nil, ErrUnexpectedResponse
	}
	return account.Data, nil
}

// GetAccounts returns the serialized secrets of every stored account.
func (s *Service) GetAccounts() ([][]byte, error) {
	resp, err := s.Ask(GetAccounts{})
	if err != nil {
		return nil, err
	}
	accounts, ok := resp.(Accounts)
	if !ok {
		return nil, ErrUnexpectedResponse
	}
	return accounts.Data, nil
}

// StoreAccount writes or overwrites the secret record of the given account.
func (s *Service) StoreAccount(id domain.AccountIdentifier, data []byte) error {
	resp, err := s.Ask(StoreAccount{ID: id, Data: data})
	if err != nil {
		return err
	}
	if _, ok := resp.(StoredAccount); !ok {
		return ErrUnexpectedResponse
	}
	return nil
}

// RemoveAccount deletes the secret record of the given account, if any.
func (s *Service) RemoveAccount(id domain.AccountIdentifier) error {
	resp, err := s.Ask(RemoveAccount{ID: id})
	if err != nil {
		return err
	}
	if _, ok := resp.(RemovedAccount); !ok {
		return ErrUnexpectedResponse
	}
	return nil
}

// SignTransaction builds and signs a transaction payload with the account's
// secret material. It implements the ports.TransactionSigner interface.
func (s *Service) SignTransaction(
	id domain.AccountIdentifier,
	inputs []domain.TransactionInput,
	outputs []domain.TransactionOutput,
) ([]byte, error) {
	resp, err := s.Ask(SignTransaction{ID: id, Inputs: inputs, Outputs: outputs})
	if err != nil {
		return nil, err
	}
	signed, ok := resp.(SignedTransaction)
	if !ok {
		return nil, ErrUnexpectedResponse
	}
	return signed.Payload, nil
}
