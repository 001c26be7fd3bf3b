package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tanglewallet/walletd/internal/core/domain"
	"github.com/tanglewallet/walletd/internal/core/ports"
	"github.com/tanglewallet/walletd/pkg/coinselect"
	"github.com/tanglewallet/walletd/pkg/ledger"
)

// SyncedAccount is an account whose snapshot has just been aligned with the
// ledger. Transfers can only be built from a synced account so that input
// selection never runs on stale balances.
type SyncedAccount struct {
	account     *domain.Account
	ledger      ledger.Service
	storage     ports.Storage
	provider    ports.AddressProvider
	signer      ports.TransactionSigner
	selectCoins coinselect.Strategy
}

// Account returns the underlying account snapshot.
func (s *SyncedAccount) Account() *domain.Account {
	return s.account
}

// DepositAddress returns the address to hand out for receiving funds, the
// most recently derived one.
func (s *SyncedAccount) DepositAddress() domain.Address {
	latest := s.account.LatestAddress()
	if latest == nil {
		return domain.Address{}
	}
	return *latest
}

// Balance returns the summed balance of every account address.
func (s *SyncedAccount) Balance() uint64 {
	total := uint64(0)
	for i := range s.account.Addresses {
		total += s.account.Addresses[i].Balance
	}
	return total
}

// addressCoin adapts an account address to the coin selection interface.
type addressCoin struct {
	address domain.Address
}

func (c addressCoin) Value() uint64 {
	return c.address.Balance
}

// Transfer builds, signs and broadcasts a transaction moving the transfer
// amount to its destination address. The snapshot is reloaded from storage
// before selecting inputs, and persisted again only after the ledger accepted
// the message: a failed broadcast leaves no local trace.
func (s *SyncedAccount) Transfer(
	ctx context.Context, transfer domain.Transfer,
) (*domain.Message, error) {
	if transfer.Amount == 0 {
		return nil, ErrAmountNotPositive
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.reload(); err != nil {
		return nil, err
	}

	selected, err := s.selectInputAddresses(transfer)
	if err != nil {
		return nil, err
	}

	selectedTotal := uint64(0)
	selectedValues := make([]string, 0, len(selected))
	addressesByValue := make(map[string]domain.Address)
	for _, addr := range selected {
		selectedTotal += addr.Balance
		selectedValues = append(selectedValues, addr.Value)
		addressesByValue[addr.Value] = addr
	}

	var remainderAddress *domain.Address
	if selectedTotal > transfer.Amount {
		remainderAddress = s.account.LatestAddress()
		if remainderAddress == nil {
			return nil, ErrMissingRemainderAddress
		}
	}

	utxos, err := s.ledger.GetOutputs(selectedValues)
	if err != nil {
		return nil, err
	}

	inputs := make([]domain.TransactionInput, 0, len(utxos))
	for _, utxo := range utxos {
		owner := addressesByValue[utxo.Address]
		inputs = append(inputs, domain.TransactionInput{
			ProducerID:  utxo.ProducerID,
			OutputIndex: utxo.OutputIndex,
			KeyIndex:    owner.KeyIndex,
			Change:      owner.Change,
		})
	}

	outputs := allocateOutputs(utxos, transfer, remainderAddress)

	tip1, tip2, err := s.ledger.GetTips()
	if err != nil {
		return nil, err
	}

	payload, err := s.signer.SignTransaction(
		domain.IdentifierFromID(s.account.ID), inputs, outputs,
	)
	if err != nil {
		return nil, err
	}

	ids, err := s.ledger.PostMessages([]ledger.Message{{
		Parent1: tip1,
		Parent2: tip2,
		Payload: payload,
	}})
	if err != nil {
		return nil, err
	}

	message := domain.Message{
		ID:          ids[0],
		Parent1:     tip1,
		Parent2:     tip2,
		Payload:     payload,
		Broadcasted: true,
		Timestamp:   time.Now(),
	}
	s.account.AppendMessages([]domain.Message{message})

	if err := s.persist(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account": s.account.ID.String(),
		"message": message.ID,
		"amount":  transfer.Amount,
	}).Debug("transfer broadcasted")

	return s.account.GetMessage(message.ID), nil
}

// Retry broadcasts an already built message again, unchanged. The ledger
// assigned id becomes the message identity.
func (s *SyncedAccount) Retry(
	ctx context.Context, messageID string,
) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	message := s.account.GetMessage(messageID)
	if message == nil {
		return nil, ErrMessageNotFound
	}

	ids, err := s.ledger.PostMessages([]ledger.Message{{
		Parent1: message.Parent1,
		Parent2: message.Parent2,
		Payload: message.Payload,
	}})
	if err != nil {
		return nil, err
	}

	message.ID = ids[0]
	message.SetBroadcasted()

	if err := s.persist(); err != nil {
		return nil, err
	}

	return message, nil
}

// selectInputAddresses runs the input selection strategy over the funded
// account addresses. The destination address never funds its own transfer.
func (s *SyncedAccount) selectInputAddresses(
	transfer domain.Transfer,
) ([]domain.Address, error) {
	coins := make([]coinselect.Coin, 0, len(s.account.Addresses))
	for _, addr := range s.account.Addresses {
		if addr.Balance == 0 || addr.Equal(transfer.Address) {
			continue
		}
		coins = append(coins, addressCoin{address: addr})
	}

	selectedCoins, err := s.selectCoins(coins, transfer.Amount)
	if err != nil {
		return nil, err
	}

	selected := make([]domain.Address, 0, len(selectedCoins))
	for _, coin := range selectedCoins {
		selected = append(selected, coin.(addressCoin).address)
	}
	return selected, nil
}

// allocateOutputs distributes the value of the consumed outputs between the
// destination and the remainder address. The destination receives exactly the
// transfer amount, every surplus unit goes to the remainder.
func allocateOutputs(
	utxos []ledger.Output,
	transfer domain.Transfer,
	remainderAddress *domain.Address,
) []domain.TransactionOutput {
	remaining := transfer.Amount
	surplus := uint64(0)
	for _, utxo := range utxos {
		if utxo.Amount <= remaining {
			remaining -= utxo.Amount
			continue
		}
		surplus += utxo.Amount - remaining
		remaining = 0
	}

	outputs := []domain.TransactionOutput{{
		Address: transfer.Address.Value,
		Amount:  transfer.Amount,
	}}
	if surplus > 0 && remainderAddress != nil {
		outputs = append(outputs, domain.TransactionOutput{
			Address: remainderAddress.Value,
			Amount:  surplus,
		})
	}
	return outputs
}

// reload replaces the in-memory snapshot with the persisted one, if any.
func (s *SyncedAccount) reload() error {
	snapshot, err := s.storage.Get(s.account.ID.String())
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}
	account, err := domain.NewAccountFromBytes(snapshot)
	if err != nil {
		return err
	}
	*s.account = *account
	return nil
}

func (s *SyncedAccount) persist() error {
	snapshot, err := s.account.Serialize()
	if err != nil {
		return err
	}
	return s.storage.Set(s.account.ID.String(), snapshot)
}
