package domain

import "time"

// Message is a ledger transaction as seen by the wallet. It is created either
// when first observed on the ledger during a sync, or right after a local
// submission. The Broadcasted and Confirmed flags are monotonic: once set
// they are never cleared.
type Message struct {
	ID          string    `json:"id"`
	Parent1     string    `json:"parent1"`
	Parent2     string    `json:"parent2"`
	Payload     []byte    `json:"payload"`
	Broadcasted bool      `json:"broadcasted"`
	Confirmed   bool      `json:"confirmed"`
	Timestamp   time.Time `json:"timestamp"`
}

// SetBroadcasted marks the message as accepted for propagation by the ledger.
func (m *Message) SetBroadcasted() {
	m.Broadcasted = true
}

// SetConfirmed marks the message as finalized by the ledger.
func (m *Message) SetConfirmed() {
	m.Confirmed = true
}

// TransactionInput references a spendable output consumed by a new
// transaction, along with the derivation coordinates of the key that owns it.
type TransactionInput struct {
	ProducerID  string `json:"producer_id"`
	OutputIndex uint32 `json:"output_index"`
	KeyIndex    uint32 `json:"key_index"`
	Change      bool   `json:"change"`
}

// TransactionOutput allocates an amount to a destination address within a new
// transaction.
type TransactionOutput struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Transfer is a request to move an amount to a destination address. It is
// ephemeral and never persisted.
type Transfer struct {
	Address Address
	Amount  uint64
}
