package ledger

// Message is a ledger message referencing two parent tips and carrying a
// transaction payload. The id is assigned by the ledger.
type Message struct {
	ID      string `json:"id"`
	Parent1 string `json:"parent1"`
	Parent2 string `json:"parent2"`
	Payload []byte `json:"payload"`
}

// AddressBalance pairs an address with its current balance in ledger-native
// denomination.
type AddressBalance struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Output is a spendable transaction output owned by an address.
type Output struct {
	ProducerID  string `json:"producer_id"`
	OutputIndex uint32 `json:"output_index"`
	Address     string `json:"address"`
	Amount      uint64 `json:"amount"`
}

// Service is the representation of a ledger node that allows to fetch
// transactions, balances and spendable outputs for addresses, and to
// broadcast new messages. Implementations surface every I/O failure as a
// network error: callers may retry the whole operation from scratch.
type Service interface {
	// GetTransactionsForAddresses returns every ledger transaction touching
	// any of the given addresses.
	GetTransactionsForAddresses(addresses []string) ([]Message, error)
	// GetAddressesBalance returns the current balance of every given address.
	GetAddressesBalance(addresses []string) ([]AddressBalance, error)
	// IsConfirmed returns the confirmation state of the given message ids.
	IsConfirmed(ids []string) (map[string]bool, error)
	// GetTransactionsByIDs returns the full message bodies for the given ids.
	GetTransactionsByIDs(ids []string) ([]Message, error)
	// GetOutputs returns the spendable outputs owned by the given addresses.
	GetOutputs(addresses []string) ([]Output, error)
	// GetTips returns two tip message ids to anchor a new message to.
	GetTips() (string, string, error)
	// PostMessages broadcasts the given messages and returns their assigned
	// ids, in the same order.
	PostMessages(messages []Message) ([]string, error)
}
