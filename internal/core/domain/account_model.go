package domain

import (
	"encoding/hex"
	"encoding/json"
)

// AccountIDLen is the length in bytes of an account identifier.
const AccountIDLen = 32

// AccountID is the opaque 32-byte identifier of a wallet account.
type AccountID [AccountIDLen]byte

// AccountIDFromBytes returns an AccountID from its raw representation.
func AccountIDFromBytes(raw []byte) (AccountID, error) {
	var id AccountID
	if len(raw) != AccountIDLen {
		return id, ErrInvalidAccountID
	}
	copy(id[:], raw)
	return id, nil
}

func (id AccountID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler so that account ids are
// serialized in hex format within account snapshots.
func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *AccountID) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	parsed, err := AccountIDFromBytes(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// AccountIdentifier is a sum type over an opaque account id and a numeric
// account index. Only the id variant is accepted by the secure vault when
// resolving account records.
type AccountIdentifier struct {
	id      AccountID
	index   uint32
	byIndex bool
}

// IdentifierFromID returns the id variant of an AccountIdentifier.
func IdentifierFromID(id AccountID) AccountIdentifier {
	return AccountIdentifier{id: id}
}

// IdentifierFromIndex returns the index variant of an AccountIdentifier.
func IdentifierFromIndex(index uint32) AccountIdentifier {
	return AccountIdentifier{index: index, byIndex: true}
}

// IsIndex returns whether the identifier holds an account index instead of an
// opaque id.
func (a AccountIdentifier) IsIndex() bool {
	return a.byIndex
}

// Index returns the numeric index of the identifier.
func (a AccountIdentifier) Index() uint32 {
	return a.index
}

// ID returns the opaque account id, or ErrAccountIDRequired if the identifier
// holds an index.
func (a AccountIdentifier) ID() (AccountID, error) {
	if a.byIndex {
		return AccountID{}, ErrAccountIDRequired
	}
	return a.id, nil
}

// ClientOptions groups the info needed to reach the ledger node an account
// is bound to.
type ClientOptions struct {
	NodeURL string `json:"node_url"`
	Network string `json:"network"`
}

// Account is the local state of a wallet account: its identity, the derived
// address history and the messages (ledger transactions) referencing it.
// Addresses are keyed by derivation index and change flag, messages by their
// ledger id. The whole snapshot is persisted atomically after every
// successful sync or transfer.
type Account struct {
	ID            AccountID     `json:"id"`
	Alias         string        `json:"alias"`
	XPub          string        `json:"xpub"`
	ClientOptions ClientOptions `json:"client_options"`
	Addresses     []Address     `json:"addresses"`
	Messages      []Message     `json:"messages"`
}

// LatestAddress returns the most recently derived address, ie. the one with
// the highest key index, or nil if no address has been discovered yet.
func (a *Account) LatestAddress() *Address {
	if len(a.Addresses) == 0 {
		return nil
	}
	latest := &a.Addresses[0]
	for i := range a.Addresses {
		addr := &a.Addresses[i]
		if addr.KeyIndex > latest.KeyIndex ||
			(addr.KeyIndex == latest.KeyIndex && !addr.Change && latest.Change) {
			latest = addr
		}
	}
	return latest
}

// GetMessage returns the message with the given id, or nil if the account
// does not own it.
func (a *Account) GetMessage(id string) *Message {
	for i := range a.Messages {
		if a.Messages[i].ID == id {
			return &a.Messages[i]
		}
	}
	return nil
}

// HasMessage returns whether the account owns a message with the given id.
func (a *Account) HasMessage(id string) bool {
	return a.GetMessage(id) != nil
}

// AppendMessages adds the given messages to the account.
func (a *Account) AppendMessages(messages []Message) {
	a.Messages = append(a.Messages, messages...)
}

// UpsertAddresses merges the given addresses into the account's address set.
// An address replaces the previous one with the same key index and change
// flag so that balances discovered by a sync overwrite stale ones.
func (a *Account) UpsertAddresses(addresses []Address) {
	for _, addr := range addresses {
		replaced := false
		for i := range a.Addresses {
			if a.Addresses[i].KeyIndex == addr.KeyIndex &&
				a.Addresses[i].Change == addr.Change {
				a.Addresses[i] = addr
				replaced = true
				break
			}
		}
		if !replaced {
			a.Addresses = append(a.Addresses, addr)
		}
	}
}

// NextKeyIndex returns the first derivation index not yet covered by the
// account's address set.
func (a *Account) NextKeyIndex() uint32 {
	next := uint32(0)
	for i := range a.Addresses {
		if a.Addresses[i].KeyIndex >= next {
			next = a.Addresses[i].KeyIndex + 1
		}
	}
	return next
}

// Serialize returns the JSON encoded snapshot of the account.
func (a *Account) Serialize() ([]byte, error) {
	return json.Marshal(a)
}

// NewAccountFromBytes parses a serialized account snapshot.
func NewAccountFromBytes(data []byte) (*Account, error) {
	account := &Account{}
	if err := json.Unmarshal(data, account); err != nil {
		return nil, err
	}
	return account, nil
}
