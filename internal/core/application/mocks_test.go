package application_test

import (
	"fmt"

	"github.com/tanglewallet/walletd/internal/core/domain"
	"github.com/tanglewallet/walletd/pkg/ledger"
)

// fakeProvider derives deterministic address values from the derivation
// coordinates.
type fakeProvider struct {
	calls int
}

func (p *fakeProvider) DeriveAddress(keyIndex uint32, change bool) (string, error) {
	p.calls++
	return testAddress(keyIndex, change), nil
}

func testAddress(keyIndex uint32, change bool) string {
	chain := "ext"
	if change {
		chain = "int"
	}
	return fmt.Sprintf("ADDR_%s_%d", chain, keyIndex)
}

type fakeLedger struct {
	txsByAddress  map[string][]ledger.Message
	balances      map[string]uint64
	balanceForAll uint64
	confirmed     map[string]bool
	bodies        map[string]ledger.Message
	outputs       map[string][]ledger.Output
	postedIDs     []string
	postErr       error

	calls  int
	posted []ledger.Message
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		txsByAddress: map[string][]ledger.Message{},
		balances:     map[string]uint64{},
		confirmed:    map[string]bool{},
		bodies:       map[string]ledger.Message{},
		outputs:      map[string][]ledger.Output{},
	}
}

func (l *fakeLedger) GetTransactionsForAddresses(
	addresses []string,
) ([]ledger.Message, error) {
	l.calls++
	messages := make([]ledger.Message, 0)
	for _, addr := range addresses {
		messages = append(messages, l.txsByAddress[addr]...)
	}
	return messages, nil
}

func (l *fakeLedger) GetAddressesBalance(
	addresses []string,
) ([]ledger.AddressBalance, error) {
	l.calls++
	balances := make([]ledger.AddressBalance, 0, len(addresses))
	for _, addr := range addresses {
		amount := l.balances[addr]
		if l.balanceForAll > 0 {
			amount = l.balanceForAll
		}
		balances = append(balances, ledger.AddressBalance{
			Address: addr, Amount: amount,
		})
	}
	return balances, nil
}

func (l *fakeLedger) IsConfirmed(ids []string) (map[string]bool, error) {
	l.calls++
	states := make(map[string]bool, len(ids))
	for _, id := range ids {
		states[id] = l.confirmed[id]
	}
	return states, nil
}

func (l *fakeLedger) GetTransactionsByIDs(ids []string) ([]ledger.Message, error) {
	l.calls++
	messages := make([]ledger.Message, 0, len(ids))
	for _, id := range ids {
		if body, ok := l.bodies[id]; ok {
			messages = append(messages, body)
		}
	}
	return messages, nil
}

func (l *fakeLedger) GetOutputs(addresses []string) ([]ledger.Output, error) {
	l.calls++
	outputs := make([]ledger.Output, 0)
	for _, addr := range addresses {
		outputs = append(outputs, l.outputs[addr]...)
	}
	return outputs, nil
}

func (l *fakeLedger) GetTips() (string, string, error) {
	l.calls++
	return "tip1", "tip2", nil
}

func (l *fakeLedger) PostMessages(
	messages []ledger.Message,
) ([]string, error) {
	l.calls++
	if l.postErr != nil {
		return nil, l.postErr
	}
	l.posted = append(l.posted, messages...)
	ids := l.postedIDs
	if len(ids) == 0 {
		for i := range messages {
			ids = append(ids, fmt.Sprintf("posted_%d", len(l.posted)+i))
		}
	}
	return ids, nil
}

type fakeStorage struct {
	data map[string][]byte
	sets int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: map[string][]byte{}}
}

func (s *fakeStorage) Set(key string, value []byte) error {
	s.sets++
	buf := make([]byte, len(value))
	copy(buf, value)
	s.data[key] = buf
	return nil
}

func (s *fakeStorage) Get(key string) ([]byte, error) {
	return s.data[key], nil
}

func (s *fakeStorage) Remove(key string) error {
	delete(s.data, key)
	return nil
}

type fakeSigner struct {
	calls   int
	inputs  []domain.TransactionInput
	outputs []domain.TransactionOutput
}

func (s *fakeSigner) SignTransaction(
	id domain.AccountIdentifier,
	inputs []domain.TransactionInput,
	outputs []domain.TransactionOutput,
) ([]byte, error) {
	s.calls++
	s.inputs = inputs
	s.outputs = outputs
	if _, err := id.ID(); err != nil {
		return nil, err
	}
	return []byte("signed payload"), nil
}
