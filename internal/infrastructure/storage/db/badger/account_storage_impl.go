package dbbadger

import (
	"errors"

	"github.com/tanglewallet/walletd/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type accountSnapshot struct {
	Key  string `badgerhold:"key"`
	Data []byte
}

type accountStorageImpl struct {
	db *DbManager
}

// NewAccountStorageImpl returns a badger backed implementation of the account
// snapshot storage.
func NewAccountStorageImpl(db *DbManager) ports.Storage {
	return accountStorageImpl{db: db}
}

func (s accountStorageImpl) Set(key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	return s.db.Store.Upsert(key, accountSnapshot{Key: key, Data: buf})
}

func (s accountStorageImpl) Get(key string) ([]byte, error) {
	var snapshot accountSnapshot
	if err := s.db.Store.Get(key, &snapshot); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot.Data, nil
}

func (s accountStorageImpl) Remove(key string) error {
	if err := s.db.Store.Delete(key, accountSnapshot{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
