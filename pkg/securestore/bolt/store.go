package boltsecurestore

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/btcsuite/btcwallet/snacl"
	"github.com/tanglewallet/walletd/pkg/securestore"
	bolt "go.etcd.io/bbolt"
)

const dbTimeout = 5 * time.Second

var (
	// rootBucketName is the name of the top level bucket holding every vault
	// bucket and the encryption key entry.
	rootBucketName = []byte("vaults")

	// encryptionKeyID is the name of the database key that stores the
	// encryption key, encrypted with a salted + hashed password. The format
	// is 32 bytes of salt, and the rest is encrypted key.
	encryptionKeyID = []byte("enckey")
)

type boltSecureStorage struct {
	db *bolt.DB

	encKeyMtx sync.RWMutex
	encKey    *snacl.SecretKey
}

// NewSecureStorage creates a bolt instance of the SecureStorage interface,
// backed by a single database file under datadir. The store starts locked.
func NewSecureStorage(datadir, filename string) (securestore.SecureStorage, error) {
	if _, err := os.Stat(datadir); os.IsNotExist(err) {
		if err := os.MkdirAll(datadir, os.ModeDir|0755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(
		filepath.Join(datadir, filename), 0644, &bolt.Options{Timeout: dbTimeout},
	)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucketName)
		return err
	}); err != nil {
		return nil, err
	}

	return &boltSecureStorage{db: db, encKey: nil}, nil
}

// IsLocked returns whether the store is locked by checking if the encryption
// key is stored in-memory.
func (s *boltSecureStorage) IsLocked() bool {
	return s.encKey == nil
}

// Lock eventually locks the store by flushing the in-memory encryption key.
func (s *boltSecureStorage) Lock() {
	if !s.IsLocked() {
		s.encKey.Zero()
		s.encKey = nil
	}
}

// CreateUnlock sets an encryption key if one is not already set, otherwise it
// checks if the password is correct for the stored encryption key.
func (s *boltSecureStorage) CreateUnlock(password *[]byte) error {
	// If the store is already unlocked there's nothing to do here.
	if !s.IsLocked() {
		return nil
	}

	if password == nil {
		return ErrPasswordRequired
	}

	s.encKeyMtx.Lock()
	defer s.encKeyMtx.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		dbKey := bucket.Get(encryptionKeyID)
		if len(dbKey) > 0 {
			// A key is already stored, so try to unlock with the password.
			encKey := &snacl.SecretKey{}
			if err := encKey.Unmarshal(dbKey); err != nil {
				return err
			}

			if err := encKey.DeriveKey(password); err != nil {
				return ErrInvalidPassword
			}

			s.encKey = encKey
			return nil
		}

		// The encryption key is not yet stored, so create a new one.
		encKey, err := snacl.NewSecretKey(
			password, snacl.DefaultN, snacl.DefaultR, snacl.DefaultP,
		)
		if err != nil {
			return err
		}

		if err := bucket.Put(encryptionKeyID, encKey.Marshal()); err != nil {
			return err
		}

		s.encKey = encKey
		return nil
	})
}

// CreateBucket creates a nested bucket into the root one.
func (s *boltSecureStorage) CreateBucket(key []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingBucketKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenBucketKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		_, err := bucket.CreateBucketIfNotExists(key)
		return err
	})
}

// AddToBucket stores the provided data encrypted into the given bucket.
// If the bucket key is nil, the key/value entry is added to the root one.
func (s *boltSecureStorage) AddToBucket(bucketKey, key, value []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingDataKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenDataKey
	}
	if len(value) <= 0 {
		return ErrMissingData
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		encryptedValue, err := s.encKey.Encrypt(value)
		if err != nil {
			return err
		}

		return bucket.Put(key, encryptedValue)
	})
}

// GetFromBucket retrieves data for the given key and bucket. If the bucket
// key is nil, data is retrieved from the root bucket.
func (s *boltSecureStorage) GetFromBucket(bucketKey, key []byte) ([]byte, error) {
	if s.IsLocked() {
		return nil, ErrStoreLocked
	}

	if len(key) <= 0 {
		return nil, ErrMissingDataKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return nil, ErrForbiddenDataKey
	}

	var value []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		encryptedValue := bucket.Get(key)
		if len(encryptedValue) <= 0 {
			return nil
		}

		v, err := s.encKey.Decrypt(encryptedValue)
		if err != nil {
			return err
		}

		value = make([]byte, len(v))
		copy(value, v)
		return nil
	}); err != nil {
		return nil, err
	}

	return value, nil
}

// GetAllFromBucket returns all data stored in the given bucket. If the bucket
// key is nil, entries of the root bucket are returned.
func (s *boltSecureStorage) GetAllFromBucket(bucketKey []byte) (map[string][]byte, error) {
	if s.IsLocked() {
		return nil, ErrStoreLocked
	}

	res := make(map[string][]byte)
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		return bucket.ForEach(func(k, v []byte) error {
			if !bytes.Equal(k, encryptionKeyID) && v != nil {
				value, err := s.encKey.Decrypt(v)
				if err != nil {
					return err
				}
				res[string(k)] = value
			}
			return nil
		})
	}); err != nil {
		return nil, err
	}

	return res, nil
}

// ListBuckets returns the keys of all nested buckets of the root one.
func (s *boltSecureStorage) ListBuckets() ([][]byte, error) {
	if s.IsLocked() {
		return nil, ErrStoreLocked
	}

	var bucketKeys [][]byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		return bucket.ForEach(func(key, value []byte) error {
			// nested buckets have a nil value
			if value == nil {
				bucketKey := make([]byte, len(key))
				copy(bucketKey, key)
				bucketKeys = append(bucketKeys, bucketKey)
			}
			return nil
		})
	}); err != nil {
		return nil, err
	}

	return bucketKeys, nil
}

// Close closes the underlying database and zeroes the encryption key stored
// in memory.
func (s *boltSecureStorage) Close() error {
	s.encKeyMtx.Lock()
	defer s.encKeyMtx.Unlock()

	s.Lock()

	return s.db.Close()
}

// RemoveFromBucket removes the entry identified by the given key from the
// given bucket. If the bucket key is nil, the entry is removed from the root
// bucket. Removing a missing entry is a no-op.
func (s *boltSecureStorage) RemoveFromBucket(bucketKey, key []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingDataKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenDataKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		return bucket.Delete(key)
	})
}

// RemoveBucket removes a nested bucket from the root one.
func (s *boltSecureStorage) RemoveBucket(key []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingBucketKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenBucketKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		return bucket.DeleteBucket(key)
	})
}
