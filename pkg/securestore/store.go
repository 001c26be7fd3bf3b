package securestore

// SecureStorage is a key/value store that encrypts the values of its pairs
// with a key derived from a password. Pairs are grouped into buckets, which
// serve as isolated namespaces: the secure vault maps each of its vaults to
// one bucket.
type SecureStorage interface {
	// Lock locks the store once unlocked, zeroing the in-memory key.
	Lock()
	// IsLocked returns whether the store is currently locked.
	IsLocked() bool
	// CreateUnlock creates the encryption key from the password on first use,
	// or unlocks the store by checking the password against the stored key.
	CreateUnlock(password *[]byte) error
	// Close locks the store and closes the underlying database.
	Close() error
	// CreateBucket creates a nested bucket if it does not exist yet.
	CreateBucket(key []byte) error
	// AddToBucket writes the encrypted key/value entry into a bucket.
	AddToBucket(bucketKey, key, value []byte) error
	// GetFromBucket reads and decrypts the entry for the given key, returning
	// a nil value if the entry does not exist.
	GetFromBucket(bucketKey, key []byte) ([]byte, error)
	// GetAllFromBucket reads and decrypts every entry of a bucket.
	GetAllFromBucket(bucketKey []byte) (map[string][]byte, error)
	// ListBuckets returns the keys of all nested buckets.
	ListBuckets() ([][]byte, error)
	// RemoveFromBucket deletes an entry from a bucket. Removing a missing
	// entry is not an error.
	RemoveFromBucket(bucketKey, key []byte) error
	// RemoveBucket deletes a nested bucket and all its entries.
	RemoveBucket(key []byte) error
}
