package ports

// Storage is the key/value persistence collaborator used to store serialized
// account snapshots. Keys are account ids or aliases, values are whole
// snapshots: there are no partial-field updates, a write always overwrites
// the full record.
type Storage interface {
	// Set writes the serialized value for the given key.
	Set(key string, value []byte) error
	// Get returns the serialized value stored for the given key.
	Get(key string) ([]byte, error)
	// Remove deletes the value stored for the given key.
	Remove(key string) error
}
