package boltsecurestore_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanglewallet/walletd/pkg/securestore"
	boltsecurestore "github.com/tanglewallet/walletd/pkg/securestore/bolt"
)

var password = []byte("password")

func newTestStore(t *testing.T) securestore.SecureStorage {
	t.Helper()

	store, err := boltsecurestore.NewSecureStorage(t.TempDir(), "test.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSecureStorage(t *testing.T) {
	store := newTestStore(t)
	require.NotNil(t, store)
	require.True(t, store.IsLocked())
}

func TestCreateUnlock(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAllFromBucket(nil)
	require.EqualError(t, err, boltsecurestore.ErrStoreLocked.Error())

	err = store.CreateUnlock(&password)
	require.NoError(t, err)

	// ensures that the store does nothing if already unlocked.
	err = store.CreateUnlock(&password)
	require.NoError(t, err)

	_, err = store.GetAllFromBucket(nil)
	require.NoError(t, err)
}

func TestFailingCreateUnlock(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateUnlock(nil)
	require.EqualError(t, err, boltsecurestore.ErrPasswordRequired.Error())

	require.NoError(t, store.CreateUnlock(&password))
	store.Lock()

	wrongPassword := []byte("wrong password")
	err = store.CreateUnlock(&wrongPassword)
	require.EqualError(t, err, boltsecurestore.ErrInvalidPassword.Error())
}

func TestBucketRoundtrip(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.CreateUnlock(&password))

	bucketKey := []byte("vault1")
	require.NoError(t, store.CreateBucket(bucketKey))

	require.NoError(t, store.AddToBucket(bucketKey, []byte("rec1"), []byte("secret")))

	value, err := store.GetFromBucket(bucketKey, []byte("rec1"))
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), value)

	all, err := store.GetAllFromBucket(bucketKey)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, []byte("secret"), all["rec1"])

	buckets, err := store.ListBuckets()
	require.NoError(t, err)
	require.Equal(t, [][]byte{bucketKey}, buckets)
}

func TestGetMissingEntry(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.CreateUnlock(&password))
	require.NoError(t, store.CreateBucket([]byte("vault1")))

	value, err := store.GetFromBucket([]byte("vault1"), []byte("unknown"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestRemoveFromBucketIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.CreateUnlock(&password))

	bucketKey := []byte("vault1")
	require.NoError(t, store.CreateBucket(bucketKey))
	require.NoError(t, store.AddToBucket(bucketKey, []byte("rec1"), []byte("secret")))

	require.NoError(t, store.RemoveFromBucket(bucketKey, []byte("rec1")))
	require.NoError(t, store.RemoveFromBucket(bucketKey, []byte("rec1")))

	value, err := store.GetFromBucket(bucketKey, []byte("rec1"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestFailingOperations(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.CreateUnlock(&password))

	tests := []struct {
		name        string
		run         func() error
		expectedErr error
	}{
		{
			name:        "missing bucket key",
			run:         func() error { return store.CreateBucket(nil) },
			expectedErr: boltsecurestore.ErrMissingBucketKey,
		},
		{
			name:        "forbidden bucket key",
			run:         func() error { return store.CreateBucket([]byte("enckey")) },
			expectedErr: boltsecurestore.ErrForbiddenBucketKey,
		},
		{
			name: "missing data key",
			run: func() error {
				return store.AddToBucket(nil, nil, []byte("v"))
			},
			expectedErr: boltsecurestore.ErrMissingDataKey,
		},
		{
			name: "forbidden data key",
			run: func() error {
				return store.AddToBucket(nil, []byte("enckey"), []byte("v"))
			},
			expectedErr: boltsecurestore.ErrForbiddenDataKey,
		},
		{
			name: "missing data",
			run: func() error {
				return store.AddToBucket(nil, []byte("k"), nil)
			},
			expectedErr: boltsecurestore.ErrMissingData,
		},
		{
			name: "unknown bucket",
			run: func() error {
				return store.AddToBucket([]byte("nope"), []byte("k"), []byte("v"))
			},
			expectedErr: boltsecurestore.ErrBucketNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.EqualError(t, tt.run(), tt.expectedErr.Error())
		})
	}
}
