package vault

import "errors"

var (
	// ErrRequestTimeout is returned when the vault actor does not answer a
	// request within the configured wait budget. The vault state must be
	// treated as unknown-but-unchanged by the caller.
	ErrRequestTimeout = errors.New("vault request timed out")
	// ErrAccountNotFound is returned when no record exists for the requested
	// account id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmptySnapshot is returned when a request depends on a resolved vault
	// but no snapshot has been loaded or created yet.
	ErrEmptySnapshot = errors.New("snapshot doesn't have an accounts vault")
	// ErrSeedNotFound is returned when the seed vault does not hold a seed
	// record, which means the snapshot is corrupt.
	ErrSeedNotFound = errors.New("seed record not found")
	// ErrUnexpectedResponse is returned when the actor answers a request with
	// a response of the wrong type.
	ErrUnexpectedResponse = errors.New("unexpected vault response type")
	// ErrClosed is returned for requests sent after the actor stopped.
	ErrClosed = errors.New("vault service is closed")
)
