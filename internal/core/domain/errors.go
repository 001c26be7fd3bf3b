package domain

import "errors"

var (
	// ErrInvalidAccountID is thrown when parsing an account id of the wrong
	// length.
	ErrInvalidAccountID = errors.New("account id must be 32 bytes long")
	// ErrAccountIDRequired is thrown when an account index is provided where
	// an opaque account id is required.
	ErrAccountIDRequired = errors.New("must provide account id instead of index")
	// ErrNullAddress ...
	ErrNullAddress = errors.New("address value must not be null")
)
