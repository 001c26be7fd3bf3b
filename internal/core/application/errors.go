package application

import "errors"

var (
	// ErrAmountNotPositive is returned when a transfer is requested for a
	// zero amount. Validation happens before any collaborator is reached.
	ErrAmountNotPositive = errors.New("transfer amount must be greater than 0")
	// ErrMessageNotFound is returned when retrying a message the account does
	// not own.
	ErrMessageNotFound = errors.New("message not found in account")
	// ErrMissingRemainderAddress is returned when the selected inputs exceed
	// the transfer amount but no address exists to collect the surplus.
	ErrMissingRemainderAddress = errors.New(
		"account has no address to collect the remainder",
	)
	// ErrScanDepthExceeded is returned when address discovery does not
	// terminate within the configured number of rounds.
	ErrScanDepthExceeded = errors.New(
		"address discovery exceeded the configured scan depth",
	)
)
