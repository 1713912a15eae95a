package asset

import "errors"

var (
	// ErrMalformedRow is returned when a stored row is missing a required
	// field or holds a value of the wrong type.
	ErrMalformedRow = errors.New("malformed asset row")

	// ErrAlreadyExists is returned by inserts when a row with the same
	// account and asset id is already stored.
	ErrAlreadyExists = errors.New("asset already exists")

	// ErrConcurrencyConflict is returned by updates when the stored
	// concurrency token no longer matches the one the caller read.
	ErrConcurrencyConflict = errors.New("asset concurrency conflict")
)
