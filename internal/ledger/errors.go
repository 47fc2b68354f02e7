package ledger

import (
	"errors"
)

var (
	// ErrNotFound is returned when a height or hash is not part of the chain.
	ErrNotFound = errors.New("block not found")

	// ErrUnauthorized is returned when a confirming identity is not on the
	// validator allow-list.
	ErrUnauthorized = errors.New("identity is not an authorized validator")

	// ErrMalformedPayload is returned when a proposal carries no usable data.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrStaleTimestamp is returned when a proposal is not newer than the
	// chain tail.
	ErrStaleTimestamp = errors.New("timestamp is not newer than the chain tail")

	// ErrPersistence wraps every failure of the underlying store.
	ErrPersistence = errors.New("persistence failure")

	// ErrIntegrity is returned when a snapshot fails hash or link verification.
	ErrIntegrity = errors.New("integrity check failed")
)
