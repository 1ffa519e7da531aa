package storage

import "errors"

// Common errors for store operations.
var (
	// ErrStoreClosed is returned when an operation is attempted on a
	// closed store handle.
	ErrStoreClosed = errors.New("store is closed")

	// ErrInvalidNamespace is returned when a namespace is empty or
	// contains the key separator.
	ErrInvalidNamespace = errors.New("invalid namespace")

	// ErrCorruptValue is returned when a stored value fails its
	// checksum or cannot be decoded.
	ErrCorruptValue = errors.New("corrupt stored value")
)
