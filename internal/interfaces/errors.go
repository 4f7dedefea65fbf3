package interfaces

import "errors"

var (
	// ErrKeyNotFound is returned when a key does not exist in key/value storage
	ErrKeyNotFound = errors.New("key not found")

	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")
)
