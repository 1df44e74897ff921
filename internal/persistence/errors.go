package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrCorrupt is returned when a stored snapshot cannot be trusted, either
	// because its checksum does not match or because it cannot be decoded.
	ErrCorrupt = errors.New("persistence: corrupt snapshot")
)
