package collections

import "errors"

var (
	// ErrNotFound is returned when a lookup misses the in-memory index.
	ErrNotFound = errors.New("not found")

	// ErrIndexPoisoned is returned by every access to an index after a
	// panic interrupted a write to it. The index contents can no longer
	// be trusted; the manager has to be rebuilt.
	ErrIndexPoisoned = errors.New("index poisoned by an earlier panic")

	// ErrExists is returned when creating a collection whose file is already on disk.
	ErrExists = errors.New("collection already exists")
)
