package store

import "errors"

// Error kinds returned by the engine. Wrapped variants carry operation
// detail; match them with errors.Is.
var (
	// ErrInvalidKey marks an empty key or one longer than Options.MaxKeyBytes.
	ErrInvalidKey = errors.New("mpkv: invalid key")

	// ErrValueTooLarge marks a Put whose record would exceed the frame
	// cap replay accepts. Nothing is written.
	ErrValueTooLarge = errors.New("mpkv: value too large")

	// ErrNotFound is the normal negative result for Get: the key is absent
	// or was last written as a tombstone.
	ErrNotFound = errors.New("mpkv: not found")

	// ErrCorruption marks a record that failed its integrity check.
	ErrCorruption = errors.New("mpkv: corrupted record")

	// ErrIO wraps disk failures. The failed operation aborted and the
	// in-memory state is unchanged.
	ErrIO = errors.New("mpkv: io failure")

	// ErrLocked means another process holds the data directory.
	ErrLocked = errors.New("mpkv: store locked")

	// ErrClosed marks an operation attempted after Close.
	ErrClosed = errors.New("mpkv: store closed")
)
