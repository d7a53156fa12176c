package storage

import "errors"

// Common storage errors. Components pass these across boundaries as
// values and check them with errors.Is; adapters convert backend failures
// into one of these kinds instead of letting them escape raw.
var (
	// ErrNotFound indicates the key is absent from the store.
	ErrNotFound = errors.New("key not found")

	// ErrStorageFailure indicates an I/O failure in the backing store.
	ErrStorageFailure = errors.New("storage failure")

	// ErrStorageClosed indicates the store has been closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrNetwork indicates a network failure reaching the remote store.
	ErrNetwork = errors.New("network error")

	// ErrTimeout indicates a remote call exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)
